package injector

import (
	"slices"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// loader loads modules into the definition-time registry and collects their run
// callbacks. Each module name is loaded at most once per Container. A module that fails to
// load is never retried: loading it again returns the same error, since its registrations
// may already be partly applied.
type loader struct {
	registry    ModuleRegistry
	definitions *Resolver
	registrar   *Registrar
	logger      *log.Logger

	detectCycles bool

	loaded  map[string]bool
	failed  map[string]error
	loading []string
	// pending holds the run callbacks of completely loaded modules until they are taken.
	pending []any
	// order lists module names in the order they finished loading.
	order []string
}

func newLoader(registry ModuleRegistry, definitions *Resolver, registrar *Registrar, logger *log.Logger, detectCycles bool) *loader {
	return &loader{
		registry:     registry,
		definitions:  definitions,
		registrar:    registrar,
		logger:       logger,
		detectCycles: detectCycles,
		loaded:       map[string]bool{},
		failed:       map[string]error{},
	}
}

// load loads each entry in order and queues the run callbacks they contribute, see
// takeRuns. An entry is a module name, or a callable that is invoked immediately as an
// inline module; a non-nil result of the callable is queued as a run callback.
func (l *loader) load(entries []any) error {
	for _, entry := range entries {
		name, isName := entry.(string)
		if !isName {
			if !isCallable(entry) {
				return moduleError("", newError(ErrBadArgument, "", "module must be a name or a function, got %T", entry))
			}
			v, err := l.definitions.Invoke(entry)
			if err != nil {
				return moduleError("", err)
			}
			if v != nil {
				l.pending = append(l.pending, v)
			}
			continue
		}

		if err, ok := l.failed[name]; ok {
			return moduleError(name, err)
		}
		if l.loaded[name] {
			if l.detectCycles && slices.Contains(l.loading, name) {
				return &DependencyError{
					Kind: ErrModuleCycle,
					Name: name,
					Path: append(slices.Clone(l.loading), name),
				}
			}
			continue
		}

		if err := l.loadModule(name); err != nil {
			l.failed[name] = err
			return moduleError(name, err)
		}
	}
	return nil
}

// takeRuns returns the queued run callbacks and clears the queue.
func (l *loader) takeRuns() []any {
	runs := l.pending
	l.pending = nil
	return runs
}

func (l *loader) loadModule(name string) error {
	mod, err := l.registry.Lookup(name)
	if err != nil {
		return err
	}
	l.loaded[name] = true
	l.logger.Debug("loading module", "module", name, "requires", mod.Requires)

	l.loading = append(l.loading, name)
	defer func() {
		l.loading = l.loading[:len(l.loading)-1]
	}()

	requires := make([]any, len(mod.Requires))
	for i, r := range mod.Requires {
		requires[i] = r
	}
	if err := l.load(requires); err != nil {
		return err
	}

	if err := l.runQueue(mod.RegistrationQueue); err != nil {
		return err
	}
	if err := l.runQueue(mod.ConfigQueue); err != nil {
		return err
	}

	l.order = append(l.order, name)
	l.pending = append(l.pending, mod.RunCallbacks...)
	return nil
}

func (l *loader) runQueue(queue []Invocation) error {
	for _, inv := range queue {
		var err error
		switch inv.Target {
		case TargetRegistrar:
			err = l.registrar.dispatch(inv.Method, inv.Args)
		case TargetContainer:
			if inv.Method != MethodInvoke || len(inv.Args) != 1 {
				return newError(ErrBadArgument, inv.Method, "container queue entries take exactly one callable")
			}
			_, err = l.definitions.Invoke(inv.Args[0])
		default:
			return newError(ErrBadArgument, inv.Target, "unknown queue target")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// moduleError wraps err with the name of the module that failed. The innermost wrap
// records a stack trace, printed with %+v.
func moduleError(name string, err error) error {
	if !errors.Is(err, ErrModuleLoad) {
		err = errors.WithStack(err)
	}
	display := name
	if display == "" {
		display = "<inline>"
	}
	return &DependencyError{
		Kind:        ErrModuleLoad,
		Name:        display,
		SourceError: err,
	}
}
