package injector

import (
	"reflect"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// DefinitionSuffix is appended to a service name to form the name of its Definition
	// in the definition-time Resolver.
	DefinitionSuffix = "Definition"

	// ContainerName is the name under which each Resolver exposes itself: the
	// definition-time Resolver during configuration and the Container at runtime.
	ContainerName = "container"

	// RegistrarName is the name of the Registrar during configuration.
	RegistrarName = "registrar"

	// DelegateLocal is the local name under which a decorator receives the value it
	// decorates.
	DelegateLocal = "$delegate"
)

// Registrar method names, as used in module queues and RegisterAll.
const (
	MethodProvider  = "provider"
	MethodFactory   = "factory"
	MethodService   = "service"
	MethodValue     = "value"
	MethodConstant  = "constant"
	MethodDecorator = "decorator"
)

// Registrar populates the definition-time registry. It is available to configuration
// callables as "registrar".
type Registrar struct {
	definitions *Resolver
	runtime     *Resolver
	constants   []string
	logger      *log.Logger
}

func newRegistrar(definitions, runtime *Resolver, logger *log.Logger) *Registrar {
	return &Registrar{
		definitions: definitions,
		runtime:     runtime,
		logger:      logger,
	}
}

// Provider registers a provider for name. def is either a Provider, or a callable or struct
// type that is instantiated through the definition-time Resolver to produce one, so
// providers may depend on constants and other definitions.
func (r *Registrar) Provider(name string, def any) error {
	if err := checkReservedName(name); err != nil {
		return err
	}

	provider, ok := def.(Provider)
	if !ok {
		if !isCallable(def) {
			if _, isType := def.(reflect.Type); !isType {
				return newError(ErrMissingBuilder, name, "%T is neither a Provider nor a provider constructor", def)
			}
		}
		v, err := r.definitions.Instantiate(def, WithName(name+DefinitionSuffix))
		if err != nil {
			return err
		}
		if provider, ok = v.(Provider); !ok {
			return newError(ErrMissingBuilder, name, "%T does not provide a builder", v)
		}
	}

	r.store(&Definition{Name: name, Kind: KindProvider, provider: provider})
	return nil
}

// Factory registers fn as the builder of name. The result of fn must not be nil.
func (r *Registrar) Factory(name string, fn any) error {
	return r.RawFactory(name, fn, true)
}

// RawFactory registers fn as the builder of name. When enforceReturn is set a nil
// result fails the resolution with ErrUndefinedResult.
func (r *Registrar) RawFactory(name string, fn any, enforceReturn bool) error {
	if err := checkReservedName(name); err != nil {
		return err
	}
	if !isCallable(fn) {
		return newError(ErrBadArgument, name, "factory must be a function, got %T", fn)
	}
	r.store(&Definition{Name: name, Kind: KindFactory, recipe: fn, enforceReturn: enforceReturn})
	return nil
}

// Service registers ctor as the constructor of name. ctor is a constructor function or a
// struct type, and is passed to Instantiate when the service is first needed.
func (r *Registrar) Service(name string, ctor any) error {
	if err := checkReservedName(name); err != nil {
		return err
	}
	if _, ok := ctor.(reflect.Type); !ok && !isCallable(ctor) {
		return newError(ErrBadArgument, name, "service constructor must be a function or a struct type, got %T", ctor)
	}
	r.store(&Definition{Name: name, Kind: KindService, recipe: ctor, enforceReturn: true})
	return nil
}

// Value registers v as the value of name. Unlike a constant it is only visible at
// runtime, and it can be decorated.
func (r *Registrar) Value(name string, v any) error {
	if err := checkReservedName(name); err != nil {
		return err
	}
	r.store(&Definition{Name: name, Kind: KindValue, recipe: v})
	return nil
}

// Constant makes v available under name to both the definition-time and runtime
// Resolvers immediately. A constant cannot be decorated or redefined.
func (r *Registrar) Constant(name string, v any) error {
	if err := checkReservedName(name); err != nil {
		return err
	}
	if _, exists := r.definitions.cache[name]; exists {
		return newError(ErrReservedName, name, "already registered in the definition registry")
	}
	r.definitions.cache[name] = v
	r.runtime.cache[name] = v
	r.constants = append(r.constants, name)
	r.logger.Debug("registered", "kind", KindConstant, "name", name)
	return nil
}

// Decorator adds fn to the decorators of name. When the service is built fn is invoked
// with the current value available as DelegateLocal, and its result replaces the value.
// Decorators apply in the order they were added. The definition for name must already
// be registered; registering name again afterwards discards its decorators.
func (r *Registrar) Decorator(name string, fn any) error {
	if !isCallable(fn) {
		return newError(ErrBadArgument, name, "decorator must be a function, got %T", fn)
	}
	v, err := r.definitions.Get(name + DefinitionSuffix)
	if err != nil {
		return err
	}
	def, ok := v.(*Definition)
	if !ok {
		return newError(ErrMissingBuilder, name, "%s%s is not a definition", name, DefinitionSuffix)
	}
	def.decorators = append(def.decorators, fn)
	r.logger.Debug("decorated", "name", name, "decorators", len(def.decorators))
	return nil
}

// RegisterAll applies method once per entry, in sorted name order.
func (r *Registrar) RegisterAll(method string, entries map[string]any) error {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := r.dispatch(method, []any{name, entries[name]}); err != nil {
			return err
		}
	}
	return nil
}

// dispatch runs a queued registration. A single map argument is the mapping form.
func (r *Registrar) dispatch(method string, args []any) error {
	if len(args) == 1 {
		if entries, ok := args[0].(map[string]any); ok {
			return r.RegisterAll(method, entries)
		}
	}
	if len(args) != 2 {
		return newError(ErrBadArgument, method, "expected a name and a value, got %d arguments", len(args))
	}
	name, ok := args[0].(string)
	if !ok {
		return newError(ErrBadArgument, method, "name must be a string, got %T", args[0])
	}

	switch method {
	case MethodProvider:
		return r.Provider(name, args[1])
	case MethodFactory:
		return r.Factory(name, args[1])
	case MethodService:
		return r.Service(name, args[1])
	case MethodValue:
		return r.Value(name, args[1])
	case MethodConstant:
		return r.Constant(name, args[1])
	case MethodDecorator:
		return r.Decorator(name, args[1])
	}
	return newError(ErrBadArgument, method, "unknown registration method")
}

func (r *Registrar) store(def *Definition) {
	r.definitions.cache[def.Name+DefinitionSuffix] = def
	r.logger.Debug("registered", "kind", def.Kind, "name", def.Name)
}

func checkReservedName(name string) error {
	switch {
	case name == "":
		return newError(ErrReservedName, name, "service name must not be empty")
	case name == ContainerName, name == RegistrarName:
		return newError(ErrReservedName, name, "name is used by the container itself")
	case strings.HasSuffix(name, DefinitionSuffix):
		return newError(ErrReservedName, name, "names ending in %q identify definitions", DefinitionSuffix)
	}
	return nil
}

// isCallable reports whether v is one of the callable forms the container can invoke.
func isCallable(v any) bool {
	switch c := v.(type) {
	case *Annotated:
		if c == nil {
			return false
		}
		_, _, err := c.analyze()
		return err == nil
	case *Source:
		return c != nil && isFunc(c.Fn)
	}
	return isFunc(v)
}
