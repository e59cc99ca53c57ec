package injector

import (
	"slices"

	"github.com/charmbracelet/log"
)

// Container boots an application from modules and resolves its services.
//
// Construction loads the requested modules (and everything they require) into the
// definition-time registry, then runs every collected run callback once. After that the
// Container is the runtime injector: Get builds services from their definitions on first
// use and caches them for the life of the Container. The Container is also available to
// services and run callbacks under ContainerName.
//
// A Container is not safe for concurrent use.
type Container struct {
	definitions *Resolver
	runtime     *Resolver
	registrar   *Registrar
	loader      *loader
	logger      *log.Logger
}

// New creates a Container from the modules in registry. Each entry of modules is either a
// module name or a callable inline module, which is invoked through the definition-time
// container and may return a run callback.
//
// New either returns a fully booted Container or an error; a Container is never
// returned partially initialized.
func New(registry ModuleRegistry, modules []any, opts ...Option) (*Container, error) {
	if registry == nil {
		return nil, newError(ErrConfiguration, "registry", "module registry must not be nil")
	}
	s := defaultSettings()
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	c := &Container{logger: s.logger}
	c.definitions = newResolver("definition", s.strict, s.logger, s.timingCtx)
	c.runtime = newResolver("runtime", s.strict, s.logger, s.timingCtx)
	c.runtime.missing = c.build
	c.runtime.canDefine = func(name string) bool {
		return c.definitions.Has(name + DefinitionSuffix)
	}
	c.registrar = newRegistrar(c.definitions, c.runtime, s.logger)

	c.definitions.cache[ContainerName] = c.definitions
	c.definitions.cache[RegistrarName] = c.registrar
	c.runtime.cache[ContainerName] = c

	c.loader = newLoader(registry, c.definitions, c.registrar, s.logger, s.detectCycles)

	if err := c.LoadMore(modules...); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadMore loads additional modules into a running Container and immediately runs the run
// callbacks they contribute. Modules that are already loaded are skipped. A module that
// failed to load keeps failing with the same error. When loading fails, the run callbacks
// of the modules that did load completely are kept and run by the next successful LoadMore.
func (c *Container) LoadMore(modules ...any) error {
	if err := c.loader.load(modules); err != nil {
		return err
	}
	runs := c.loader.takeRuns()

	c.logger.Debug("run phase", "callbacks", len(runs))
	for _, run := range runs {
		if _, err := c.runtime.Invoke(run); err != nil {
			return err
		}
	}
	return nil
}

// build is the runtime Resolver's fallback: it fetches the definition of name through the
// definition-time Resolver and builds it through the runtime Resolver, on the same
// resolution path.
func (c *Container) build(name string, res *resolution) (any, error) {
	v, err := c.definitions.get(name+DefinitionSuffix, res)
	if err != nil {
		return nil, err
	}
	def, ok := v.(*Definition)
	if !ok {
		return nil, newError(ErrMissingBuilder, name, "%s%s is not a definition", name, DefinitionSuffix)
	}
	c.logger.Debug("building", "name", name, "kind", def.Kind, "decorators", len(def.decorators))
	return def.build(c.runtime, res)
}

func (c *Container) Get(name string) (any, error) {
	return c.runtime.Get(name)
}

func (c *Container) Invoke(fn any, opts ...InvokeOption) (any, error) {
	return c.runtime.Invoke(fn, opts...)
}

func (c *Container) Instantiate(ctor any, opts ...InvokeOption) (any, error) {
	return c.runtime.Instantiate(ctor, opts...)
}

func (c *Container) Has(name string) bool {
	return c.runtime.Has(name)
}

// Definitions returns the definition-time Resolver.
func (c *Container) Definitions() *Resolver {
	return c.definitions
}

// Modules returns the names of the loaded modules in the order they finished loading.
func (c *Container) Modules() []string {
	return slices.Clone(c.loader.order)
}
