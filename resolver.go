package injector

import (
	"context"
	"reflect"
	"slices"

	"github.com/charmbracelet/log"
)

// Injector is the resolution surface shared by the definition-time Resolver, the
// runtime Resolver, and the Container. Callables that depend on "container" should
// declare that parameter as an Injector: a service being built receives a view that keeps
// resolving on the path of that build, so cycles through the container are detected.
type Injector interface {
	// Get returns the singleton registered under name, building it on first use.
	Get(name string) (any, error)
	// Invoke calls fn with its dependencies resolved and returns its result.
	Invoke(fn any, opts ...InvokeOption) (any, error)
	// Instantiate builds a new instance from a constructor function or a struct type.
	Instantiate(ctor any, opts ...InvokeOption) (any, error)
	// Has reports whether name is known, either already built or buildable.
	Has(name string) bool
}

// Locals are explicit values for dependency names that take precedence over the
// container for a single Invoke or Instantiate call.
type Locals map[string]any

type invokeConfig struct {
	self    any
	hasSelf bool
	locals  Locals
	name    string
}

// InvokeOption configures a single Invoke or Instantiate call.
type InvokeOption func(*invokeConfig)

// WithSelf passes self as the first argument of the callable, ahead of the resolved
// dependencies. This is how a method expression such as (*Server).Start is bound to its
// receiver.
func WithSelf(self any) InvokeOption {
	return func(c *invokeConfig) {
		c.self = self
		c.hasSelf = true
	}
}

// WithLocals supplies explicit values for some dependency names.
func WithLocals(locals Locals) InvokeOption {
	return func(c *invokeConfig) {
		c.locals = locals
	}
}

// WithName sets the name used for the callable in error messages.
func WithName(name string) InvokeOption {
	return func(c *invokeConfig) {
		c.name = name
	}
}

func newInvokeConfig(opts []InvokeOption) *invokeConfig {
	cfg := &invokeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// missingFunc builds the value for a name that is not in a Resolver's cache.
type missingFunc func(name string, res *resolution) (any, error)

// Resolver resolves names into singletons over its own cache. A Container runs two of
// them: the definition-time Resolver, whose cache holds definitions and constants, and
// the runtime Resolver, whose cache holds built services. They differ only in what
// happens when a name is not cached.
//
// A Resolver is not safe for concurrent use.
type Resolver struct {
	kind      string
	cache     map[string]any
	strict    bool
	missing   missingFunc
	canDefine func(name string) bool
	timingCtx context.Context
	logger    *log.Logger
}

func newResolver(kind string, strict bool, logger *log.Logger, timingCtx context.Context) *Resolver {
	r := &Resolver{
		kind:      kind,
		cache:     map[string]any{},
		strict:    strict,
		timingCtx: timingCtx,
		logger:    logger,
	}
	r.missing = func(name string, res *resolution) (any, error) {
		return nil, &DependencyError{
			Kind: ErrUnknownService,
			Name: name,
			Path: slices.Clone(res.path),
		}
	}
	return r
}

// Get returns the value registered under name, building and caching it on first use.
func (r *Resolver) Get(name string) (any, error) {
	return r.get(name, newResolution(r.timingCtx))
}

// Invoke calls fn, resolving each named dependency from locals or the Resolver.
func (r *Resolver) Invoke(fn any, opts ...InvokeOption) (any, error) {
	return r.invoke(fn, newInvokeConfig(opts), newResolution(r.timingCtx))
}

// Instantiate creates a new instance. A function is called like Invoke and its result is
// the instance. A reflect.Type of a struct, or of a pointer to one, is allocated and has
// its `inject` tagged fields filled; see PostConstructor.
func (r *Resolver) Instantiate(ctor any, opts ...InvokeOption) (any, error) {
	return r.instantiate(ctor, newInvokeConfig(opts), newResolution(r.timingCtx))
}

// Has reports whether name is cached or can be built.
func (r *Resolver) Has(name string) bool {
	if _, ok := r.cache[name]; ok {
		return true
	}
	return r.canDefine != nil && r.canDefine(name)
}

func (r *Resolver) get(name string, res *resolution) (any, error) {
	if v, ok := r.cache[name]; ok {
		return v, nil
	}

	leave, err := res.enter(name)
	if err != nil {
		return nil, err
	}
	defer leave()

	v, err := r.missing(name, res)
	if err != nil {
		return nil, err
	}
	r.cache[name] = v
	r.logger.Debug("resolved", "resolver", r.kind, "name", name)
	return v, nil
}

func (r *Resolver) instantiate(ctor any, cfg *invokeConfig, res *resolution) (any, error) {
	if t, ok := ctor.(reflect.Type); ok {
		return r.construct(t, cfg, res)
	}
	return r.invoke(ctor, cfg, res)
}

func (r *Resolver) invoke(fn any, cfg *invokeConfig, res *resolution) (any, error) {
	names, fv, err := annotate(fn, r.strict, cfg.name)
	if err != nil {
		return nil, err
	}
	display := describeCallable(fv, cfg.name)

	info := getFuncInfo(fv.Type())
	if info.variadic {
		return nil, newError(ErrBadArgument, display, "variadic functions cannot be invoked")
	}
	if !info.shapeOK {
		return nil, newError(ErrBadArgument, display, "results must be one of (), (T), (error) or (T, error)")
	}

	offset := 0
	if cfg.hasSelf {
		offset = 1
	}
	if len(names)+offset != len(info.params) {
		return nil, newError(ErrBadArgument, display, "function takes %d parameters but %d were annotated",
			len(info.params), len(names)+offset)
	}

	args := make([]reflect.Value, len(info.params))
	if cfg.hasSelf {
		arg, ok := assignArgument(cfg.self, info.params[0])
		if !ok {
			return nil, newError(ErrBadArgument, display, "self of type %T is not assignable to %v", cfg.self, info.params[0])
		}
		args[0] = arg
	}
	for i, name := range names {
		v, err := r.lookup(name, cfg, res)
		if err != nil {
			return nil, err
		}
		paramType := info.params[i+offset]
		arg, ok := assignArgument(v, paramType)
		if !ok {
			return nil, newError(ErrBadArgument, display, "dependency %q of type %T is not assignable to %v", name, v, paramType)
		}
		args[i+offset] = arg
	}

	out := fv.Call(args)

	if info.errorIndex >= 0 && !out[info.errorIndex].IsNil() {
		return nil, &DependencyError{
			Kind:        ErrInvocationFailed,
			Message:     display,
			Path:        slices.Clone(res.path),
			SourceError: out[info.errorIndex].Interface().(error),
		}
	}
	if info.valueIndex >= 0 {
		return out[info.valueIndex].Interface(), nil
	}
	return nil, nil
}

// lookup resolves one dependency, preferring an explicit local. While a build is in
// progress ContainerName resolves to a view of r that continues the current resolution, so
// services that resolve through the container stay on the same path.
func (r *Resolver) lookup(name string, cfg *invokeConfig, res *resolution) (any, error) {
	if local, ok := cfg.locals[name]; ok {
		return local, nil
	}
	if name == ContainerName && len(res.path) > 0 {
		if _, ok := r.cache[ContainerName]; ok {
			return r.scoped(res), nil
		}
	}
	return r.get(name, res)
}

// scopedInjector is an Injector bound to the resolution of the build that received it.
// Once that build has returned it behaves like the Resolver itself.
type scopedInjector struct {
	r     *Resolver
	res   *resolution
	owner string
	depth int
}

func (r *Resolver) scoped(res *resolution) *scopedInjector {
	return &scopedInjector{
		r:     r,
		res:   res,
		owner: res.path[len(res.path)-1],
		depth: len(res.path),
	}
}

// resolution returns the bound resolution while its build is still running, and a fresh
// one afterwards.
func (s *scopedInjector) resolution() *resolution {
	if len(s.res.path) >= s.depth && s.res.path[s.depth-1] == s.owner {
		return s.res
	}
	return newResolution(s.r.timingCtx)
}

func (s *scopedInjector) Get(name string) (any, error) {
	return s.r.get(name, s.resolution())
}

func (s *scopedInjector) Invoke(fn any, opts ...InvokeOption) (any, error) {
	return s.r.invoke(fn, newInvokeConfig(opts), s.resolution())
}

func (s *scopedInjector) Instantiate(ctor any, opts ...InvokeOption) (any, error) {
	return s.r.instantiate(ctor, newInvokeConfig(opts), s.resolution())
}

func (s *scopedInjector) Has(name string) bool {
	return s.r.Has(name)
}
