package injector

// Queue targets of an Invocation.
const (
	TargetRegistrar = RegistrarName
	TargetContainer = ContainerName
)

// Invocation is one queued call made while a module loads: Method of Target with Args.
// Registrations target the Registrar; configuration callables target the
// definition-time container with the method "invoke".
type Invocation struct {
	Target string
	Method string
	Args   []any
}

// MethodInvoke is the method of a configuration callable queued against the container.
const MethodInvoke = "invoke"

// Module describes a named unit of registrations. The container only reads modules; it
// never changes one while loading it.
//
// Registrations (Provider, Factory, Service, Value, Constant) run first when the module
// loads, in order, except that constants are moved ahead of the other registrations.
// Configuration entries (Config and Decorator) run next, in the order they were declared.
// Run callbacks run once after every module of the container has loaded.
type Module struct {
	Name     string
	Requires []string

	RegistrationQueue []Invocation
	ConfigQueue       []Invocation
	RunCallbacks      []any
}

// NewModule creates a module that requires the named modules.
func NewModule(name string, requires ...string) *Module {
	return &Module{
		Name:     name,
		Requires: requires,
	}
}

func (m *Module) register(method string, args ...any) *Module {
	m.RegistrationQueue = append(m.RegistrationQueue, Invocation{Target: TargetRegistrar, Method: method, Args: args})
	return m
}

// Provider queues Registrar.Provider.
func (m *Module) Provider(name string, def any) *Module {
	return m.register(MethodProvider, name, def)
}

// Factory queues Registrar.Factory.
func (m *Module) Factory(name string, fn any) *Module {
	return m.register(MethodFactory, name, fn)
}

// Service queues Registrar.Service.
func (m *Module) Service(name string, ctor any) *Module {
	return m.register(MethodService, name, ctor)
}

// Value queues Registrar.Value.
func (m *Module) Value(name string, v any) *Module {
	return m.register(MethodValue, name, v)
}

// Constant queues Registrar.Constant ahead of every other registration of the module.
func (m *Module) Constant(name string, v any) *Module {
	entry := Invocation{Target: TargetRegistrar, Method: MethodConstant, Args: []any{name, v}}
	m.RegistrationQueue = append([]Invocation{entry}, m.RegistrationQueue...)
	return m
}

// Register queues the mapping form of a registration method, e.g.
// Register(MethodValue, map[string]any{"a": 1, "b": 2}).
func (m *Module) Register(method string, entries map[string]any) *Module {
	if method == MethodDecorator {
		m.ConfigQueue = append(m.ConfigQueue, Invocation{Target: TargetRegistrar, Method: method, Args: []any{entries}})
		return m
	}
	return m.register(method, entries)
}

// Decorator queues Registrar.Decorator in the configuration queue, so it runs after all
// registrations of the module and interleaved with Config callables.
func (m *Module) Decorator(name string, fn any) *Module {
	m.ConfigQueue = append(m.ConfigQueue, Invocation{Target: TargetRegistrar, Method: MethodDecorator, Args: []any{name, fn}})
	return m
}

// Config queues a configuration callable, invoked through the definition-time container.
// It may depend on constants, definitions ("<name>Definition"), "registrar", and
// "container".
func (m *Module) Config(fn any) *Module {
	m.ConfigQueue = append(m.ConfigQueue, Invocation{Target: TargetContainer, Method: MethodInvoke, Args: []any{fn}})
	return m
}

// Run adds a callback that runs once through the runtime container after loading.
func (m *Module) Run(fn any) *Module {
	m.RunCallbacks = append(m.RunCallbacks, fn)
	return m
}

// ModuleRegistry supplies module descriptors to a Container.
type ModuleRegistry interface {
	Lookup(name string) (*Module, error)
}

// Modules is an in-memory ModuleRegistry.
type Modules struct {
	modules map[string]*Module
}

func NewModules() *Modules {
	return &Modules{modules: map[string]*Module{}}
}

// Module creates and registers a module, replacing any module of the same name.
func (m *Modules) Module(name string, requires ...string) *Module {
	mod := NewModule(name, requires...)
	m.modules[name] = mod
	return mod
}

// Add registers existing module descriptors.
func (m *Modules) Add(modules ...*Module) *Modules {
	for _, mod := range modules {
		m.modules[mod.Name] = mod
	}
	return m
}

func (m *Modules) Lookup(name string) (*Module, error) {
	mod, ok := m.modules[name]
	if !ok {
		return nil, newError(ErrModuleUnavailable, name, "module is not registered")
	}
	return mod, nil
}
