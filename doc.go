// Package injector provides a name-based dependency injection container that boots an
// application from modules. A module registers service definitions (providers,
// factories, services, values, constants), configures them, and contributes callbacks
// to run once everything is loaded.
//
// Loading happens in phases. For each module, after the modules it requires, every
// registration runs first, then every configuration entry in declaration order
// (configuration callables and decorators). When all modules are loaded the run
// callbacks execute against the runtime container, where services are built on first
// use and cached as singletons.
//
// Callables name their dependencies explicitly with Inject:
//
//	modules := injector.NewModules()
//	modules.Module("app").
//	    Constant("greeting", "hello").
//	    Factory("greeter", injector.Inject("greeting", func(g string) *Greeter {
//	        return &Greeter{Greeting: g}
//	    })).
//	    Run(injector.Inject("greeter", func(g *Greeter) { g.Greet() }))
//
//	c, err := injector.New(modules, []any{"app"})
//
// The Container type has comprehensive documentation about the phases, and Status
// describes the state of a booted container.
package injector
