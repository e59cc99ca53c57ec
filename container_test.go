package injector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gburgyan/go-timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	API string
}

func appender(suffix string) *Annotated {
	return Inject(DelegateLocal, func(a *testAPI) *testAPI {
		return &testAPI{API: a.API + suffix}
	})
}

type greeterProvider struct {
	salutation string
}

func (p *greeterProvider) Builder() any {
	return Inject("name", func(name string) string {
		return p.salutation + ", " + name
	})
}

type testService struct {
	Widget *testWidget `inject:"widget"`
	Label  string      `inject:""`
	Plain  int

	constructed bool
}

func (s *testService) PostConstruct() error {
	s.constructed = true
	return nil
}

func newTestContainer(t *testing.T, modules *Modules, entries []any, opts ...Option) *Container {
	t.Helper()
	c, err := New(modules, entries, opts...)
	require.NoError(t, err)
	return c
}

func TestContainer_Singleton(t *testing.T) {
	calls := 0
	modules := NewModules()
	modules.Module("m").Factory("widget", func() *testWidget {
		calls++
		return &testWidget{Val: 42}
	})
	c := newTestContainer(t, modules, []any{"m"})

	first, err := c.Get("widget")
	require.NoError(t, err)
	second, err := c.Get("widget")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestContainer_DecorationOrder(t *testing.T) {
	modules := NewModules()
	modules.Module("m").
		Factory("svc", func() *testAPI { return &testAPI{API: "base"} }).
		Decorator("svc", appender("-1")).
		Config(Inject(RegistrarName, func(reg *Registrar) error {
			return reg.Decorator("svc", appender("-2"))
		})).
		Decorator("svc", appender("-3"))
	c := newTestContainer(t, modules, []any{"m"})

	svc := Get[*testAPI](c, "svc")
	assert.Equal(t, "base-1-2-3", svc.API)
}

func TestContainer_LastRegistrationWins(t *testing.T) {
	modules := NewModules()
	modules.Module("m").
		Factory("x", func() *testAPI { return &testAPI{API: "first"} }).
		Factory("x", func() *testAPI { return &testAPI{API: "second"} }).
		Decorator("x", appender("-decorated"))
	c := newTestContainer(t, modules, []any{"m"})

	assert.Equal(t, "second-decorated", Get[*testAPI](c, "x").API)
}

func TestContainer_ReregistrationDiscardsDecorators(t *testing.T) {
	modules := NewModules()
	modules.Module("base").
		Factory("x", func() *testAPI { return &testAPI{API: "one"} }).
		Decorator("x", appender("-d"))
	modules.Module("override", "base").
		Factory("x", func() *testAPI { return &testAPI{API: "two"} })
	c := newTestContainer(t, modules, []any{"override"})

	assert.Equal(t, "two", Get[*testAPI](c, "x").API)
}

func TestContainer_DecoratorDeclaredBeforeFactory(t *testing.T) {
	modules := NewModules()
	modules.Module("m").
		Decorator("x", appender("-d")).
		Factory("x", func() *testAPI { return &testAPI{API: "x"} })
	c := newTestContainer(t, modules, []any{"m"})

	assert.Equal(t, "x-d", Get[*testAPI](c, "x").API)
}

func TestContainer_DecoratorForUnknownService(t *testing.T) {
	modules := NewModules()
	modules.Module("m").Decorator("ghost", appender("-d"))

	_, err := New(modules, []any{"m"})
	assert.ErrorIs(t, err, ErrModuleLoad)
	assert.ErrorIs(t, err, ErrUnknownService)
	assert.Contains(t, err.Error(), "ghostDefinition")
}

func TestContainer_CircularDependency(t *testing.T) {
	modules := NewModules()
	modules.Module("m").
		Factory("a", Inject("b", func(b any) any { return b })).
		Factory("b", Inject("a", func(a any) any { return a }))
	c := newTestContainer(t, modules, []any{"m"})

	_, err := c.Get("a")

	var depErr *DependencyError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, ErrCircularDependency, depErr.Kind)
	assert.Equal(t, []string{"a", "b", "a"}, depErr.Path)

	_, cached := c.runtime.cache["a"]
	assert.False(t, cached)
}

func TestContainer_UnknownService(t *testing.T) {
	c := newTestContainer(t, NewModules(), nil)

	_, err := c.Get("doesNotExist")

	require.ErrorIs(t, err, ErrUnknownService)
	assert.Contains(t, err.Error(), "doesNotExist")
	assert.False(t, c.Has("doesNotExist"))
}

func TestContainer_UnknownDependencyPath(t *testing.T) {
	modules := NewModules()
	modules.Module("m").Factory("svc", Inject("missing", func(m any) any { return m }))
	c := newTestContainer(t, modules, []any{"m"})

	_, err := c.Get("svc")

	var depErr *DependencyError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, []string{"svc", "missing", "missingDefinition"}, depErr.Path)
}

func TestContainer_FailureKeepsOtherSingletons(t *testing.T) {
	modules := NewModules()
	modules.Module("m").
		Factory("widget", func() *testWidget { return &testWidget{Val: 1} }).
		Factory("broken", Inject("widget", func(w *testWidget) (*testDoodad, error) {
			return nil, errors.New("expected error")
		}))
	c := newTestContainer(t, modules, []any{"m"})

	_, err := c.Get("broken")
	require.ErrorIs(t, err, ErrInvocationFailed)

	w1 := Get[*testWidget](c, "widget")
	w2 := Get[*testWidget](c, "widget")
	assert.Same(t, w1, w2)
}

func TestContainer_StrictMode(t *testing.T) {
	build := func(strict bool) (*Container, error) {
		modules := NewModules()
		modules.Module("m").
			Value("dep", "x").
			Factory("svc", FromSource("function(dep)", func(dep string) string { return dep }))
		return New(modules, []any{"m"}, WithStrict(strict))
	}

	strict, err := build(true)
	require.NoError(t, err)
	_, err = strict.Get("svc")
	assert.ErrorIs(t, err, ErrStrictMode)

	loose, err := build(false)
	require.NoError(t, err)
	v, err := loose.Get("svc")
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

func TestContainer_StrictModeConfigPhase(t *testing.T) {
	modules := NewModules()
	modules.Module("m").
		Constant("k", 1).
		Config(FromSource("function(k)", func(k int) {}))

	_, err := New(modules, []any{"m"}, WithStrict(true))
	assert.ErrorIs(t, err, ErrStrictMode)
	assert.ErrorIs(t, err, ErrModuleLoad)

	_, err = New(modules, []any{"m"}, WithStrict(false))
	assert.NoError(t, err)
}

func TestContainer_ConstantVisibility(t *testing.T) {
	modules := NewModules()
	modules.Module("m").Constant("k", 7)
	c := newTestContainer(t, modules, []any{"m"})

	v, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = c.Definitions().Get("k")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestContainer_ConstantsRegisterFirst(t *testing.T) {
	modules := NewModules()
	modules.Module("m").
		Provider("greeter", Inject("salutation", func(s string) *greeterProvider {
			return &greeterProvider{salutation: s}
		})).
		Constant("salutation", "Hello").
		Constant("name", "World")
	c := newTestContainer(t, modules, []any{"m"})

	assert.Equal(t, "Hello, World", Get[string](c, "greeter"))
}

func TestContainer_ProviderConfiguredInConfigPhase(t *testing.T) {
	modules := NewModules()
	modules.Module("m").
		Constant("name", "World").
		Provider("greeter", &greeterProvider{salutation: "Hello"}).
		Config(Inject("greeterDefinition", func(d *Definition) error {
			p, err := ProviderOf[*greeterProvider](d)
			if err != nil {
				return err
			}
			p.salutation = "Hi"
			return nil
		}))
	c := newTestContainer(t, modules, []any{"m"})

	assert.Equal(t, "Hi, World", Get[string](c, "greeter"))
}

func TestContainer_ServiceFromStructType(t *testing.T) {
	modules := NewModules()
	modules.Module("m").
		Factory("widget", func() *testWidget { return &testWidget{Val: 3} }).
		Value("Label", "labelled").
		Service("svc", reflect.TypeFor[*testService]())
	c := newTestContainer(t, modules, []any{"m"})

	svc := Get[*testService](c, "svc")
	assert.Equal(t, 3, svc.Widget.Val)
	assert.Equal(t, "labelled", svc.Label)
	assert.Equal(t, 0, svc.Plain)
	assert.True(t, svc.constructed)
	assert.Same(t, svc, Get[*testService](c, "svc"))
}

func TestContainer_ServiceFromConstructor(t *testing.T) {
	modules := NewModules()
	modules.Module("m").
		Factory("widget", func() *testWidget { return &testWidget{Val: 3} }).
		Service("doodad", Inject("widget", func(w *testWidget) *testDoodad {
			return &testDoodad{Widget: w, Label: "made"}
		}))
	c := newTestContainer(t, modules, []any{"m"})

	d := Get[*testDoodad](c, "doodad")
	assert.Equal(t, "made", d.Label)
	assert.Same(t, Get[*testWidget](c, "widget"), d.Widget)
}

func TestContainer_UndefinedResult(t *testing.T) {
	modules := NewModules()
	modules.Module("m").
		Factory("nothing", func() any { return nil }).
		Value("nilValue", nil)
	c := newTestContainer(t, modules, []any{"m"})

	_, err := c.Get("nothing")
	assert.ErrorIs(t, err, ErrUndefinedResult)

	v, err := c.Get("nilValue")
	assert.NoError(t, err)
	assert.Nil(t, v)
	assert.True(t, c.Has("nilValue"))
}

func TestContainer_ModuleIdempotence(t *testing.T) {
	registrations, configs, runs := 0, 0, 0
	modules := NewModules()
	modules.Module("m").
		Provider("p", func() *greeterProvider {
			registrations++
			return &greeterProvider{}
		}).
		Config(func() { configs++ }).
		Run(func() { runs++ })

	c := newTestContainer(t, modules, []any{"m", "m"})
	assert.Equal(t, 1, registrations)
	assert.Equal(t, 1, configs)
	assert.Equal(t, 1, runs)

	require.NoError(t, c.LoadMore("m"))
	assert.Equal(t, 1, registrations)
	assert.Equal(t, 1, runs)
}

func TestContainer_LoadOrder(t *testing.T) {
	var events []string
	record := func(event string) func() {
		return func() { events = append(events, event) }
	}
	modules := NewModules()
	modules.Module("core").
		Config(record("core config")).
		Run(record("core run"))
	modules.Module("app", "core").
		Provider("p", func() *greeterProvider {
			events = append(events, "app registration")
			return &greeterProvider{}
		}).
		Config(record("app config")).
		Run(record("app run"))
	modules.Module("other").
		Config(record("other config"))

	c := newTestContainer(t, modules, []any{"app", "other"})

	assert.Equal(t, []string{
		"core config",
		"app registration",
		"app config",
		"other config",
		"core run",
		"app run",
	}, events)
	assert.Equal(t, []string{"core", "app", "other"}, c.Modules())
}

func TestContainer_RunCallbacksSeeAllModules(t *testing.T) {
	modules := NewModules()
	modules.Module("a").Run(Inject("fromB", func(v string) error {
		if v != "b" {
			return fmt.Errorf("unexpected %q", v)
		}
		return nil
	}))
	modules.Module("b").Value("fromB", "b")

	newTestContainer(t, modules, []any{"a", "b"})
}

func TestContainer_RunCallbackError(t *testing.T) {
	modules := NewModules()
	modules.Module("m").Run(func() error { return errors.New("expected error") })

	c, err := New(modules, []any{"m"})
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrInvocationFailed)
	assert.NotErrorIs(t, err, ErrModuleLoad)
}

func TestContainer_InlineModule(t *testing.T) {
	ran := false
	modules := NewModules()
	c := newTestContainer(t, modules, []any{
		Inject(RegistrarName, func(reg *Registrar) (any, error) {
			return func() { ran = true }, reg.Value("inline", 1)
		}),
	})

	assert.True(t, ran)
	assert.Equal(t, 1, Get[int](c, "inline"))
}

func TestContainer_BadModuleEntry(t *testing.T) {
	_, err := New(NewModules(), []any{42})

	assert.ErrorIs(t, err, ErrModuleLoad)
	assert.ErrorIs(t, err, ErrBadArgument)
}

func TestContainer_ModuleLoadError(t *testing.T) {
	modules := NewModules()
	modules.Module("core").Factory("", func() int { return 1 })
	modules.Module("app", "core")

	_, err := New(modules, []any{"app"})

	require.ErrorIs(t, err, ErrModuleLoad)
	assert.ErrorIs(t, err, ErrReservedName)
	assert.Contains(t, err.Error(), "app")
	assert.Contains(t, err.Error(), "core")

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "moduleError")
}

func TestContainer_ModuleUnavailable(t *testing.T) {
	_, err := New(NewModules(), []any{"missing"})

	assert.ErrorIs(t, err, ErrModuleLoad)
	assert.ErrorIs(t, err, ErrModuleUnavailable)
	assert.Contains(t, err.Error(), "missing")
}

func TestContainer_ModuleCycle(t *testing.T) {
	modules := NewModules()
	modules.Module("a", "b").Value("a", 1)
	modules.Module("b", "a").Value("b", 2)

	c := newTestContainer(t, modules, []any{"a"})
	assert.Equal(t, []string{"b", "a"}, c.Modules())

	_, err := New(modules, []any{"a"}, WithModuleCycleDetection(true))
	require.ErrorIs(t, err, ErrModuleCycle)
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestContainer_LoadMore(t *testing.T) {
	modules := NewModules()
	modules.Module("base").Value("base", "b")
	modules.Module("extra", "base").
		Factory("extra", Inject("base", func(b string) string { return b + "+extra" })).
		Run(Inject("extra", func(e string) {}))
	c := newTestContainer(t, modules, []any{"base"})

	assert.False(t, c.Has("extra"))
	require.NoError(t, c.LoadMore("extra"))

	assert.True(t, c.Has("extra"))
	assert.Equal(t, "b+extra", Get[string](c, "extra"))
	assert.Equal(t, []string{"base", "extra"}, c.Modules())
}

func TestContainer_InjectsItself(t *testing.T) {
	var configInjector, runInjector Injector
	modules := NewModules()
	modules.Module("m").
		Config(Inject(ContainerName, func(inj Injector) { configInjector = inj })).
		Run(Inject(ContainerName, func(inj Injector) { runInjector = inj }))
	c := newTestContainer(t, modules, []any{"m"})

	assert.Same(t, c.Definitions(), configInjector)
	assert.Same(t, c, runInjector)
	assert.True(t, c.Has(ContainerName))
	assert.False(t, c.Has(RegistrarName))
}

func TestContainer_Has(t *testing.T) {
	modules := NewModules()
	modules.Module("m").Factory("svc", func() int { return 1 })
	c := newTestContainer(t, modules, []any{"m"})

	assert.True(t, c.Has("svc"))
	assert.True(t, c.Definitions().Has("svcDefinition"))
	assert.False(t, c.Definitions().Has("svc"))
	assert.False(t, c.Has("nope"))
}

func TestContainer_Configuration(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = New(NewModules(), nil, WithLogger(nil))
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = New(NewModules(), nil, WithTiming(nil))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestContainer_Logging(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := log.NewWithOptions(buf, log.Options{Level: log.DebugLevel})
	modules := NewModules()
	modules.Module("m").Factory("svc", func() int { return 1 })

	c := newTestContainer(t, modules, []any{"m"}, WithLogger(logger))
	_, err := c.Get("svc")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "loading module")
	assert.Contains(t, out, "building")
}

func TestContainer_Timing(t *testing.T) {
	root := timing.Root(context.Background())
	modules := NewModules()
	modules.Module("m").
		Factory("inner", func() int { return 1 }).
		Factory("outer", Inject("inner", func(i int) int { return i + 1 }))

	c := newTestContainer(t, modules, []any{"m"}, WithTiming(root))
	assert.Equal(t, 2, Get[int](c, "outer"))

	report := root.String()
	assert.Contains(t, report, "outer")
	assert.Contains(t, report, "inner")
}

type selfReferencingService struct {
	Self *selfReferencingService `inject:"svc"`
}

func TestContainer_CycleThroughContainer(t *testing.T) {
	modules := NewModules()
	modules.Module("m").
		Factory("a", Inject(ContainerName, func(inj Injector) (any, error) {
			return inj.Get("b")
		})).
		Factory("b", Inject("a", func(a any) any { return a }))
	c := newTestContainer(t, modules, []any{"m"})

	_, err := c.Get("a")

	require.ErrorIs(t, err, ErrCircularDependency)
	assert.Contains(t, err.Error(), "a -> b -> a")

	_, cached := c.runtime.cache["a"]
	assert.False(t, cached)
}

func TestContainer_CycleThroughContainerInstantiate(t *testing.T) {
	modules := NewModules()
	modules.Module("m").
		Factory("svc", Inject(ContainerName, func(inj Injector) (any, error) {
			return inj.Instantiate(reflect.TypeFor[*selfReferencingService]())
		}))
	c := newTestContainer(t, modules, []any{"m"})

	_, err := c.Get("svc")

	require.ErrorIs(t, err, ErrCircularDependency)
	assert.Contains(t, err.Error(), "svc -> svc")
}

func TestContainer_InjectorDuringBuild(t *testing.T) {
	var kept Injector
	modules := NewModules()
	modules.Module("m").
		Value("widget", &testWidget{Val: 4}).
		Factory("doodad", Inject(ContainerName, func(inj Injector) (*testDoodad, error) {
			kept = inj
			w, err := GetWithError[*testWidget](inj, "widget")
			if err != nil {
				return nil, err
			}
			return &testDoodad{Widget: w}, nil
		})).
		Factory("late", func() string { return "late" })
	c := newTestContainer(t, modules, []any{"m"})

	d := Get[*testDoodad](c, "doodad")
	assert.Equal(t, 4, d.Widget.Val)
	assert.True(t, kept.Has("late"))

	// Once the build has returned the injector starts a new path for each call.
	v, err := kept.Get("late")
	require.NoError(t, err)
	assert.Equal(t, "late", v)
	_, err = kept.Get("doodad")
	assert.NoError(t, err)
}

func TestContainer_LoadMoreAfterFailure(t *testing.T) {
	runs := 0
	modules := NewModules()
	modules.Module("extra").
		Value("v", 1).
		Config(func() error { return errors.New("expected error") }).
		Run(func() { runs++ })
	modules.Module("dependent", "extra")
	c := newTestContainer(t, modules, nil)

	first := c.LoadMore("extra")
	require.ErrorIs(t, first, ErrModuleLoad)
	assert.ErrorIs(t, first, ErrInvocationFailed)

	second := c.LoadMore("extra")
	require.ErrorIs(t, second, ErrModuleLoad)
	assert.ErrorIs(t, second, ErrInvocationFailed)
	assert.Contains(t, second.Error(), "extra")

	third := c.LoadMore("dependent")
	assert.ErrorIs(t, third, ErrInvocationFailed)
	assert.ErrorIs(t, c.LoadMore("dependent"), ErrInvocationFailed)

	assert.Equal(t, 0, runs)
	assert.Empty(t, c.Modules())
}

func TestContainer_LoadMoreKeepsRunsOfLoadedModules(t *testing.T) {
	var events []string
	modules := NewModules()
	modules.Module("good").Run(func() { events = append(events, "good run") })
	modules.Module("bad").Config(func() error { return errors.New("expected error") })
	modules.Module("later").Run(func() { events = append(events, "later run") })
	c := newTestContainer(t, modules, nil)

	require.Error(t, c.LoadMore("good", "bad"))
	assert.Empty(t, events)

	require.NoError(t, c.LoadMore("good", "later"))
	assert.Equal(t, []string{"good run", "later run"}, events)

	require.NoError(t, c.LoadMore("good"))
	assert.Len(t, events, 2)
}
