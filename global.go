package injector

import (
	"reflect"
)

// Get returns the service name from inj as a T. It panics if the service cannot be
// resolved or is not a T; use GetWithError where failure is expected.
func Get[T any](inj Injector, name string) T {
	v, err := GetWithError[T](inj, name)
	if err != nil {
		panic(err)
	}
	return v
}

// GetWithError returns the service name from inj as a T.
func GetWithError[T any](inj Injector, name string) (T, error) {
	var zero T
	v, err := inj.Get(name)
	if err != nil {
		return zero, err
	}
	return as[T](v, name)
}

// Invoke calls fn through inj and returns its result as a T.
func Invoke[T any](inj Injector, fn any, opts ...InvokeOption) (T, error) {
	var zero T
	v, err := inj.Invoke(fn, opts...)
	if err != nil {
		return zero, err
	}
	return as[T](v, "invoke result")
}

// ProviderOf returns the provider object behind a definition as a T. It is meant for
// configuration callables that depend on "<name>Definition":
//
//	module.Config(injector.Inject("greeterDefinition", func(d *injector.Definition) error {
//	    p, err := injector.ProviderOf[*GreeterProvider](d)
//	    ...
//	}))
func ProviderOf[T Provider](def *Definition) (T, error) {
	var zero T
	if def == nil || def.provider == nil {
		return zero, newError(ErrMissingBuilder, "", "definition has no provider")
	}
	p, ok := def.provider.(T)
	if !ok {
		return zero, newError(ErrBadArgument, def.Name, "provider is %T, not %v", def.provider, typeOf[T]())
	}
	return p, nil
}

func as[T any](v any, name string) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, newError(ErrBadArgument, name, "resolved to %T, not %v", v, typeOf[T]())
	}
	return typed, nil
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
