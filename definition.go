package injector

import (
	"fmt"
)

// Kind identifies how a Definition builds its service.
type Kind int

const (
	KindProvider Kind = iota
	KindFactory
	KindService
	KindValue
	KindConstant
)

func (k Kind) String() string {
	switch k {
	case KindProvider:
		return "provider"
	case KindFactory:
		return "factory"
	case KindService:
		return "service"
	case KindValue:
		return "value"
	case KindConstant:
		return "constant"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Provider is a definition-time object that knows how to build a service. It is created
// during registration, may be configured by configuration callables, and Builder is asked
// for the build callable only when the service is first needed at runtime.
//
// The callable returned by Builder is invoked through the runtime container, so it may
// be annotated with Inject to receive dependencies.
type Provider interface {
	Builder() any
}

// Definition is the stored recipe for one named service. It lives in the definition-time
// Resolver under the service name plus DefinitionSuffix, so configuration callables can
// depend on it, for example "greeterDefinition".
type Definition struct {
	Name string
	Kind Kind

	provider      Provider
	recipe        any
	enforceReturn bool
	// decorators are applied in declaration order each time the service is built.
	decorators []any
}

// Provider returns the provider object of a KindProvider definition, nil for other kinds.
func (d *Definition) Provider() Provider {
	return d.provider
}

// Decorators returns the number of decorators applied to the service.
func (d *Definition) Decorators() int {
	return len(d.decorators)
}

// build produces the service through the runtime Resolver and applies the decorators.
func (d *Definition) build(runtime *Resolver, res *resolution) (any, error) {
	var value any
	var err error

	cfg := &invokeConfig{name: d.Name}
	switch d.Kind {
	case KindProvider:
		builder := d.provider.Builder()
		if builder == nil {
			return nil, newError(ErrMissingBuilder, d.Name, "provider %T returned no builder", d.provider)
		}
		value, err = runtime.invoke(builder, cfg, res)
	case KindFactory:
		value, err = runtime.invoke(d.recipe, cfg, res)
	case KindService:
		value, err = runtime.instantiate(d.recipe, cfg, res)
	case KindValue:
		value = d.recipe
	default:
		return nil, newError(ErrMissingBuilder, d.Name, "%v definitions cannot be built", d.Kind)
	}
	if err != nil {
		return nil, err
	}
	if d.enforceReturn && isNil(value) {
		return nil, newError(ErrUndefinedResult, d.Name, "%s must return a value", d.Kind)
	}

	for i, decorator := range d.decorators {
		value, err = runtime.invoke(decorator, &invokeConfig{
			name:   fmt.Sprintf("%s decorator %d", d.Name, i+1),
			locals: Locals{DelegateLocal: value},
		}, res)
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}
