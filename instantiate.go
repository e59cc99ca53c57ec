package injector

import (
	"reflect"
	"strings"
)

// InjectTag is the struct tag naming the dependency a field is filled with when a struct
// type is passed to Instantiate or Registrar.Service:
//
//	type Greeter struct {
//	    Log    *log.Logger `inject:"logger"`
//	    Prefix string      `inject:"greetingPrefix"`
//	}
//
// An empty tag value uses the field name.
const InjectTag = "inject"

// PostConstructor can be implemented by a struct built from its type. PostConstruct is
// called after every tagged field has been injected; a non-nil error fails the
// instantiation.
type PostConstructor interface {
	PostConstruct() error
}

// construct allocates a new struct of type t and injects its tagged fields. A pointer
// type yields a pointer to the new struct and a struct type yields the struct value.
func (r *Resolver) construct(t reflect.Type, cfg *invokeConfig, res *resolution) (any, error) {
	structType := t
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return nil, newError(ErrBadArgument, t.String(), "only struct types can be instantiated from a type")
	}

	ptr := reflect.New(structType)
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		name, ok := field.Tag.Lookup(InjectTag)
		if !ok {
			continue
		}
		if !field.IsExported() {
			return nil, newError(ErrBadArgument, t.String(), "field %s is tagged for injection but not exported", field.Name)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = field.Name
		}

		v, err := r.lookup(name, cfg, res)
		if err != nil {
			return nil, err
		}
		arg, ok := assignArgument(v, field.Type)
		if !ok {
			return nil, newError(ErrBadArgument, t.String(), "dependency %q of type %T is not assignable to field %s %v",
				name, v, field.Name, field.Type)
		}
		ptr.Elem().Field(i).Set(arg)
	}

	if pc, ok := ptr.Interface().(PostConstructor); ok {
		if err := pc.PostConstruct(); err != nil {
			return nil, &DependencyError{
				Kind:        ErrInvocationFailed,
				Message:     "PostConstruct of " + t.String(),
				SourceError: err,
			}
		}
	}

	if t.Kind() == reflect.Pointer {
		return ptr.Interface(), nil
	}
	return ptr.Elem().Interface(), nil
}
