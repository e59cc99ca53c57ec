package injector

import (
	"reflect"
	"sync"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// funcInfo caches the reflection analysis of a callable's type.
type funcInfo struct {
	params   []reflect.Type
	variadic bool

	// valueIndex is the position of the non-error result, or -1 if there is none.
	valueIndex int
	// errorIndex is the position of the error result, or -1 if there is none.
	errorIndex int
	// shapeOK is false when the results are anything other than (), (T), (error) or (T, error).
	shapeOK bool
}

// Global type cache to avoid repeated reflection operations
var globalTypeCache sync.Map // map[reflect.Type]*funcInfo

// getFuncInfo returns cached information for a function type, computing it if necessary.
func getFuncInfo(t reflect.Type) *funcInfo {
	if cached, ok := globalTypeCache.Load(t); ok {
		return cached.(*funcInfo)
	}

	info := &funcInfo{
		params:     make([]reflect.Type, t.NumIn()),
		variadic:   t.IsVariadic(),
		valueIndex: -1,
		errorIndex: -1,
		shapeOK:    true,
	}
	for i := 0; i < t.NumIn(); i++ {
		info.params[i] = t.In(i)
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			info.errorIndex = 0
		} else {
			info.valueIndex = 0
		}
	case 2:
		if t.Out(1) == errorType && t.Out(0) != errorType {
			info.valueIndex = 0
			info.errorIndex = 1
		} else {
			info.shapeOK = false
		}
	default:
		info.shapeOK = false
	}

	actual, _ := globalTypeCache.LoadOrStore(t, info)
	return actual.(*funcInfo)
}

// assignArgument converts a resolved dependency into a value for a parameter of type t.
func assignArgument(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		return reflect.Zero(t), true
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, false
	}
	return rv, true
}

// isNil reports whether v is nil or a nil pointer, map, slice, func, chan or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// isFunc reports whether v is a non-nil function value.
func isFunc(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Func && !rv.IsNil()
}
