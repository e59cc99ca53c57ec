package injector

import (
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

// Annotated is a callable paired with the names of the dependencies to pass to it, in
// parameter order. Create one with Inject.
type Annotated struct {
	parts []any

	analyzed bool
	names    []string
	fn       any
	err      error
}

// Inject annotates a callable with the names of its dependencies. The leading parts are
// the dependency names and the final part is the function to call:
//
//	Inject("logger", "config", func(l *Logger, c *Config) *Server { ... })
//
// The parts are validated the first time the container uses the annotation.
func Inject(parts ...any) *Annotated {
	return &Annotated{parts: parts}
}

// Names returns the dependency names of the annotation, or nil if it is malformed.
func (a *Annotated) Names() []string {
	names, _, err := a.analyze()
	if err != nil {
		return nil
	}
	return names
}

func (a *Annotated) analyze() ([]string, any, error) {
	if a.analyzed {
		return a.names, a.fn, a.err
	}
	a.analyzed = true

	if len(a.parts) == 0 {
		a.err = newError(ErrBadArgument, "", "annotation is empty")
		return nil, nil, a.err
	}
	last := a.parts[len(a.parts)-1]
	if !isFunc(last) {
		a.err = newError(ErrBadArgument, "", "last element of an annotation must be a non-nil function, got %T", last)
		return nil, nil, a.err
	}
	names := make([]string, 0, len(a.parts)-1)
	for i, p := range a.parts[:len(a.parts)-1] {
		name, ok := p.(string)
		if !ok {
			a.err = newError(ErrBadArgument, "", "annotation element %d must be a dependency name, got %T", i, p)
			return nil, nil, a.err
		}
		names = append(names, name)
	}
	a.names = names
	a.fn = last
	return a.names, a.fn, nil
}

// Source pairs a callable with the text of its signature, from which dependency names are
// parsed when strict mode is off. This is a compatibility form for definitions that come
// from generated or scripted code; Inject is the primary way to annotate a callable.
//
// The parsed names are cached on the Source, so changing Text after first use has no effect.
type Source struct {
	Text string
	Fn   any

	cached bool
	names  []string
}

// FromSource creates a Source for fn with the given signature text, for example
// "function(logger, config)", "(logger, config) => ..." or "func(logger *Logger, config Config)".
func FromSource(text string, fn any) *Source {
	return &Source{Text: text, Fn: fn}
}

var (
	stripComments = regexp.MustCompile(`(?m)(//.*$)|(/\*[\s\S]*?\*/)`)
	arrowArgs     = regexp.MustCompile(`^([^(]+?)=>`)
	fnArgs        = regexp.MustCompile(`(?m)^[^(]*\(\s*([^)]*)\)`)
	anonymousFunc = regexp.MustCompile(`\.func\d+(\.\d+)*$`)
)

// annotate returns the dependency names of a callable together with the function to call.
func annotate(callable any, strict bool, displayName string) ([]string, reflect.Value, error) {
	switch c := callable.(type) {
	case *Annotated:
		names, fn, err := c.analyze()
		if err != nil {
			return nil, reflect.Value{}, err
		}
		return names, reflect.ValueOf(fn), nil

	case *Source:
		fn := reflect.ValueOf(c.Fn)
		if !isFunc(c.Fn) {
			return nil, reflect.Value{}, newError(ErrBadArgument, displayName, "source annotation requires a function, got %T", c.Fn)
		}
		if c.cached {
			return c.names, fn, nil
		}
		if fn.Type().NumIn() == 0 {
			return nil, fn, nil
		}
		if strict {
			return nil, reflect.Value{}, strictViolation(fn, displayName)
		}
		c.names = parseSourceNames(c.Text)
		c.cached = true
		return c.names, fn, nil

	default:
		fn := reflect.ValueOf(callable)
		if !isFunc(callable) {
			return nil, reflect.Value{}, newError(ErrBadArgument, displayName, "expected a function, got %T", callable)
		}
		if fn.Type().NumIn() == 0 {
			return nil, fn, nil
		}
		if strict {
			return nil, reflect.Value{}, strictViolation(fn, displayName)
		}
		return nil, reflect.Value{}, newError(ErrBadArgument, describeCallable(fn, displayName),
			"dependency names of a function with parameters must be given with Inject or FromSource")
	}
}

func strictViolation(fn reflect.Value, displayName string) error {
	return newError(ErrStrictMode, describeCallable(fn, displayName),
		"function uses implicit annotation and cannot be invoked in strict mode")
}

// parseSourceNames extracts parameter names from the text of a function signature.
func parseSourceNames(text string) []string {
	text = stripComments.ReplaceAllString(text, "")
	m := arrowArgs.FindStringSubmatch(text)
	if m == nil {
		m = fnArgs.FindStringSubmatch(text)
	}
	if m == nil {
		return nil
	}

	var names []string
	for _, token := range strings.Split(m[1], ",") {
		fields := strings.Fields(strings.Trim(token, "() \t\r\n"))
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		// _name_ refers to name; the underscores let the source shadow an outer binding.
		if len(name) > 2 && strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_") {
			name = name[1 : len(name)-1]
		}
		names = append(names, name)
	}
	return names
}

// describeCallable names a callable for error messages: the display name if one was
// given, the function's symbol if it has one, otherwise its signature.
func describeCallable(fn reflect.Value, displayName string) string {
	if displayName != "" {
		return displayName
	}
	if f := runtime.FuncForPC(fn.Pointer()); f != nil {
		name := f.Name()
		if name != "" && !anonymousFunc.MatchString(name) {
			return name
		}
	}
	return formatSignature(fn.Type())
}

// formatSignature renders a function type without the noise of `%#v`.
func formatSignature(t reflect.Type) string {
	b := strings.Builder{}
	b.WriteString("func(")
	for i := 0; i < t.NumIn(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.In(i).String())
	}
	b.WriteString(")")
	switch t.NumOut() {
	case 0:
	case 1:
		b.WriteString(" ")
		b.WriteString(t.Out(0).String())
	default:
		b.WriteString(" (")
		for i := 0; i < t.NumOut(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(t.Out(i).String())
		}
		b.WriteString(")")
	}
	return b.String()
}
