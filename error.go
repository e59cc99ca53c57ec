package injector

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error produced by the container is a *DependencyError whose Kind
// is one of these, so callers can test with errors.Is(err, injector.ErrUnknownService).
var (
	ErrConfiguration      = errors.New("invalid configuration")
	ErrBadArgument        = errors.New("bad argument")
	ErrStrictMode         = errors.New("strict mode violation")
	ErrReservedName       = errors.New("reserved name")
	ErrMissingBuilder     = errors.New("missing builder")
	ErrUndefinedResult    = errors.New("undefined result")
	ErrUnknownService     = errors.New("unknown service")
	ErrCircularDependency = errors.New("circular dependency")
	ErrInvocationFailed   = errors.New("invocation failed")
	ErrModuleLoad         = errors.New("module load error")
	ErrModuleUnavailable  = errors.New("module unavailable")
	ErrModuleCycle        = errors.New("module require cycle")
)

// pathSeparator joins the names of a resolution path in error messages.
const pathSeparator = " -> "

type DependencyError struct {
	Kind        error
	Message     string
	Name        string
	Path        []string
	SourceError error
}

func (e *DependencyError) Error() string {
	b := strings.Builder{}
	b.WriteString(e.Kind.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Path) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Path, pathSeparator))
	} else if e.Name != "" {
		b.WriteString(": ")
		b.WriteString(e.Name)
	}
	if e.SourceError != nil {
		b.WriteString(" (")
		b.WriteString(e.SourceError.Error())
		b.WriteString(")")
	}
	return b.String()
}

func (e *DependencyError) Unwrap() error {
	return e.SourceError
}

// Is reports whether target is the kind of this error.
func (e *DependencyError) Is(target error) bool {
	return e.Kind == target
}

// Format supports %+v, which appends the stack trace captured for module load errors.
func (e *DependencyError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprint(s, e.Error())
			if e.SourceError != nil {
				_, _ = fmt.Fprintf(s, "\n%+v", e.SourceError)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

func newError(kind error, name string, format string, args ...any) *DependencyError {
	return &DependencyError{
		Kind:    kind,
		Name:    name,
		Message: fmt.Sprintf(format, args...),
	}
}
