package injector

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestDependencyError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DependencyError
		want string
	}{
		{
			name: "kind only",
			err:  &DependencyError{Kind: ErrStrictMode},
			want: "strict mode violation",
		},
		{
			name: "name",
			err:  &DependencyError{Kind: ErrUnknownService, Name: "svc"},
			want: "unknown service: svc",
		},
		{
			name: "path wins over name",
			err:  &DependencyError{Kind: ErrCircularDependency, Name: "a", Path: []string{"a", "b", "a"}},
			want: "circular dependency: a -> b -> a",
		},
		{
			name: "message and source",
			err: &DependencyError{
				Kind:        ErrInvocationFailed,
				Message:     "builder",
				Name:        "svc",
				SourceError: errors.New("boom"),
			},
			want: "invocation failed: builder: svc (boom)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.Equal(t, tt.want, fmt.Sprintf("%v", tt.err))
			assert.Equal(t, tt.want, fmt.Sprintf("%s", tt.err))
		})
	}
}

func TestDependencyError_Is(t *testing.T) {
	source := errors.New("boom")
	err := error(&DependencyError{
		Kind:        ErrModuleLoad,
		Name:        "app",
		SourceError: newError(ErrReservedName, "", "service name must not be empty"),
	})
	wrapped := fmt.Errorf("boot: %w", &DependencyError{Kind: ErrInvocationFailed, SourceError: source})

	assert.ErrorIs(t, err, ErrModuleLoad)
	assert.ErrorIs(t, err, ErrReservedName)
	assert.NotErrorIs(t, err, ErrUnknownService)
	assert.ErrorIs(t, wrapped, ErrInvocationFailed)
	assert.ErrorIs(t, wrapped, source)
}

func TestDependencyError_FormatStack(t *testing.T) {
	err := &DependencyError{
		Kind:        ErrModuleLoad,
		Name:        "app",
		SourceError: pkgerrors.WithStack(errors.New("boom")),
	}

	plain := fmt.Sprintf("%v", err)
	detailed := fmt.Sprintf("%+v", err)

	assert.Equal(t, "module load error: app (boom)", plain)
	assert.Contains(t, detailed, plain)
	assert.Contains(t, detailed, "TestDependencyError_FormatStack")
	assert.Equal(t, `"module load error: app (boom)"`, fmt.Sprintf("%q", err))
}
