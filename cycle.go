package injector

import (
	"context"
	"slices"

	"github.com/gburgyan/go-timing"
)

// resolution carries the state of one top-level resolution call down the recursion. It
// is never stored on a Resolver, so independent calls each get their own path.
type resolution struct {
	path []string
	// ctx is the timing context builds are recorded under, or nil when timing is off.
	ctx context.Context
}

type unlocker func()

func newResolution(ctx context.Context) *resolution {
	return &resolution{ctx: ctx}
}

// enter pushes name onto the path. It fails if name is already being resolved further up
// the same call stack.
func (r *resolution) enter(name string) (unlocker, error) {
	if slices.Contains(r.path, name) {
		cycle := append(slices.Clone(r.path), name)
		return func() {}, &DependencyError{
			Kind: ErrCircularDependency,
			Name: name,
			Path: cycle,
		}
	}
	r.path = append(r.path, name)

	if r.ctx != nil {
		parent := r.ctx
		tctx, complete := timing.Start(parent, name)
		r.ctx = tctx
		return func() {
			complete()
			r.ctx = parent
			r.path = r.path[:len(r.path)-1]
		}, nil
	}

	return func() {
		r.path = r.path[:len(r.path)-1]
	}, nil
}
