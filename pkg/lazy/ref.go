package lazy

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

// Ref is a lazily-resolved handle to a component. The zero value is not
// usable; create Refs with NewRef or Registry.Ref.
type Ref struct {
	name    string
	loader  Loader
	timeout time.Duration

	group    singleflight.Group
	mu       sync.RWMutex
	loaded   *Component
	attempts atomic.Int64
}

// RefOption configures a Ref.
type RefOption func(*Ref)

// WithTimeout bounds a single fetch. Zero means no bound beyond the
// loader's own.
func WithTimeout(d time.Duration) RefOption {
	return func(r *Ref) {
		r.timeout = d
	}
}

// NewRef creates a handle for name that loads through loader.
func NewRef(name string, loader Loader, opts ...RefOption) *Ref {
	r := &Ref{name: name, loader: loader}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the component identity.
func (r *Ref) Name() string { return r.name }

// String implements fmt.Stringer.
func (r *Ref) String() string { return r.name }

// Loaded reports whether the chunk has already been fetched.
func (r *Ref) Loaded() bool {
	return r.cached() != nil
}

// Attempts returns how many fetches have been started.
func (r *Ref) Attempts() int64 {
	return r.attempts.Load()
}

func (r *Ref) cached() *Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Load returns the component, fetching it on first use.
//
// Concurrent callers share one fetch. The fetch runs detached from any
// single caller's cancellation: a caller whose ctx ends gets ctx.Err()
// back immediately while the fetch completes for the others and is cached.
// Failures are returned as *LoadError and are not cached.
func (r *Ref) Load(ctx context.Context) (*Component, error) {
	if c := r.cached(); c != nil {
		return c, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := r.group.DoChan(r.name, func() (any, error) {
		if c := r.cached(); c != nil {
			return c, nil
		}
		return r.fetch(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Component), nil
	}
}

func (r *Ref) fetch(ctx context.Context) (*Component, error) {
	r.attempts.Inc()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	c, err := r.loader.Load(ctx, r.name)
	if err != nil {
		return nil, &LoadError{Name: r.name, Err: err}
	}
	if c == nil {
		return nil, &LoadError{Name: r.name, Err: ErrNilComponent}
	}

	r.mu.Lock()
	r.loaded = c
	r.mu.Unlock()
	return c, nil
}
