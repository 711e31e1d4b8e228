package lazy

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Registry hands out one Ref per component name, all bound to the same
// loader.
type Registry struct {
	loader  Loader
	timeout time.Duration
	logger  *slog.Logger

	mu   sync.Mutex
	refs map[string]*Ref
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLoadTimeout bounds every fetch made through the registry.
func WithLoadTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.timeout = d
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a registry over loader.
func NewRegistry(loader Loader, opts ...RegistryOption) *Registry {
	r := &Registry{
		loader: loader,
		logger: slog.Default(),
		refs:   make(map[string]*Ref),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ref returns the handle for name, creating it on first use. It never
// loads anything.
func (r *Registry) Ref(name string) *Ref {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ref, ok := r.refs[name]; ok {
		return ref
	}
	ref := NewRef(name, r.loader, WithTimeout(r.timeout))
	r.refs[name] = ref
	return ref
}

// Names returns every registered component name, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.refs))
	for name := range r.refs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preload fetches the named components concurrently, or every registered
// component when names is empty. Every load settles before it returns; a
// failure does not cancel the others. It returns the first failure.
func (r *Registry) Preload(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		names = r.Names()
	}
	var g errgroup.Group
	for _, name := range names {
		ref := r.Ref(name)
		g.Go(func() error {
			start := time.Now()
			if _, err := ref.Load(ctx); err != nil {
				r.logger.Warn("preload failed", "component", ref.Name(), "err", err)
				return err
			}
			r.logger.Debug("preloaded", "component", ref.Name(), "duration", time.Since(start))
			return nil
		})
	}
	return g.Wait()
}
