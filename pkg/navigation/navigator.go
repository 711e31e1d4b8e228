package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/routetable/pkg/lazy"
	"github.com/vango-dev/routetable/pkg/router"
)

// Navigator drives navigations against a table and tracks what is
// currently mounted. It is safe for concurrent use; when navigations
// overlap, the last one started wins.
type Navigator struct {
	table   *router.Table
	logger  *slog.Logger
	onMount func(*Mount)

	// gen is bumped by every navigation. Only the navigation holding the
	// latest generation may commit.
	gen atomic.Uint64

	mu         sync.Mutex
	middleware []Middleware
	cancel     context.CancelFunc
	cancelGen  uint64
	current    *Mount
}

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithLogger sets the navigator logger.
func WithLogger(logger *slog.Logger) NavigatorOption {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// OnMount registers fn to be called with every committed mount, in commit
// order. fn runs while the navigator is locked and must not call back into it.
func OnMount(fn func(*Mount)) NavigatorOption {
	return func(n *Navigator) {
		n.onMount = fn
	}
}

// WithMiddleware installs middleware, as Use does.
func WithMiddleware(mw ...Middleware) NavigatorOption {
	return func(n *Navigator) {
		n.middleware = append(n.middleware, mw...)
	}
}

// New creates a navigator over table. Nothing is mounted until the first
// successful Navigate.
func New(table *router.Table, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		table:  table,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Use appends middleware to the chain wrapping Navigate.
func (n *Navigator) Use(mw ...Middleware) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.middleware = append(n.middleware, mw...)
}

// Table returns the table the navigator resolves against.
func (n *Navigator) Table() *router.Table {
	return n.table
}

// Current returns the mounted state, or nil before the first navigation
// settles.
func (n *Navigator) Current() *Mount {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Generation returns the number of navigations started so far.
func (n *Navigator) Generation() uint64 {
	return n.gen.Load()
}

// Navigate resolves path, loads its components and mounts them.
//
// A miss (or a cut-off redirect chase) settles with StatusNotFound and
// mounts the not-found state. A failed component load returns an error
// wrapping *lazy.LoadError and keeps the previous mount. A navigation
// overtaken by a newer one returns ErrSuperseded.
func (n *Navigator) Navigate(ctx context.Context, path string, opts ...Option) (*Outcome, error) {
	req := &Request{
		ID:      uuid.NewString(),
		Path:    path,
		Started: time.Now(),
	}
	for _, opt := range opts {
		opt(&req.Options)
	}

	n.mu.Lock()
	mw := append([]Middleware(nil), n.middleware...)
	n.mu.Unlock()

	return Compose(mw, n.navigate)(ctx, req)
}

func (n *Navigator) navigate(ctx context.Context, req *Request) (*Outcome, error) {
	ctx, gen := n.begin(ctx)
	defer n.end(gen)

	log := n.logger.With("id", req.ID, "path", req.Path)

	chase := n.table.Chase(req.Target())
	out := &Outcome{
		ID:        req.ID,
		Requested: req.Path,
		Path:      chase.Result.Path,
		Trail:     chase.Trail,
		Redirects: chase.Redirects,
	}
	mount := &Mount{
		ID:        req.ID,
		Requested: req.Path,
		Path:      chase.Result.Path,
		Query:     chase.Result.Query,
		Fragment:  chase.Result.Fragment,
		Route:     chase.Result.Route,
		Trail:     chase.Trail,
		Params:    chase.Result.Params,
		Replace:   req.Options.Replace || chase.Redirects > 0,
	}

	if chase.Result.Kind != router.KindMatch {
		if chase.Err != nil {
			log.Error("redirect chase cut off, presenting as not found", "trail", chase.Trail, "err", chase.Err)
			out.Cause = chase.Err
		}
		mount.Status = StatusNotFound
		return n.commit(gen, req, out, mount)
	}

	comps, err := n.load(ctx, chase.Result.Layers)
	if err != nil {
		if n.gen.Load() != gen {
			log.Debug("navigation superseded during load")
			return nil, ErrSuperseded
		}
		var le *lazy.LoadError
		if errors.As(err, &le) {
			log.Warn("component load failed, keeping previous mount", "component", le.Name, "err", le.Err)
		}
		return nil, fmt.Errorf("navigate %s: %w", req.Path, err)
	}

	mount.Status = StatusMounted
	mount.Layers = chase.Result.Layers
	mount.Components = comps
	return n.commit(gen, req, out, mount)
}

// begin claims a new generation and cancels the navigation in flight.
func (n *Navigator) begin(ctx context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
	}
	gen := n.gen.Inc()
	n.cancel = cancel
	n.cancelGen = gen
	return ctx, gen
}

func (n *Navigator) end(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancelGen == gen && n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}

// load fetches every layer's component concurrently.
func (n *Navigator) load(ctx context.Context, layers []router.Layer) ([]*lazy.Component, error) {
	comps := make([]*lazy.Component, len(layers))
	g, gctx := errgroup.WithContext(ctx)
	for i, l := range layers {
		g.Go(func() error {
			c, err := l.Component.Load(gctx)
			if err != nil {
				return err
			}
			comps[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return comps, nil
}

func (n *Navigator) commit(gen uint64, req *Request, out *Outcome, mount *Mount) (*Outcome, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.gen.Load() != gen {
		return nil, ErrSuperseded
	}

	mount.MountedAt = time.Now()
	n.current = mount
	out.Status = mount.Status
	out.Mount = mount
	out.Duration = mount.MountedAt.Sub(req.Started)

	n.logger.Debug("navigation settled",
		"id", req.ID,
		"path", mount.Path,
		"status", mount.Status.String(),
		"redirects", out.Redirects,
	)
	if n.onMount != nil {
		n.onMount(mount)
	}
	return out, nil
}

// Prefetch chases path and loads its components without mounting
// anything or affecting navigations in flight.
func (n *Navigator) Prefetch(ctx context.Context, path string) error {
	chase := n.table.Chase(path)
	if chase.Err != nil {
		return chase.Err
	}
	if chase.Result.Kind != router.KindMatch {
		return nil
	}
	_, err := n.load(ctx, chase.Result.Layers)
	return err
}
