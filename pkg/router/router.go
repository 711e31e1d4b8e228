package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vango-dev/routetable/pkg/pattern"
	"github.com/vango-dev/routetable/pkg/routepath"
)

// DefaultMaxRedirects bounds Chase unless WithMaxRedirects says otherwise.
const DefaultMaxRedirects = 5

// Resolution errors.
var (
	// ErrRedirectLoop means a redirect chase revisited a path or ran past
	// the hop bound. It points at a table defect, not at user input.
	ErrRedirectLoop = errors.New("redirect loop")

	// ErrUnknownRoute is returned by Href for names not in the table.
	ErrUnknownRoute = errors.New("unknown route name")
)

// Table is an immutable route table. It is safe for concurrent use.
type Table struct {
	roots        []*node
	byName       map[string]*node
	warnings     []Defect
	maxRedirects int
	logger       *slog.Logger
}

// Option configures a Table.
type Option func(*Table)

// WithMaxRedirects sets how many redirects Chase follows before giving up.
func WithMaxRedirects(n int) Option {
	return func(t *Table) {
		if n >= 0 {
			t.maxRedirects = n
		}
	}
}

// WithLogger sets the logger used for construction warnings and redirect loops.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Table) {
		t.logger = logger
	}
}

// New builds a table from a route literal. Every error-severity defect is
// reported in a single *TableError; warnings are logged and kept on the
// table (see Warnings).
func New(routes []Route, opts ...Option) (*Table, error) {
	t := &Table{
		maxRedirects: DefaultMaxRedirects,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	b := newBuilder()
	t.roots = b.build(routes, pattern.MustParse("/"), 0)
	if errs := b.errors(); len(errs) > 0 {
		return nil, &TableError{Defects: errs}
	}

	t.byName = b.names
	t.warnings = b.warnings()
	for _, w := range t.warnings {
		t.logger.Warn("route table warning", "code", string(w.Code), "route", w.Path, "msg", w.Message)
	}
	return t, nil
}

// MustNew is like New but panics on error.
func MustNew(routes []Route, opts ...Option) *Table {
	t, err := New(routes, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Warnings returns the warning-severity defects found at construction.
func (t *Table) Warnings() []Defect {
	return append([]Defect(nil), t.warnings...)
}

// MaxRedirects returns the redirect bound used by Chase.
func (t *Table) MaxRedirects() int {
	return t.maxRedirects
}

// Resolve resolves a single path without following redirects. It never
// loads components and never fails: malformed paths resolve to KindNoMatch.
func (t *Table) Resolve(path string) Result {
	norm, err := routepath.Normalize(path)
	if err != nil {
		return Result{Kind: KindNoMatch, Path: path}
	}
	res := Result{
		Kind:     KindNoMatch,
		Path:     norm.Path,
		Query:    norm.Query,
		Fragment: norm.Fragment,
	}

	segs, err := routepath.Segments(norm.Path)
	if err != nil {
		return res
	}

	h, ok := matchNodes(t.roots, segs, false)
	if !ok {
		return res
	}
	res.Params = h.params

	if h.redirect != nil {
		target, err := t.redirectTarget(h.redirect, h.params, norm)
		if err != nil {
			t.logger.Error("redirect target expansion failed", "route", h.redirect.full.String(), "err", err)
			return res
		}
		res.Kind = KindRedirect
		res.Route = h.redirect.full.String()
		res.Redirect = target
		return res
	}

	res.Kind = KindMatch
	res.Layers = make([]Layer, 0, len(h.chain))
	for _, n := range h.chain {
		if n.component == nil {
			continue
		}
		res.Layers = append(res.Layers, n.layer(h.params))
	}
	res.Route = h.chain[len(h.chain)-1].full.String()
	return res
}

// redirectTarget expands the redirect pattern. The original query and
// fragment carry over unless the target declares its own query.
func (t *Table) redirectTarget(n *node, params map[string]string, from routepath.Normalized) (string, error) {
	target, err := n.redirect.Expand(params)
	if err != nil {
		return "", err
	}
	switch {
	case n.redirectQuery != "":
		target += "?" + n.redirectQuery
	case from.Query != "":
		target += "?" + from.Query
	}
	if from.Fragment != "" {
		target += "#" + from.Fragment
	}
	return target, nil
}

// Chase resolves path and follows redirects until a match or no-match.
// A revisited path or more than MaxRedirects hops stops the chase with
// ErrRedirectLoop; the result is then reported as KindNoMatch.
func (t *Table) Chase(path string) ChaseResult {
	res := t.Resolve(path)
	out := ChaseResult{Trail: []string{res.Path}}
	seen := map[string]bool{res.Path: true}

	for res.Kind == KindRedirect {
		next := res.Redirect
		nextPath := next
		if norm, err := routepath.Normalize(next); err == nil {
			nextPath = norm.Path
		}

		if seen[nextPath] || out.Redirects >= t.maxRedirects {
			out.Trail = append(out.Trail, nextPath)
			out.Err = fmt.Errorf("%w: %s", ErrRedirectLoop, strings.Join(out.Trail, " -> "))
			out.Result = Result{Kind: KindNoMatch, Path: res.Path, Query: res.Query, Fragment: res.Fragment}
			t.logger.Error("redirect chase aborted", "path", path, "trail", out.Trail, "max_redirects", t.maxRedirects)
			return out
		}

		out.Redirects++
		seen[nextPath] = true
		out.Trail = append(out.Trail, nextPath)
		res = t.Resolve(next)
	}

	out.Result = res
	return out
}

// Routes lists every entry depth-first in declaration order.
func (t *Table) Routes() []Info {
	var infos []Info
	for _, root := range t.roots {
		root.walk(func(n *node) {
			infos = append(infos, n.info())
		})
	}
	return infos
}

func (n *node) info() Info {
	i := Info{
		Path:     n.full.String(),
		Name:     n.name,
		Props:    n.props,
		Depth:    n.depth,
		Children: len(n.children),
	}
	if n.component != nil {
		i.Component = n.component.Name()
	}
	if n.redirect != nil {
		i.Redirect = n.redirect.String()
		if n.redirectQuery != "" {
			i.Redirect += "?" + n.redirectQuery
		}
	}
	return i
}

// Lookup returns the entry registered under name.
func (t *Table) Lookup(name string) (Info, bool) {
	n, ok := t.byName[name]
	if !ok {
		return Info{}, false
	}
	return n.info(), true
}

// Href builds the path of the named route with params substituted.
func (t *Table) Href(name string, params map[string]string) (string, error) {
	n, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	return n.full.Expand(params)
}
