package router

import (
	"github.com/vango-dev/routetable/pkg/lazy"
	"github.com/vango-dev/routetable/pkg/pattern"
)

// node is a built table entry.
type node struct {
	// full is the entry's pattern resolved against its ancestors.
	full pattern.Pattern

	name      string
	component *lazy.Ref
	props     bool

	// redirect is the target pattern; nil for component entries.
	redirect      *pattern.Pattern
	redirectQuery string

	depth    int
	children []*node

	// detached marks an absolute child outside its parent's prefix. It
	// matches on its own pattern, with its ancestors mounted around it.
	detached bool
}

// hit is an in-progress match: the chain of entries from the outermost
// match down, plus every captured parameter.
type hit struct {
	chain    []*node
	params   map[string]string
	redirect *node
}

func (h *hit) prepend(n *node, params map[string]string) {
	h.chain = append([]*node{n}, h.chain...)
	for k, v := range params {
		if _, ok := h.params[k]; !ok {
			h.params[k] = v
		}
	}
}

// matchNodes tries nodes in order against the full path segments.
// With exactOnly set, only entries that consume every segment are
// considered and prefix matches never commit.
func matchNodes(nodes []*node, segs []string, exactOnly bool) (*hit, bool) {
	for _, n := range nodes {
		params := make(map[string]string)
		consumed, ok := n.full.MatchPrefix(segs, params)
		if !ok {
			if h, ok := n.matchDetached(segs, exactOnly); ok {
				return h, true
			}
			continue
		}

		if consumed == len(segs) {
			return n.matchExact(segs, params), true
		}

		if exactOnly || len(n.children) == 0 {
			continue
		}

		// Prefix match on an entry with children: committed.
		h, ok := matchNodes(n.children, segs, false)
		if !ok {
			return nil, false
		}
		h.prepend(n, params)
		return h, true
	}
	return nil, false
}

// matchDetached tries the detached descendants of n, for a path n's own
// pattern does not match. Entries between n and the hit are mounted
// without captured params.
func (n *node) matchDetached(segs []string, exactOnly bool) (*hit, bool) {
	for _, c := range n.children {
		var (
			h  *hit
			ok bool
		)
		if c.detached {
			h, ok = matchNodes([]*node{c}, segs, exactOnly)
		} else {
			h, ok = c.matchDetached(segs, exactOnly)
		}
		if ok {
			h.prepend(n, nil)
			return h, true
		}
	}
	return nil, false
}

// matchExact resolves an entry whose pattern consumed the whole path.
func (n *node) matchExact(segs []string, params map[string]string) *hit {
	if n.redirect != nil {
		return &hit{chain: []*node{n}, params: params, redirect: n}
	}
	if h, ok := matchNodes(n.children, segs, true); ok {
		h.prepend(n, params)
		return h
	}
	return &hit{chain: []*node{n}, params: params}
}

// layer builds the mount layer for n from the captured params.
func (n *node) layer(all map[string]string) Layer {
	l := Layer{
		Route:     n.full.String(),
		Name:      n.name,
		Component: n.component,
	}
	if names := n.full.Params(); len(names) > 0 {
		l.Params = make(map[string]string, len(names))
		for _, name := range names {
			if v, ok := all[name]; ok {
				l.Params[name] = v
			}
		}
	}
	if n.props {
		l.Props = make(map[string]string, len(l.Params))
		for k, v := range l.Params {
			l.Props[k] = v
		}
	}
	return l
}

// walk visits n and its descendants depth-first in declaration order.
func (n *node) walk(fn func(*node)) {
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}
