package router

import (
	"github.com/vango-dev/routetable/pkg/lazy"
)

// Route declares one routable path.
type Route struct {
	// Path is the pattern, absolute ("/mypage") or relative to the parent ("post").
	Path string

	// Name optionally identifies the route for Href and Lookup.
	Name string

	// Component is the view mounted for this route. Exactly one of
	// Component and Redirect must be set.
	Component *lazy.Ref

	// Redirect is the path navigation is sent to instead. It may use the
	// parameters captured by Path (":id").
	Redirect string

	// Props exposes the captured path parameters as component input.
	Props bool

	// Children are nested routes rendered inside Component.
	Children []Route
}

// Kind is the kind of a resolution result.
type Kind uint8

const (
	// KindNoMatch means no entry corresponds to the path.
	KindNoMatch Kind = iota
	// KindMatch means Layers holds the components to mount.
	KindMatch
	// KindRedirect means Redirect holds the path to resolve instead.
	KindRedirect
)

func (k Kind) String() string {
	switch k {
	case KindMatch:
		return "match"
	case KindRedirect:
		return "redirect"
	default:
		return "no_match"
	}
}

// Layer is one component in a matched chain.
type Layer struct {
	// Route is the full pattern of the entry (e.g. "/adminPage/notice/:id").
	Route string

	// Name is the route name, if any.
	Name string

	// Component is the unresolved handle. Nothing is loaded until the
	// caller calls Component.Load.
	Component *lazy.Ref

	// Params are the parameters captured by this entry's pattern.
	Params map[string]string

	// Props are the parameters passed as component input. Nil unless the
	// route sets Props.
	Props map[string]string
}

// Result is the outcome of resolving a single path.
type Result struct {
	Kind Kind

	// Path is the normalised path that was resolved.
	Path string

	// Query and Fragment are carried over from the input.
	Query    string
	Fragment string

	// Route is the full pattern of the innermost matched or redirecting entry.
	Route string

	// Layers are the components to mount, outermost first (KindMatch only).
	Layers []Layer

	// Params are all captured parameters.
	Params map[string]string

	// Redirect is the target path (KindRedirect only).
	Redirect string
}

// Leaf returns the innermost layer, or nil when there is none.
func (r Result) Leaf() *Layer {
	if len(r.Layers) == 0 {
		return nil
	}
	return &r.Layers[len(r.Layers)-1]
}

// Components returns the component names of the layers, outermost first.
func (r Result) Components() []string {
	names := make([]string, len(r.Layers))
	for i, l := range r.Layers {
		names[i] = l.Component.Name()
	}
	return names
}

// ChaseResult is the outcome of following redirects from a path.
type ChaseResult struct {
	// Result is the final resolution. It is never KindRedirect.
	Result Result

	// Trail lists every normalised path visited, starting with the input.
	Trail []string

	// Redirects is the number of redirects followed.
	Redirects int

	// Err is non-nil (wrapping ErrRedirectLoop) when the chase was cut off.
	// Result.Kind is then KindNoMatch.
	Err error
}

// Info describes a table entry for listings.
type Info struct {
	Path      string `json:"path"`
	Name      string `json:"name,omitempty"`
	Component string `json:"component,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
	Props     bool   `json:"props,omitempty"`
	Depth     int    `json:"depth"`
	Children  int    `json:"children,omitempty"`
}
