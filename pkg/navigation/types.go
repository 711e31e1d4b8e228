package navigation

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/vango-dev/routetable/pkg/lazy"
	"github.com/vango-dev/routetable/pkg/router"
)

// ErrSuperseded is returned by Navigate when a newer navigation started
// before this one settled. Nothing was mounted.
var ErrSuperseded = errors.New("navigation superseded")

// Status is how a settled navigation ended.
type Status uint8

const (
	// StatusMounted means the matched components were loaded and mounted.
	StatusMounted Status = iota + 1
	// StatusNotFound means the path (or its redirect chase) matched nothing.
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusMounted:
		return "mounted"
	case StatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Mount is what a settled navigation put on screen.
type Mount struct {
	// ID identifies the navigation that produced the mount.
	ID string

	Status Status

	// Requested is the path as passed to Navigate.
	Requested string

	// Path is the final normalised path after redirects.
	Path     string
	Query    string
	Fragment string

	// Route is the full pattern of the innermost entry.
	Route string

	// Trail lists the paths visited while chasing redirects.
	Trail []string

	// Layers and Components are parallel, outermost first. Both are empty
	// for StatusNotFound.
	Layers     []router.Layer
	Components []*lazy.Component

	Params map[string]string

	// Replace reports that the host history entry should be replaced
	// rather than pushed. It is set for redirected navigations.
	Replace bool

	MountedAt time.Time
}

// URL renders the mounted location with query and fragment.
func (m *Mount) URL() string {
	s := m.Path
	if m.Query != "" {
		s += "?" + m.Query
	}
	if m.Fragment != "" {
		s += "#" + m.Fragment
	}
	return s
}

// Outcome reports a settled navigation.
type Outcome struct {
	ID     string
	Status Status

	Requested string
	Path      string
	Trail     []string
	Redirects int

	// Mount is the committed mount.
	Mount *Mount

	// Cause explains a StatusNotFound that was not a plain miss. It wraps
	// router.ErrRedirectLoop when the redirect chase was cut off.
	Cause error

	Duration time.Duration
}

// Options configures a single navigation.
type Options struct {
	// Replace asks for the history entry to be replaced.
	Replace bool

	// Query is merged into the path's query string before resolving.
	Query map[string]string
}

// Option is a functional option for Navigate.
type Option func(*Options)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() Option {
	return func(o *Options) {
		o.Replace = true
	}
}

// WithQuery adds query parameters to the navigation path.
func WithQuery(params map[string]string) Option {
	return func(o *Options) {
		if o.Query == nil {
			o.Query = make(map[string]string, len(params))
		}
		for k, v := range params {
			o.Query[k] = v
		}
	}
}

// Request is a navigation in flight, as seen by middleware.
type Request struct {
	ID      string
	Path    string
	Options Options
	Started time.Time
}

// Target returns the path with Options.Query merged in.
func (r *Request) Target() string {
	if len(r.Options.Query) == 0 {
		return r.Path
	}
	u, err := url.Parse(r.Path)
	if err != nil {
		return r.Path
	}
	q := u.Query()
	for k, v := range r.Options.Query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Handler settles a navigation request.
type Handler func(ctx context.Context, req *Request) (*Outcome, error)
