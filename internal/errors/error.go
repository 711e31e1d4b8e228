package errors

import (
	"errors"
	"fmt"

	"github.com/vango-dev/routetable/pkg/lazy"
	"github.com/vango-dev/routetable/pkg/router"
)

// Category represents the type of error.
type Category string

const (
	CategoryTable      Category = "table"
	CategoryResolve    Category = "resolve"
	CategoryNavigation Category = "navigation"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// Severity grades how an error is presented.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// RouteError is a structured error with the offending route, a hint and an
// example of the fix.
type RouteError struct {
	// Code is a unique error identifier (e.g., "R001").
	Code string

	// Category is the error type (table, resolve, etc.).
	Category Category

	// Severity is error unless the problem was only reported as a warning.
	Severity Severity

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Route is the table path or requested path the error is about.
	Route string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example shows the correct declaration.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *RouteError) Error() string {
	msg := e.Message
	if e.Route != "" {
		msg = e.Route + ": " + msg
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *RouteError) Unwrap() error {
	return e.Wrapped
}

// WithRoute sets the path the error is about.
func (e *RouteError) WithRoute(path string) *RouteError {
	e.Route = path
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *RouteError) WithSuggestion(s string) *RouteError {
	e.Suggestion = s
	return e
}

// WithExample adds a declaration example to the error.
func (e *RouteError) WithExample(ex string) *RouteError {
	e.Example = ex
	return e
}

// WithDetail replaces the registered explanation.
func (e *RouteError) WithDetail(d string) *RouteError {
	e.Detail = d
	return e
}

// WithMessage replaces the registered short message.
func (e *RouteError) WithMessage(m string) *RouteError {
	e.Message = m
	return e
}

// Wrap wraps another error.
func (e *RouteError) Wrap(err error) *RouteError {
	e.Wrapped = err
	return e
}

// IsWarning reports whether the error is only a warning.
func (e *RouteError) IsWarning() bool {
	return e.Severity == SeverityWarning
}

// New creates a RouteError from a registered error code.
func New(code string) *RouteError {
	template, ok := registry[code]
	if !ok {
		return &RouteError{
			Code:     code,
			Severity: SeverityError,
			Message:  "Unknown error",
		}
	}
	return &RouteError{
		Code:       code,
		Category:   template.Category,
		Severity:   SeverityError,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		Example:    template.Example,
	}
}

// Newf creates a new RouteError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *RouteError {
	return &RouteError{
		Category: category,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromDefect converts a table defect. The defect's own message becomes the
// detail; the registered message stays the headline.
func FromDefect(d router.Defect) *RouteError {
	e := New(string(d.Code)).WithRoute(d.Path).Wrap(d)
	if d.Message != "" {
		e.Detail = d.Message
	}
	if d.Severity == router.SeverityWarning {
		e.Severity = SeverityWarning
	}
	return e
}

// FromDefects converts defects in order.
func FromDefects(defects []router.Defect) []*RouteError {
	out := make([]*RouteError, 0, len(defects))
	for _, d := range defects {
		out = append(out, FromDefect(d))
	}
	return out
}

// FromError wraps a standard error in a RouteError. Known error values from
// the router, lazy and table construction are mapped to their codes; others
// get code.
func FromError(err error, code string) *RouteError {
	if err == nil {
		return nil
	}
	var re *RouteError
	if errors.As(err, &re) {
		return re
	}

	var te *router.TableError
	if errors.As(err, &te) && len(te.Defects) == 1 {
		return FromDefect(te.Defects[0]).Wrap(err)
	}
	if errors.Is(err, router.ErrRedirectLoop) {
		return New(CodeRedirectLoop).WithDetail(err.Error()).Wrap(err)
	}
	var le *lazy.LoadError
	if errors.As(err, &le) {
		return New(CodeLoadFailed).WithRoute(le.Name).WithDetail(err.Error()).Wrap(err)
	}
	return New(code).WithDetail(err.Error()).Wrap(err)
}

// NoMatch reports that path resolved to no route.
func NoMatch(path string) *RouteError {
	return New(CodeNoMatch).WithRoute(path)
}
