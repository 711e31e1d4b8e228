package navigation

import "context"

// Middleware wraps navigation handling. Implementations call next to
// continue the chain and may inspect or replace its outcome.
type Middleware interface {
	Handle(ctx context.Context, req *Request, next Handler) (*Outcome, error)
}

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc func(ctx context.Context, req *Request, next Handler) (*Outcome, error)

// Handle calls f.
func (f MiddlewareFunc) Handle(ctx context.Context, req *Request, next Handler) (*Outcome, error) {
	return f(ctx, req, next)
}

// Compose builds a handler chain from middleware and a final handler.
// Middleware runs in order (first to last), with the handler at the end.
func Compose(mw []Middleware, handler Handler) Handler {
	chain := handler
	for i := len(mw) - 1; i >= 0; i-- {
		m := mw[i]
		next := chain
		chain = func(ctx context.Context, req *Request) (*Outcome, error) {
			return m.Handle(ctx, req, next)
		}
	}
	return chain
}

// Chain creates a middleware that runs the given middleware in order.
func Chain(middleware ...Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, req *Request, next Handler) (*Outcome, error) {
		return Compose(middleware, next)(ctx, req)
	})
}

// Skip bypasses mw for requests where condition is true.
func Skip(condition func(req *Request) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, req *Request, next Handler) (*Outcome, error) {
		if condition(req) {
			return next(ctx, req)
		}
		return mw.Handle(ctx, req, next)
	})
}

// Only runs mw only for requests where condition is true.
func Only(condition func(req *Request) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, req *Request, next Handler) (*Outcome, error) {
		if !condition(req) {
			return next(ctx, req)
		}
		return mw.Handle(ctx, req, next)
	})
}
