// Package middleware provides observability middleware for navigations.
//
// # Prometheus Metrics
//
// The Prometheus middleware counts navigations by matched route and result
// (mounted, not_found, superseded, load_error, cancelled, error), observes
// their duration, and counts followed redirects, redirect loops and failed
// component loads:
//
//	nav.Use(middleware.Prometheus(middleware.WithNamespace("myapp")))
//
// NewMetrics returns the same collectors for the live navigation server,
// which also reports open sessions and WebSocket errors.
//
// # OpenTelemetry Tracing
//
// The OpenTelemetry middleware starts one span per navigation:
//
//	nav.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithNavigationFilter(func(req *navigation.Request) bool {
//	        return req.Path != "/healthz"
//	    }),
//	))
//
// The span travels in the navigation context, so component loaders that
// make network calls inherit the trace.
package middleware
