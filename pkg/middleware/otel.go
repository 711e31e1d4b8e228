package middleware

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/routetable/pkg/navigation"
)

const (
	defaultTracerName = "routetable"

	// spanName is suffixed with the matched route pattern once known.
	// The requested path is only an attribute.
	spanName = "navigate"
)

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "routetable").
	TracerName string

	// TracerProvider supplies the tracer. Default: otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// Filter determines which navigations to trace.
	// Return true to trace, false to skip. If nil, all are traced.
	Filter func(req *navigation.Request) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(req *navigation.Request) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithNavigationFilter sets a filter function for navigations.
func WithNavigationFilter(filter func(req *navigation.Request) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(req *navigation.Request) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OpenTelemetry creates middleware that traces every navigation.
//
// Spans are named "navigate <route pattern>" for mounted navigations and
// "navigate" otherwise. Each span carries the requested path and navigation
// id, and once settled the final path, matched route, status and redirect
// count. Load failures
// and other errors are recorded on the span; a superseded navigation is
// marked as such but not treated as an error. A redirect loop is recorded as
// an error even though the navigation settles as not found.
//
// The span context is passed down the chain, so component loaders receive it
// through their ctx.
func OpenTelemetry(opts ...OTelOption) navigation.Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(config.TracerName)

	return navigation.MiddlewareFunc(func(ctx context.Context, req *navigation.Request, next navigation.Handler) (*navigation.Outcome, error) {
		if config.Filter != nil && !config.Filter(req) {
			return next(ctx, req)
		}

		attrs := []attribute.KeyValue{
			attribute.String("navigation.id", req.ID),
			attribute.String("navigation.path", req.Path),
			attribute.Bool("navigation.replace", req.Options.Replace),
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(req)...)
		}

		ctx, span := tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		out, err := next(ctx, req)

		if out != nil {
			span.SetAttributes(
				attribute.String("navigation.status", out.Status.String()),
				attribute.String("navigation.final_path", out.Path),
				attribute.Int("navigation.redirects", out.Redirects),
			)
			if out.Mount != nil && out.Mount.Route != "" {
				span.SetAttributes(attribute.String("navigation.route", out.Mount.Route))
				span.SetName(spanName + " " + out.Mount.Route)
			}
		}

		switch {
		case errors.Is(err, navigation.ErrSuperseded):
			span.SetAttributes(attribute.Bool("navigation.superseded", true))
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case out != nil && out.Cause != nil:
			span.RecordError(out.Cause)
			span.SetStatus(codes.Error, out.Cause.Error())
		default:
			span.SetStatus(codes.Ok, "")
		}
		return out, err
	})
}

