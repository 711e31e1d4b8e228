package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/routetable/pkg/lazy"
	"github.com/vango-dev/routetable/pkg/navigation"
	"github.com/vango-dev/routetable/pkg/router"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingProvider hands out tracers that keep every span they start.
type recordingProvider struct {
	noop.TracerProvider

	mu    sync.Mutex
	spans []*recordingSpan
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return &recordingTracer{provider: p}
}

type recordingTracer struct {
	noop.Tracer
	provider *recordingProvider
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	span := &recordingSpan{name: name, attrs: make(map[attribute.Key]attribute.Value)}
	span.SetAttributes(cfg.Attributes()...)

	t.provider.mu.Lock()
	t.provider.spans = append(t.provider.spans, span)
	t.provider.mu.Unlock()
	return trace.ContextWithSpan(ctx, span), span
}

type recordingSpan struct {
	noop.Span

	name  string
	attrs map[attribute.Key]attribute.Value
	code  codes.Code
	errs  []error
	ended bool
}

func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

func (s *recordingSpan) SetStatus(code codes.Code, _ string) { s.code = code }

func (s *recordingSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}

func (s *recordingSpan) SetName(name string) { s.name = name }

func (s *recordingSpan) End(...trace.SpanEndOption) { s.ended = true }

func (p *recordingProvider) only(t *testing.T) *recordingSpan {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(p.spans))
	}
	return p.spans[0]
}

func TestOpenTelemetryMiddleware_MountedSpan(t *testing.T) {
	tp := &recordingProvider{}
	mw := OpenTelemetry(
		WithTracerProvider(tp),
		WithAttributeExtractor(func(*navigation.Request) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)
	req := &navigation.Request{ID: "n1", Path: "/mypage"}

	var inner trace.Span
	_, err := mw.Handle(context.Background(), req, func(ctx context.Context, _ *navigation.Request) (*navigation.Outcome, error) {
		inner = trace.SpanFromContext(ctx)
		return &navigation.Outcome{
			Status:    navigation.StatusMounted,
			Path:      "/mypage/post",
			Redirects: 1,
			Mount:     &navigation.Mount{Route: "/mypage/post"},
		}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	span := tp.only(t)
	if inner != span {
		t.Error("span was not passed down the chain")
	}
	if span.name != "navigate /mypage/post" {
		t.Errorf("name = %q", span.name)
	}
	if !span.ended || span.code != codes.Ok {
		t.Errorf("ended = %v, code = %v", span.ended, span.code)
	}
	want := map[attribute.Key]string{
		"navigation.id":         "n1",
		"navigation.path":       "/mypage",
		"navigation.status":     "mounted",
		"navigation.final_path": "/mypage/post",
		"navigation.route":      "/mypage/post",
		"test.attr":             "ok",
	}
	for k, v := range want {
		if got := span.attrs[k].AsString(); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if got := span.attrs["navigation.redirects"].AsInt64(); got != 1 {
		t.Errorf("navigation.redirects = %d, want 1", got)
	}
}

func TestOpenTelemetryMiddleware_ErrorStatus(t *testing.T) {
	loadErr := &lazy.LoadError{Name: "pages/EditorPage", Err: errors.New("503")}

	tests := []struct {
		name     string
		out      *navigation.Outcome
		err      error
		wantCode codes.Code
		wantErrs int
	}{
		{"load failure", nil, loadErr, codes.Error, 1},
		{"redirect loop", &navigation.Outcome{Status: navigation.StatusNotFound, Cause: router.ErrRedirectLoop}, nil, codes.Error, 1},
		{"plain not found", &navigation.Outcome{Status: navigation.StatusNotFound}, nil, codes.Ok, 0},
		{"superseded", nil, navigation.ErrSuperseded, codes.Unset, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := &recordingProvider{}
			mw := OpenTelemetry(WithTracerProvider(tp))

			_, err := mw.Handle(context.Background(), &navigation.Request{Path: "/x"}, settle(tt.out, tt.err))
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}

			span := tp.only(t)
			if span.code != tt.wantCode {
				t.Errorf("code = %v, want %v", span.code, tt.wantCode)
			}
			if len(span.errs) != tt.wantErrs {
				t.Errorf("recorded %d errors, want %d", len(span.errs), tt.wantErrs)
			}
			if tt.err == navigation.ErrSuperseded && !span.attrs["navigation.superseded"].AsBool() {
				t.Error("superseded attribute not set")
			}
		})
	}
}

func TestOpenTelemetryMiddleware_SpanNameIsRoutePattern(t *testing.T) {
	tp := &recordingProvider{}
	mw := OpenTelemetry(WithTracerProvider(tp))

	for _, id := range []string{"42", "43"} {
		out := &navigation.Outcome{
			Status: navigation.StatusMounted,
			Path:   "/adminPage/notice/" + id,
			Mount:  &navigation.Mount{Route: "/adminPage/notice/:id"},
		}
		if _, err := mw.Handle(context.Background(), &navigation.Request{Path: "/adminPage/notice/" + id}, settle(out, nil)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := mw.Handle(context.Background(), &navigation.Request{Path: "/nope"}, settle(&navigation.Outcome{Status: navigation.StatusNotFound}, nil)); err != nil {
		t.Fatal(err)
	}

	want := []string{"navigate /adminPage/notice/:id", "navigate /adminPage/notice/:id", "navigate"}
	if len(tp.spans) != len(want) {
		t.Fatalf("spans = %d, want %d", len(tp.spans), len(want))
	}
	for i, span := range tp.spans {
		if span.name != want[i] {
			t.Errorf("span %d name = %q, want %q", i, span.name, want[i])
		}
	}
	if got := tp.spans[0].attrs["navigation.path"].AsString(); got != "/adminPage/notice/42" {
		t.Errorf("navigation.path = %q", got)
	}
}

func TestOpenTelemetryMiddleware_FilterSkipsTracing(t *testing.T) {
	tp := &recordingProvider{}
	mw := OpenTelemetry(
		WithTracerProvider(tp),
		WithNavigationFilter(func(req *navigation.Request) bool { return req.Path != "/healthz" }),
	)

	nextCalled := false
	_, err := mw.Handle(context.Background(), &navigation.Request{Path: "/healthz"}, func(context.Context, *navigation.Request) (*navigation.Outcome, error) {
		nextCalled = true
		return nil, nil
	})
	if err != nil || !nextCalled {
		t.Fatalf("next called = %v, err = %v", nextCalled, err)
	}
	if len(tp.spans) != 0 {
		t.Errorf("recorded %d spans for filtered navigation", len(tp.spans))
	}
}

func TestOpenTelemetryMiddleware_DefaultProvider(t *testing.T) {
	mw := OpenTelemetry(WithTracerName("test"))
	out := &navigation.Outcome{Status: navigation.StatusMounted}
	got, err := mw.Handle(context.Background(), &navigation.Request{}, settle(out, nil))
	if err != nil || got != out {
		t.Errorf("Handle = %v, %v", got, err)
	}
}
