package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/routetable/pkg/lazy"
	"github.com/vango-dev/routetable/pkg/navigation"
	"github.com/vango-dev/routetable/pkg/router"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "routetable").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for navigation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "routetable",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Navigation result labels.
const (
	resultMounted    = "mounted"
	resultNotFound   = "not_found"
	resultSuperseded = "superseded"
	resultLoadError  = "load_error"
	resultCancelled  = "cancelled"
	resultError      = "error"
)

// Metrics holds the Prometheus collectors for navigations and live
// navigation sessions.
type Metrics struct {
	navigationsTotal   *prometheus.CounterVec
	navigationDuration *prometheus.HistogramVec
	redirectsTotal     prometheus.Counter
	redirectLoops      prometheus.Counter
	loadFailures       *prometheus.CounterVec
	activeSessions     prometheus.Gauge
	wsErrors           *prometheus.CounterVec
}

// Collectors are registered once per registerer; asking again for the same
// registerer returns the existing set.
var (
	metricsMu  sync.Mutex
	byRegistry = make(map[prometheus.Registerer]*Metrics)
)

// NewMetrics returns the metrics registered with the configured registry,
// creating them on first use.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	metricsMu.Lock()
	defer metricsMu.Unlock()
	if m, ok := byRegistry[config.Registry]; ok {
		return m
	}
	m := initMetrics(config)
	byRegistry[config.Registry] = m
	return m
}

func initMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)

	return &Metrics{
		navigationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations by matched route and result",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "result"}),

		navigationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Time from navigation start to settle, including component loads",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"result"}),

		redirectsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "redirects_total",
			Help:        "Total number of redirects followed",
			ConstLabels: config.ConstLabels,
		}),

		redirectLoops: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "redirect_loops_total",
			Help:        "Total number of redirect chases cut off as loops",
			ConstLabels: config.ConstLabels,
		}),

		loadFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "component_load_failures_total",
			Help:        "Total number of failed lazy component loads",
			ConstLabels: config.ConstLabels,
		}, []string{"component"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of open live navigation WebSocket sessions",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Prometheus creates middleware that collects Prometheus metrics for
// navigations.
//
// Metrics collected:
//   - routetable_navigations_total: Counter of navigations by route and result
//   - routetable_navigation_duration_seconds: Histogram of navigation duration
//   - routetable_redirects_total: Counter of redirects followed
//   - routetable_redirect_loops_total: Counter of redirect loops
//   - routetable_component_load_failures_total: Counter of failed loads by component
//
// Example:
//
//	nav := navigation.New(table)
//	nav.Use(middleware.Prometheus(middleware.WithNamespace("myapp")))
//
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) navigation.Middleware {
	return NewMetrics(opts...).Middleware()
}

// Middleware returns navigation middleware recording into m.
func (m *Metrics) Middleware() navigation.Middleware {
	return navigation.MiddlewareFunc(func(ctx context.Context, req *navigation.Request, next navigation.Handler) (*navigation.Outcome, error) {
		start := time.Now()
		out, err := next(ctx, req)
		m.observe(out, err, time.Since(start))
		return out, err
	})
}

func (m *Metrics) observe(out *navigation.Outcome, err error, d time.Duration) {
	route := ""
	result := classify(out, err)

	if out != nil {
		if out.Mount != nil {
			route = out.Mount.Route
		}
		m.redirectsTotal.Add(float64(out.Redirects))
		if errors.Is(out.Cause, router.ErrRedirectLoop) {
			m.redirectLoops.Inc()
		}
	}

	var le *lazy.LoadError
	if errors.As(err, &le) {
		m.loadFailures.WithLabelValues(le.Name).Inc()
	}

	m.navigationsTotal.WithLabelValues(route, result).Inc()
	m.navigationDuration.WithLabelValues(result).Observe(d.Seconds())
}

// classify maps a navigation result to a bounded label value.
func classify(out *navigation.Outcome, err error) string {
	var le *lazy.LoadError
	switch {
	case err == nil && out != nil && out.Status == navigation.StatusMounted:
		return resultMounted
	case err == nil && out != nil && out.Status == navigation.StatusNotFound:
		return resultNotFound
	case errors.Is(err, navigation.ErrSuperseded):
		return resultSuperseded
	case errors.As(err, &le):
		return resultLoadError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resultCancelled
	default:
		return resultError
	}
}

// SessionOpened records a new live navigation session.
func (m *Metrics) SessionOpened() {
	m.activeSessions.Inc()
}

// SessionClosed records the end of a live navigation session.
func (m *Metrics) SessionClosed() {
	m.activeSessions.Dec()
}

// WebSocketError records a WebSocket error of the given type.
func (m *Metrics) WebSocketError(errorType string) {
	m.wsErrors.WithLabelValues(errorType).Inc()
}
