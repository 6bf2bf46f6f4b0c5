package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vnav/pkg/router"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vnav").
	Namespace string

	// Subsystem is the metrics subsystem (default: "router").
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

// MetricsOption configures the Prometheus observer.
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
		Namespace: "vnav",
		Subsystem: "router",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a router.Observer recording navigation metrics.
type Metrics struct {
	navigationsTotal   *prometheus.CounterVec
	navigationDuration *prometheus.HistogramVec
	navigationErrors   *prometheus.CounterVec
	pending            prometheus.Gauge
}

// A registry accepts each metric name once, so routers sharing a registry
// share their collectors.
var (
	registeredMu sync.Mutex
	registered   = make(map[prometheus.Registerer]*Metrics)
)

func initMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)

	return &Metrics{
		navigationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of settled navigations by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		navigationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Time from navigation start until it settled",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"outcome"}),

		navigationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_errors_total",
			Help:        "Total number of navigations that ended in an error",
			ConstLabels: config.ConstLabels,
		}, []string{"error_type"}),

		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pending_navigations",
			Help:        "Number of navigations in flight",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Prometheus returns an observer collecting navigation metrics.
//
// Metrics collected:
//   - vnav_router_navigations_total: Counter of navigations by outcome
//   - vnav_router_navigation_duration_seconds: Histogram of navigation duration
//   - vnav_router_navigation_errors_total: Counter of errors by category
//   - vnav_router_pending_navigations: Gauge of navigations in flight
//
// Outcomes are "committed", "redirected", "aborted", "cancelled",
// "duplicated" and "error".
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	registeredMu.Lock()
	defer registeredMu.Unlock()
	if m, ok := registered[config.Registry]; ok {
		return m
	}
	m := initMetrics(config)
	registered[config.Registry] = m
	return m
}

type startKey struct{}

// NavigationStart implements router.Observer.
func (m *Metrics) NavigationStart(ctx context.Context, _, _ *router.Route) context.Context {
	m.pending.Inc()
	return context.WithValue(ctx, startKey{}, time.Now())
}

// NavigationEnd implements router.Observer.
func (m *Metrics) NavigationEnd(ctx context.Context, _, _ *router.Route, err error) {
	m.pending.Dec()

	outcome := Outcome(err)
	if start, ok := ctx.Value(startKey{}).(time.Time); ok {
		m.navigationDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}
	m.navigationsTotal.WithLabelValues(outcome).Inc()
	if outcome == "error" {
		m.navigationErrors.WithLabelValues(categorizeError(err)).Inc()
	}
}

// Outcome names how a navigation settled.
func Outcome(err error) string {
	if err == nil {
		return "committed"
	}
	if ft, ok := router.FailureTypeOf(err); ok {
		return ft.String()
	}
	return "error"
}

// categorizeError returns a category for the error type.
// This prevents high-cardinality labels from error messages.
func categorizeError(err error) string {
	var (
		matchErr *router.MatchError
		guardErr *router.GuardError
		asyncErr *router.AsyncComponentError
	)
	switch {
	case errors.As(err, &guardErr):
		return "guard_panic"
	case errors.As(err, &asyncErr):
		return "async_component"
	case errors.As(err, &matchErr):
		return "match"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	default:
		return "guard"
	}
}
