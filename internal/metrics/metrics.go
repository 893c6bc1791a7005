// Package metrics exposes Prometheus collectors for the gateway, the form
// submissions and the evaluation client.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name unless New is given another.
const DefaultNamespace = "integrales"

// Metrics holds the application collectors in a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	submissions  *prometheus.CounterVec
	appErrors    *prometheus.CounterVec
	evalDuration *prometheus.HistogramVec

	sessionsActive prometheus.Gauge
	sessionsSwept  prometheus.Counter
}

// New creates and registers the collectors under namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "path"}),

		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "form",
			Name:      "submissions_total",
			Help:      "Form submissions by arity and outcome.",
		}, []string{"arity", "outcome"}),
		appErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "form",
			Name:      "app_errors_total",
			Help:      "User-facing errors by category.",
		}, []string{"category"}),
		evalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "evaluation_duration_seconds",
			Help:      "Round trip to the evaluation service.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}, []string{"arity"}),

		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Open form sessions.",
		}),
		sessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "swept_total",
			Help:      "Sessions closed for being idle.",
		}),
	}

	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.submissions,
		m.appErrors,
		m.evalDuration,
		m.sessionsActive,
		m.sessionsSwept,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncrementInFlight marks a request as started.
func (m *Metrics) IncrementInFlight() {
	m.httpInFlight.Inc()
}

// DecrementInFlight marks a request as finished.
func (m *Metrics) DecrementInFlight() {
	m.httpInFlight.Dec()
}

// RecordHTTPRequest records one handled request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	method = strings.ToUpper(method)
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveSubmission counts a form submission.
func (m *Metrics) ObserveSubmission(arity, outcome string) {
	m.submissions.WithLabelValues(arity, outcome).Inc()
}

// ObserveAppError counts a user-facing error.
func (m *Metrics) ObserveAppError(category string) {
	m.appErrors.WithLabelValues(category).Inc()
}

// ObserveEvaluation records a service round trip.
func (m *Metrics) ObserveEvaluation(arity string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	m.evalDuration.WithLabelValues(arity).Observe(duration.Seconds())
}

// SetActiveSessions sets the open session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.sessionsActive.Set(float64(n))
}

// AddSweptSessions counts sessions closed by the sweeper.
func (m *Metrics) AddSweptSessions(n int) {
	if n > 0 {
		m.sessionsSwept.Add(float64(n))
	}
}
