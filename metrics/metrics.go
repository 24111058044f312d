// Package metrics exposes the engine's Prometheus instrumentation (A3):
// request volume, latency, redirect counts, and session churn.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. All methods are safe
// for concurrent use — the underlying collectors handle their own locking.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
	redirectHops    prometheus.Histogram
	activeSessions  prometheus.Gauge
	sessionsCreated prometheus.Counter
	sessionsExpired prometheus.Counter
}

// NewMetrics registers the engine's collectors against reg and returns the
// handle used to record observations. Passing prometheus.NewRegistry()
// isolates the metrics in tests; passing prometheus.DefaultRegisterer
// wires them into the process-wide /metrics endpoint.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proxy_requests_total",
			Help: "Total number of proxied requests, labeled by outcome.",
		}, []string{"outcome"}),
		requestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "proxy_request_duration_seconds",
			Help:    "End-to-end request latency, orchestrator entry to response materialization.",
			Buckets: prometheus.DefBuckets,
		}),
		redirectHops: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "proxy_redirect_hops",
			Help:    "Number of redirect hops resolved per request.",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "proxy_active_sessions",
			Help: "Number of sessions currently registered.",
		}),
		sessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "proxy_sessions_created_total",
			Help: "Total number of sessions created.",
		}),
		sessionsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "proxy_sessions_expired_total",
			Help: "Total number of sessions removed by the sweeper.",
		}),
	}
}

// ObserveRequest records one completed request: its outcome label ("success"
// or "error"), its elapsed duration, and the number of redirect hops it
// resolved.
func (m *Metrics) ObserveRequest(outcome string, elapsed time.Duration, hops int) {
	m.requestsTotal.WithLabelValues(outcome).Inc()
	m.requestDuration.Observe(elapsed.Seconds())
	m.redirectHops.Observe(float64(hops))
}

// SetActiveSessions records the registry's current session count.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// IncSessionsCreated increments the session-creation counter.
func (m *Metrics) IncSessionsCreated() {
	m.sessionsCreated.Inc()
}

// IncSessionsExpired increments the sweeper-eviction counter.
func (m *Metrics) IncSessionsExpired() {
	m.sessionsExpired.Inc()
}
