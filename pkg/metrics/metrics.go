// Package metrics exposes prometheus instrumentation for recommendation
// runs and the HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application.
type Registry struct {
	// Recommendation metrics
	RunsTotal            *prometheus.CounterVec
	RunDuration          prometheus.Histogram
	CandidatesDiscovered prometheus.Histogram
	CriticalWarnings     prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registerer prometheus.Registerer
}

// NewRegistry creates and registers all metrics against the given
// registerer (prometheus.DefaultRegisterer in production, a private one in
// tests).
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hostrisk",
			Name:      "runs_total",
			Help:      "Recommendation runs by outcome.",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hostrisk",
			Name:      "run_duration_seconds",
			Help:      "Wall time of complete recommendation runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		CandidatesDiscovered: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hostrisk",
			Name:      "candidates_discovered",
			Help:      "Candidate hosts found per run before truncation.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		CriticalWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hostrisk",
			Name:      "critical_warnings_total",
			Help:      "Critical mismatch warnings emitted across all runs.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hostrisk",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hostrisk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		registerer: reg,
	}

	reg.MustRegister(
		r.RunsTotal,
		r.RunDuration,
		r.CandidatesDiscovered,
		r.CriticalWarnings,
		r.HTTPRequestsTotal,
		r.HTTPRequestDuration,
	)

	return r
}

// RecordRun records the outcome of one recommendation run.
func (r *Registry) RecordRun(status string, duration time.Duration, candidates, warnings int) {
	r.RunsTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		r.RunDuration.Observe(duration.Seconds())
		r.CandidatesDiscovered.Observe(float64(candidates))
		r.CriticalWarnings.Add(float64(warnings))
	}
}

// RecordHTTPRequest records one served HTTP request.
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
