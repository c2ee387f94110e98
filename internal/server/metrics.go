// Package server — metrics.go registers all Prometheus metrics for the HTTP
// server and exposes helpers used by handlers and middleware.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values shared across registrations.
const (
	// labelHandler is the "handler" label value used to partition metrics by
	// the logical endpoint name rather than the raw URL path.
	labelHandler = "handler"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests can
// inject a fresh prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// generateRequestsTotal counts completed /api/podcast/generate requests,
	// partitioned by outcome: "ok", "timeout", or "error".
	generateRequestsTotal *prometheus.CounterVec

	// generateDurationSeconds records the wall-clock duration of each
	// generation run from request receipt to final response.
	generateDurationSeconds *prometheus.HistogramVec

	// generateActiveRuns is the number of generation runs currently executing.
	generateActiveRuns prometheus.Gauge

	// httpRequestsTotal counts all HTTP requests handled by the mux,
	// partitioned by method, path pattern, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics. promauto.With(reg) is used so that each call
// registers into the provided registry rather than the global default —
// this keeps unit tests hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		generateRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfcast",
			Subsystem: "generate",
			Name:      "requests_total",
			Help:      "Total number of /api/podcast/generate requests completed, partitioned by outcome.",
		}, []string{"outcome"}),

		generateDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pdfcast",
			Subsystem: "generate",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of podcast generation runs from receipt to response.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"outcome"}),

		generateActiveRuns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pdfcast",
			Subsystem: "generate",
			Name:      "active_runs",
			Help:      "Number of podcast generation runs currently executing.",
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfcast",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pdfcast",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),
	}
}
