// Package metrics exposes Prometheus instrumentation for the API server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operations counts core operations by name and outcome. Status is "ok",
// "denied" (authorization-style refusals) or "error" (validation and
// storage failures).
var Operations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "budgetbot_operations_total",
		Help: "Core operations by name and outcome.",
	},
	[]string{"op", "status"},
)

// RequestDuration observes HTTP request latency per path.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "budgetbot_http_request_duration_seconds",
		Help:    "HTTP request latency by path.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"path"},
)
