// Package middleware provides observability backends for the model call
// layer.
package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/akashg/simbench/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector over the default
// Prometheus registry. It exposes request counts, token consumption, and
// latency for the experiment's model calls.
type PrometheusMetrics struct {
	requestCounter *prometheus.CounterVec
	tokenCounter   *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the experiment's metrics and returns the
// collector. Call at most once per process; promauto panics on duplicate
// registration.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		requestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total model requests by model and outcome.",
			},
			[]string{"model", "status"},
		),
		tokenCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Tokens consumed by model requests.",
			},
			[]string{"model", "token_type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_latency_seconds",
				Help:    "Model request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "status"},
		),
	}
}

// RecordCounter increments the counter matching the metric name; unknown
// names are dropped.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "llm_requests_total":
		pm.requestCounter.WithLabelValues(labels["model"], labels["status"]).Add(value)
	case "llm_tokens_total":
		pm.tokenCounter.WithLabelValues(labels["model"], labels["token_type"]).Add(value)
	}
}

// RecordHistogram records an observation for the metric; unknown names are
// dropped.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	if metric == "llm_latency_seconds" {
		pm.latency.WithLabelValues(labels["model"], labels["status"]).Observe(value)
	}
}
