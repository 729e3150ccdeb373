// Package metrics provides prometheus-backed operation metrics shared by the
// module services, plus a no-op implementation for tests.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records service operation outcomes.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
	RecordDBOperationError(ctx context.Context, operation string)
}

// PrometheusMetrics implements Metrics with prometheus collectors.
type PrometheusMetrics struct {
	registry  *prometheus.Registry
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	dbErrors  *prometheus.CounterVec
}

// NewPrometheusMetrics creates and registers the collectors on a fresh registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	m := &PrometheusMetrics{
		registry: registry,
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aln_operation_attempts_total",
			Help: "Number of service operation attempts.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aln_operation_successes_total",
			Help: "Number of service operations that completed successfully.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aln_operation_failures_total",
			Help: "Number of service operations that failed.",
		}, []string{"operation", "service"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aln_operation_duration_seconds",
			Help:    "Duration of service operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		dbErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aln_db_operation_errors_total",
			Help: "Number of database operation errors.",
		}, []string{"operation"}),
	}

	registry.MustRegister(m.attempts, m.successes, m.failures, m.durations, m.dbErrors)

	return m
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordDBOperationError(_ context.Context, operation string) {
	m.dbErrors.WithLabelValues(operation).Inc()
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// NoOpMetrics discards all recordings.
type NoOpMetrics struct{}

func NewNoop() *NoOpMetrics { return &NoOpMetrics{} }

func (NoOpMetrics) RecordOperationAttempt(context.Context, string, string)                {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string, string)                {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string, string)                {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (NoOpMetrics) RecordDBOperationError(context.Context, string)                        {}
