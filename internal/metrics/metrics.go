package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector provides Prometheus metrics for provstore operations.
// It owns a private registry so several collectors can coexist in one
// process (tests, embedded servers).
type MetricsCollector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
	eventsTotal       *prometheus.CounterVec
	statementCount    prometheus.Gauge
	registry          *prometheus.Registry
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	operationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provstore_operations_total",
			Help: "Total number of versioning operations by type and status",
		},
		[]string{"operation", "status"},
	)

	operationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provstore_operation_duration_seconds",
			Help:    "Duration of versioning operations by type",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"operation"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provstore_errors_total",
			Help: "Total number of failed operations by error code",
		},
		[]string{"operation", "code"},
	)

	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provstore_events_total",
			Help: "Total number of committed events by kind and target type",
		},
		[]string{"kind", "target_type"},
	)

	statementCount := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "provstore_statements",
			Help: "Number of statements in the graph store",
		},
	)

	registry.MustRegister(operationsTotal)
	registry.MustRegister(operationDuration)
	registry.MustRegister(errorsTotal)
	registry.MustRegister(eventsTotal)
	registry.MustRegister(statementCount)

	return &MetricsCollector{
		operationsTotal:   operationsTotal,
		operationDuration: operationDuration,
		errorsTotal:       errorsTotal,
		eventsTotal:       eventsTotal,
		statementCount:    statementCount,
		registry:          registry,
	}
}

// RecordOperation records the completion of an operation.
func (m *MetricsCollector) RecordOperation(ctx context.Context, operation string, status string, durationMs int64) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(float64(durationMs) / 1000.0)
}

// RecordError records a failed operation.
func (m *MetricsCollector) RecordError(ctx context.Context, operation string, errorCode string) {
	m.errorsTotal.WithLabelValues(operation, errorCode).Inc()
}

// RecordEvent records a committed event.
func (m *MetricsCollector) RecordEvent(ctx context.Context, kind string, targetType string) {
	m.eventsTotal.WithLabelValues(kind, targetType).Inc()
}

// SetStatementCount sets the current statement count.
func (m *MetricsCollector) SetStatementCount(ctx context.Context, count int64) {
	m.statementCount.Set(float64(count))
}

// Registry returns the Prometheus registry for exposure by an embedding server.
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}
