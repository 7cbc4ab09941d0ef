package metrics

import "context"

// Collector records versioning service activity.
// Implementations include the Prometheus-backed MetricsCollector and the
// no-op NoopCollector used when metrics are disabled.
type Collector interface {
	RecordOperation(ctx context.Context, operation string, status string, durationMs int64)
	RecordError(ctx context.Context, operation string, errorCode string)
	RecordEvent(ctx context.Context, kind string, targetType string)
	SetStatementCount(ctx context.Context, count int64)
}
