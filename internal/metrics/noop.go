package metrics

import "context"

// NoopCollector discards everything.
type NoopCollector struct{}

// NewNoopCollector creates a no-op collector.
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (n *NoopCollector) RecordOperation(ctx context.Context, operation string, status string, durationMs int64) {
}

func (n *NoopCollector) RecordError(ctx context.Context, operation string, errorCode string) {}

func (n *NoopCollector) RecordEvent(ctx context.Context, kind string, targetType string) {}

func (n *NoopCollector) SetStatementCount(ctx context.Context, count int64) {}
