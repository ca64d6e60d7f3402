package port

import (
	"context"
	"time"
)

// GuildMetric is one engagement datum of a guild exported to an external observability platform.
type GuildMetric struct {
	Name      string
	GuildID   string
	Value     float64
	Unit      string
	Timestamp time.Time
}

// MetricsPublisher defines the interface for publishing guild metrics to external observability platforms.
type MetricsPublisher interface {
	// PublishBatch publishes multiple metrics in a single operation.
	// Implementations should handle batching constraints (e.g., CloudWatch's 1000 metrics/request limit).
	PublishBatch(ctx context.Context, metrics []GuildMetric) error

	// Flush forces immediate publication of any buffered metrics.
	// Should be called during graceful shutdown to prevent data loss.
	Flush(ctx context.Context) error
}
