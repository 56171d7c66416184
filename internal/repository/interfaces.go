package repository

import (
	"context"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
)

// MetricsStore is the boundary to the authoritative store of daily aggregates
type MetricsStore interface {
	// Upsert creates the record for key seeded with delta, or increments the
	// existing counters by delta and recomputes every derived field from the
	// cumulative counters in the same logical operation. Counters never decrease.
	Upsert(ctx context.Context, key domain.MetricKey, delta domain.Counters) (*domain.AggregatedMetricRecord, error)

	// Get returns the record for key, or domain.ErrNotFound. Records of
	// other tenants are never returned.
	Get(ctx context.Context, key domain.MetricKey) (*domain.AggregatedMetricRecord, error)

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close releases resources held by the store
	Close() error
}

// EventQuery represents the parameters of a raw event count query
type EventQuery struct {
	TenantID string
	EntityID string
	From     int64
	To       int64
	GroupBy  string
}

// EventGroupResult represents the event count of one group
type EventGroupResult struct {
	GroupValue string
	TotalCount uint64
}

// EventCountResult represents the result of a raw event count query
type EventCountResult struct {
	TotalCount uint64
	Groups     []EventGroupResult
}

// EventArchive stores raw events drained from the pipeline
type EventArchive interface {
	// InitSchema creates the archive tables if they don't exist
	InitSchema(ctx context.Context) error

	// InsertBatch archives a batch of events and returns how many were written
	InsertBatch(ctx context.Context, events []*domain.AnalyticsEvent) (int, error)

	// CountEvents returns raw event counts for the query
	CountEvents(ctx context.Context, query EventQuery) (*EventCountResult, error)

	Ping(ctx context.Context) error
	Close() error
}
