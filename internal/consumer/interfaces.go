package consumer

import (
	"context"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/pipeline"
)

// MessageParser defines the interface for parsing raw message bytes into events
type MessageParser interface {
	Parse(body []byte) (*domain.AnalyticsEvent, error)
}

// BatchIngester accepts parsed events into the aggregation pipeline
type BatchIngester interface {
	IngestBatch(ctx context.Context, events []*domain.AnalyticsEvent) (pipeline.BatchResult, error)
}
