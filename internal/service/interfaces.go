package service

import (
	"context"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/dto"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/pipeline"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/repository"
)

// AnalyticsServicer defines the interface for analytics service operations
type AnalyticsServicer interface {
	ProcessEvent(ctx context.Context, event *dto.IngestEventRequest) error
	ProcessBulkEvents(ctx context.Context, events []dto.IngestEventRequest) (*dto.IngestBulkEventsResponse, error)
	GetDailyMetrics(ctx context.Context, req *dto.GetDailyMetricsRequest) (*dto.DailyMetricsResponse, error)
	GetEventStats(ctx context.Context, req *dto.GetEventStatsRequest) (*dto.EventStatsResponse, error)
	Subscribe(req *dto.SubscribeRequest) *dto.SubscriptionResponse
	Poll(subscriptionID string) *dto.PollResponse
	Unsubscribe(subscriptionID string) bool
	Status(ctx context.Context) *dto.StatusResponse
}

// Ingester is the write side of the pipeline
type Ingester interface {
	Ingest(ctx context.Context, e *domain.AnalyticsEvent) error
	IngestBatch(ctx context.Context, events []*domain.AnalyticsEvent) (pipeline.BatchResult, error)
	Status() domain.PipelineStatus
}

// Subscriptions is the subscription registry as seen by the transport
type Subscriptions interface {
	Subscribe(tenantID string, entityIDs []string) domain.Subscription
	Poll(id string) ([]domain.PendingUpdate, bool)
	Unsubscribe(id string) bool
}

// EventCounter answers raw event count queries
type EventCounter interface {
	CountEvents(ctx context.Context, query repository.EventQuery) (*repository.EventCountResult, error)
}
