package dto

import (
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"entity_id is required"`
}

// Error codes returned in ErrorResponse.Error
const (
	ErrCodeValidation  = "validation_error"
	ErrCodeNotFound    = "not_found"
	ErrCodeInternal    = "internal_error"
	ErrCodeUnavailable = "unavailable"
)

// IngestEventResponse represents an accepted event
type IngestEventResponse struct {
	Status string `json:"status" example:"accepted"`
}

// IngestBulkEventsResponse represents the partial-success outcome of a bulk ingest
type IngestBulkEventsResponse struct {
	Accepted int      `json:"accepted" example:"5"`
	Rejected int      `json:"rejected" example:"0"`
	Errors   []string `json:"errors,omitempty" example:"event 3: unknown event type \"hover\""`
}

// DailyMetricsResponse represents the stored aggregate of one entity on one day
type DailyMetricsResponse struct {
	domain.AggregatedMetricRecord
}

// EventStatsGroup represents archived event counts for a specific group
type EventStatsGroup struct {
	GroupValue string `json:"group_value" example:"click"`
	TotalCount uint64 `json:"total_count" example:"1500"`
}

// EventStatsResponse represents the raw event count query response
type EventStatsResponse struct {
	TenantID   string            `json:"tenant_id" example:"org_42"`
	EntityID   string            `json:"entity_id,omitempty" example:"camp_123"`
	From       int64             `json:"from" example:"1723475612"`
	To         int64             `json:"to" example:"1723562012"`
	TotalCount uint64            `json:"total_count" example:"5000"`
	GroupBy    string            `json:"group_by,omitempty" example:"event_type"`
	Groups     []EventStatsGroup `json:"groups,omitempty"`
}

// SubscriptionResponse represents a created subscription
type SubscriptionResponse struct {
	SubscriptionID string    `json:"subscription_id" example:"3f1c8a52-0d4e-4e0b-9a57-2b7b1f0b9c11"`
	TenantID       string    `json:"tenant_id" example:"org_42"`
	EntityIDs      []string  `json:"entity_ids,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// PollResponse carries the updates drained from a subscription queue. Active
// is false when the subscription is unknown or was reaped.
type PollResponse struct {
	SubscriptionID string                 `json:"subscription_id"`
	Active         bool                   `json:"active"`
	Updates        []domain.PendingUpdate `json:"updates"`
}

// StatusResponse represents pipeline and store health
type StatusResponse struct {
	Pipeline       domain.PipelineStatus `json:"pipeline"`
	StoreReachable bool                  `json:"store_reachable"`
	StoreError     string                `json:"store_error,omitempty"`
	ArchiveEnabled bool                  `json:"archive_enabled"`
}
