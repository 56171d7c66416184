package dto

import (
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
)

// IngestEventRequest represents one analytics event sent by a tracker or producer
type IngestEventRequest struct {
	EventType string                 `json:"event_type" binding:"required" example:"impression"`
	EntityID  string                 `json:"entity_id" binding:"required" example:"camp_123"`
	TenantID  string                 `json:"tenant_id" binding:"required" example:"org_42"`
	Timestamp int64                  `json:"timestamp,omitempty" example:"1723475612"`
	Value     *float64               `json:"value,omitempty" example:"2.5"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ToEvent maps the request onto a domain event. A zero timestamp is left for
// the pipeline to stamp.
func (r *IngestEventRequest) ToEvent() *domain.AnalyticsEvent {
	event := &domain.AnalyticsEvent{
		EventType: domain.EventType(r.EventType),
		EntityID:  r.EntityID,
		TenantID:  r.TenantID,
		Value:     r.Value,
		Metadata:  r.Metadata,
	}
	if r.Timestamp > 0 {
		event.Timestamp = time.Unix(r.Timestamp, 0).UTC()
	}
	return event
}

// IngestEventsBulkRequest represents a bulk ingestion request. Individual
// events are validated by the pipeline so one bad event does not fail the batch.
type IngestEventsBulkRequest struct {
	Events []IngestEventRequest `json:"events" binding:"required,min=1,max=1000"`
}

// GetDailyMetricsRequest represents a daily aggregate lookup
type GetDailyMetricsRequest struct {
	EntityID string `uri:"entity_id"`
	TenantID string `form:"tenant_id" binding:"required" example:"org_42"`
	Date     string `form:"date" example:"2025-03-01"`
}

// GetEventStatsRequest represents a raw event count query against the archive
type GetEventStatsRequest struct {
	TenantID string `form:"tenant_id" binding:"required" example:"org_42"`
	EntityID string `form:"entity_id" example:"camp_123"`
	From     int64  `form:"from" binding:"required" example:"1723475612"`
	To       int64  `form:"to" binding:"required" example:"1723562012"`
	GroupBy  string `form:"group_by" example:"event_type"`
}

// SubscribeRequest registers a live dashboard subscription
type SubscribeRequest struct {
	TenantID  string   `json:"tenant_id" binding:"required" example:"org_42"`
	EntityIDs []string `json:"entity_ids,omitempty" binding:"omitempty,max=500,dive,required"`
}
