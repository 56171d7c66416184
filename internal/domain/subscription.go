package domain

import "time"

// UpdateType is the shape of a queued subscriber notification
type UpdateType string

const (
	UpdateEvent   UpdateType = "event"
	UpdateMetrics UpdateType = "metrics"
	UpdateStatus  UpdateType = "status"
)

// Subscription is a live dashboard interest registration
type Subscription struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	EntityIDFilter []string  `json:"entity_id_filter,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastPolledAt   time.Time `json:"last_polled_at"`
	Active         bool      `json:"active"`
}

// Matches reports whether an update for tenantID/entityID is deliverable to s.
// An empty filter means every entity of the tenant.
func (s *Subscription) Matches(tenantID, entityID string) bool {
	if !s.Active || s.TenantID != tenantID {
		return false
	}
	if len(s.EntityIDFilter) == 0 {
		return true
	}
	for _, id := range s.EntityIDFilter {
		if id == entityID {
			return true
		}
	}
	return false
}

// PendingUpdate is one queued notification for a subscription
type PendingUpdate struct {
	Type      UpdateType `json:"type"`
	Payload   any        `json:"payload"`
	Timestamp time.Time  `json:"timestamp"`
	TenantID  string     `json:"tenant_id"`
	EntityID  string     `json:"entity_id,omitempty"`
}

// PipelineStatus is the health snapshot carried by status updates
type PipelineStatus struct {
	Buffered          int           `json:"buffered"`
	Dropped           int64         `json:"dropped"`
	Flushes           int64         `json:"flushes"`
	FailedFlushes     int64         `json:"failed_flushes"`
	LastFlushAt       time.Time     `json:"last_flush_at,omitempty"`
	LastFlushDuration time.Duration `json:"last_flush_duration"`
	LastError         string        `json:"last_error,omitempty"`
	Healthy           bool          `json:"healthy"`
	Subscriptions     int           `json:"subscriptions"`
}
