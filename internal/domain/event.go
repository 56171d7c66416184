package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// EventType is the kind of behavioral event observed for an entity
type EventType string

const (
	EventImpression EventType = "impression"
	EventClick      EventType = "click"
	EventConversion EventType = "conversion"
	EventView       EventType = "view"
	EventEngagement EventType = "engagement"
	EventCompletion EventType = "completion"
	EventSkip       EventType = "skip"
)

// EventTypes lists every accepted event type
var EventTypes = []EventType{
	EventImpression,
	EventClick,
	EventConversion,
	EventView,
	EventEngagement,
	EventCompletion,
	EventSkip,
}

// Valid reports whether t is one of the enumerated event types
func (t EventType) Valid() bool {
	switch t {
	case EventImpression, EventClick, EventConversion, EventView,
		EventEngagement, EventCompletion, EventSkip:
		return true
	}
	return false
}

// Metadata keys understood by the aggregation engine
const (
	MetaDuration  = "duration"
	MetaSessionID = "session_id"
	MetaDevice    = "device_type"
	MetaGeo       = "geo"
	MetaPosition  = "position"
)

// AnalyticsEvent represents one observed occurrence for an entity (e.g. a campaign)
type AnalyticsEvent struct {
	EventType EventType      `json:"event_type"`
	EntityID  string         `json:"entity_id"`
	TenantID  string         `json:"tenant_id"`
	Timestamp time.Time      `json:"timestamp"`
	Value     *float64       `json:"value,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Amount returns the monetary value of the event, 0 when absent or not finite
func (e *AnalyticsEvent) Amount() float64 {
	if e.Value == nil || !finite(*e.Value) {
		return 0
	}
	return *e.Value
}

// Duration returns metadata.duration in seconds and whether a usable value was present
func (e *AnalyticsEvent) Duration() (float64, bool) {
	if e.Metadata == nil {
		return 0, false
	}
	raw, ok := e.Metadata[MetaDuration]
	if !ok || raw == nil {
		return 0, false
	}

	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	// ParseFloat accepts "Inf" and "NaN"
	if !finite(f) {
		return 0, false
	}
	return f, true
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Float64 is a convenience for building optional event values
func Float64(v float64) *float64 {
	return &v
}
