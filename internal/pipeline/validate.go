package pipeline

import (
	"fmt"
	"strings"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
)

// Validate reports whether e can enter the buffer. It has no side effects.
func Validate(e *domain.AnalyticsEvent) bool {
	return Check(e) == nil
}

// Check returns the reason e is rejected, wrapped in domain.ErrInvalidEvent, or nil
func Check(e *domain.AnalyticsEvent) error {
	if e == nil {
		return fmt.Errorf("%w: event is nil", domain.ErrInvalidEvent)
	}
	if !e.EventType.Valid() {
		return fmt.Errorf("%w: unknown event type %q", domain.ErrInvalidEvent, e.EventType)
	}
	if strings.TrimSpace(e.EntityID) == "" {
		return fmt.Errorf("%w: entityId is required", domain.ErrInvalidEvent)
	}
	if strings.TrimSpace(e.TenantID) == "" {
		return fmt.Errorf("%w: tenantId is required", domain.ErrInvalidEvent)
	}
	return nil
}
