package pipeline

import (
	"sync"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
)

// buffer is the bounded in-memory event list between ingestion and flush.
// When full, the oldest events are dropped to admit new ones.
type buffer struct {
	mu     sync.Mutex
	events []*domain.AnalyticsEvent
	max    int
}

func newBuffer(max int) *buffer {
	return &buffer{max: max}
}

// append adds events at the tail and returns the new length and how many old events were dropped
func (b *buffer) append(events ...*domain.AnalyticsEvent) (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, events...)
	dropped := b.trim()
	return len(b.events), dropped
}

// drain removes and returns everything buffered
func (b *buffer) drain() []*domain.AnalyticsEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.events
	b.events = nil
	return out
}

// requeue puts events back at the head, ahead of anything ingested since they were drained
func (b *buffer) requeue(events []*domain.AnalyticsEvent) int {
	if len(events) == 0 {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	merged := make([]*domain.AnalyticsEvent, 0, len(events)+len(b.events))
	merged = append(merged, events...)
	merged = append(merged, b.events...)
	b.events = merged
	return b.trim()
}

func (b *buffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// trim enforces the bound by discarding from the head. Caller holds mu.
func (b *buffer) trim() int {
	if b.max <= 0 || len(b.events) <= b.max {
		return 0
	}
	overflow := len(b.events) - b.max
	n := copy(b.events, b.events[overflow:])
	for i := n; i < len(b.events); i++ {
		b.events[i] = nil
	}
	b.events = b.events[:n]
	return overflow
}
