package consumer

import (
	"context"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
)

// Envelope carries a parsed analytics event with its queue acknowledgment callbacks
type Envelope struct {
	Event     *domain.AnalyticsEvent
	MessageID string
	ack       func(context.Context) error
	nack      func(context.Context) error
}

// NewEnvelope creates a new message envelope
func NewEnvelope(event *domain.AnalyticsEvent, messageID string, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		Event:     event,
		MessageID: messageID,
		ack:       ack,
		nack:      nack,
	}
}

// Ack acknowledges the hand-off and removes the message from the queue
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack != nil {
		return e.ack(ctx)
	}
	return nil
}

// Nack leaves the message on the queue for redelivery
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack != nil {
		return e.nack(ctx)
	}
	return nil
}
