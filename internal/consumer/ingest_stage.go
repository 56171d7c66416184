package consumer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
)

// IngestStageConfig configures size and time batching of parsed envelopes
type IngestStageConfig struct {
	MaxBatchSize int
	FlushTimeout time.Duration
}

// IngestStage batches envelopes and hands them to the aggregation pipeline.
// Messages are acknowledged once the pipeline accepted the batch into its
// buffer, so a crash before the next flush loses them.
type IngestStage struct {
	ingester BatchIngester
	config   IngestStageConfig
	log      *zap.Logger
}

// NewIngestStage creates a new ingest stage
func NewIngestStage(ingester BatchIngester, config IngestStageConfig, log *zap.Logger) *IngestStage {
	return &IngestStage{
		ingester: ingester,
		config:   config,
		log:      log,
	}
}

// Start consumes envelopes until the input closes or ctx is canceled
func (s *IngestStage) Start(ctx context.Context, in <-chan *Envelope) {
	ticker := time.NewTicker(s.config.FlushTimeout)
	defer ticker.Stop()

	batch := make([]*Envelope, 0, s.config.MaxBatchSize)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Ingest stage shutting down")
			if len(batch) > 0 {
				s.log.Info("Handing off final batch", zap.Int("envelope_count", len(batch)))
				// ctx is already canceled; the hand-off and acks get a fresh one
				s.processBatch(context.WithoutCancel(ctx), batch)
			}
			return

		case envelope, ok := <-in:
			if !ok {
				s.log.Info("Ingest stage input channel closed")
				if len(batch) > 0 {
					s.processBatch(context.WithoutCancel(ctx), batch)
				}
				return
			}

			batch = append(batch, envelope)

			if len(batch) >= s.config.MaxBatchSize {
				s.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, s.config.MaxBatchSize)
				ticker.Reset(s.config.FlushTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, s.config.MaxBatchSize)
			}
		}
	}
}

// processBatch hands the events to the pipeline, then acks or nacks every envelope.
// Events the pipeline rejects are acked too; redelivery would not make them valid.
func (s *IngestStage) processBatch(ctx context.Context, envelopes []*Envelope) {
	events := make([]*domain.AnalyticsEvent, len(envelopes))
	for i, env := range envelopes {
		events[i] = env.Event
	}

	result, err := s.ingester.IngestBatch(ctx, events)
	if err != nil {
		s.log.Error("Failed to ingest batch",
			zap.Error(err),
			zap.Int("event_count", len(events)))
		s.nackAll(ctx, envelopes)
		return
	}

	for _, rejection := range result.Errors {
		s.log.Warn("Queued event rejected",
			zap.String("message_id", envelopes[rejection.Index].MessageID),
			zap.String("reason", rejection.Reason))
	}

	s.log.Info("Queued events handed off",
		zap.Int("accepted", result.Accepted),
		zap.Int("rejected", result.Rejected))
	s.ackAll(ctx, envelopes)
}

func (s *IngestStage) ackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Ack(ctx); err != nil {
			s.log.Error("Failed to ack envelope",
				zap.String("message_id", env.MessageID),
				zap.Error(err))
		}
	}
}

func (s *IngestStage) nackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Nack(ctx); err != nil {
			s.log.Error("Failed to nack envelope",
				zap.String("message_id", env.MessageID),
				zap.Error(err))
		}
	}
}
