package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/queue"
)

// Stats summarizes a simulation run
type Stats struct {
	Ticks     int
	Published int
	Failed    int
}

// Runner publishes generated batches on a fixed tick
type Runner struct {
	generator *Generator
	publisher queue.QueuePublisher
	cfg       config.Simulator
	log       *zap.Logger
}

// NewRunner creates a runner publishing through publisher
func NewRunner(cfg config.Simulator, publisher queue.QueuePublisher, log *zap.Logger) *Runner {
	return &Runner{
		generator: NewGenerator(cfg.Tenants, cfg.Entities, cfg.Seed),
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// Run publishes until cfg.Duration elapses or ctx is canceled. It fails only
// when every publish of a tick fails, which usually means the queue is gone.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	if r.cfg.Tenants <= 0 || r.cfg.Entities <= 0 || r.cfg.EventsPerTick <= 0 {
		return stats, fmt.Errorf("simulator needs positive tenants, entities and events per tick")
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	r.log.Info("Simulation started",
		zap.Int("tenants", r.cfg.Tenants),
		zap.Int("entities", r.cfg.Entities),
		zap.Int("events_per_tick", r.cfg.EventsPerTick),
		zap.Duration("duration", r.cfg.Duration))

	for {
		if err := r.tick(ctx, &stats); err != nil {
			return stats, err
		}

		select {
		case <-ctx.Done():
			r.log.Info("Simulation finished",
				zap.Int("ticks", stats.Ticks),
				zap.Int("published", stats.Published),
				zap.Int("failed", stats.Failed))
			return stats, nil
		case <-ticker.C:
		}
	}
}

func (r *Runner) tick(ctx context.Context, stats *Stats) error {
	batch := r.generator.Batch(r.cfg.EventsPerTick)
	stats.Ticks++

	var lastErr error
	published := 0
	for i := range batch {
		if err := r.publisher.PublishEvent(ctx, &batch[i]); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			stats.Failed++
			lastErr = err
			continue
		}
		published++
	}
	stats.Published += published

	if published == 0 && lastErr != nil {
		return fmt.Errorf("failed to publish any event of tick %d: %w", stats.Ticks, lastErr)
	}
	if lastErr != nil && !errors.Is(lastErr, context.Canceled) {
		r.log.Warn("Some events failed to publish",
			zap.Int("tick", stats.Ticks),
			zap.Error(lastErr))
	}
	return nil
}
