package subscription

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reaper periodically evicts subscriptions not polled within the inactivity window
type Reaper struct {
	registry         *Registry
	interval         time.Duration
	inactivityWindow time.Duration
	log              *zap.Logger
}

// NewReaper creates a reaper for registry
func NewReaper(registry *Registry, interval, inactivityWindow time.Duration, log *zap.Logger) *Reaper {
	return &Reaper{
		registry:         registry,
		interval:         interval,
		inactivityWindow: inactivityWindow,
		log:              log,
	}
}

// Run reaps on every tick until ctx is cancelled
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("Subscription reaper started",
		zap.Duration("interval", r.interval),
		zap.Duration("inactivity_window", r.inactivityWindow))

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Subscription reaper stopped")
			return
		case <-ticker.C:
			r.ReapOnce()
		}
	}
}

// ReapOnce runs a single reaper cycle
func (r *Reaper) ReapOnce() int {
	return r.registry.Reap(r.registry.now().Add(-r.inactivityWindow))
}
