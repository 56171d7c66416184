package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/metrics"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/repository"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/subscription"
)

// Archiver receives every batch whose aggregates were persisted
type Archiver interface {
	InsertBatch(ctx context.Context, events []*domain.AnalyticsEvent) (int, error)
}

// Rejection describes one event refused by IngestBatch
type Rejection struct {
	Index  int
	Reason string
}

// BatchResult is the outcome of IngestBatch. Invalid events never fail the batch.
type BatchResult struct {
	Accepted int
	Rejected int
	Errors   []Rejection
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithArchiver archives drained batches after they are persisted
func WithArchiver(a Archiver) Option {
	return func(p *Pipeline) {
		p.archiver = a
	}
}

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// Pipeline buffers validated events, flushes them into the metrics store on a
// size threshold or timer, and notifies subscribers of raw events, recomputed
// aggregates and pipeline health.
type Pipeline struct {
	cfg      config.Pipeline
	store    repository.MetricsStore
	registry *subscription.Registry
	reaper   *subscription.Reaper
	archiver Archiver
	buf      *buffer
	now      func() time.Time
	log      *zap.Logger

	flushing atomic.Bool
	dropped  atomic.Int64

	statsMu           sync.Mutex
	flushes           int64
	failedFlushes     int64
	lastFlushAt       time.Time
	lastFlushDuration time.Duration
	lastError         string

	cancel     context.CancelFunc
	wg         sync.WaitGroup
	background sync.WaitGroup
	stopMu     sync.Mutex
	stopped    bool
}

// New creates a pipeline. Call Start to run the flush scheduler and reaper.
func New(cfg *config.Config, store repository.MetricsStore, registry *subscription.Registry, log *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg.Pipeline,
		store:    store,
		registry: registry,
		reaper: subscription.NewReaper(registry,
			cfg.Subscriptions.ReapInterval,
			cfg.Subscriptions.InactivityWindow,
			log.Named("reaper")),
		buf: newBuffer(cfg.Pipeline.MaxBufferSize),
		now: time.Now,
		log: log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry exposes the subscription registry fed by this pipeline
func (p *Pipeline) Registry() *subscription.Registry {
	return p.registry
}

// Ingest validates and buffers one event. It never waits for a flush.
func (p *Pipeline) Ingest(ctx context.Context, e *domain.AnalyticsEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := Check(e); err != nil {
		metrics.EventsRejected.Inc()
		p.log.Warn("Dropping invalid event", zap.Error(err))
		return err
	}

	event := p.stamp(e)
	size := p.push(event)
	p.notifyEvent(event)

	if size >= p.cfg.FlushThreshold {
		p.log.Debug("Flush threshold reached", zap.Int("buffer_size", size))
		p.triggerFlush()
	}
	return nil
}

// IngestBatch buffers every valid event and forces one flush regardless of the threshold
func (p *Pipeline) IngestBatch(ctx context.Context, events []*domain.AnalyticsEvent) (BatchResult, error) {
	var result BatchResult
	if err := ctx.Err(); err != nil {
		return result, err
	}

	accepted := make([]*domain.AnalyticsEvent, 0, len(events))
	for i, e := range events {
		if err := Check(e); err != nil {
			metrics.EventsRejected.Inc()
			result.Rejected++
			result.Errors = append(result.Errors, Rejection{Index: i, Reason: err.Error()})
			continue
		}
		accepted = append(accepted, p.stamp(e))
	}

	if len(result.Errors) > 0 {
		p.log.Warn("Dropped invalid events from batch",
			zap.Int("rejected", result.Rejected),
			zap.Int("batch_size", len(events)))
	}

	if len(accepted) == 0 {
		return result, nil
	}

	p.push(accepted...)
	for _, e := range accepted {
		p.notifyEvent(e)
	}
	result.Accepted = len(accepted)

	p.triggerFlush()
	return result, nil
}

// stamp returns a copy of e carrying a server timestamp when it had none
func (p *Pipeline) stamp(e *domain.AnalyticsEvent) *domain.AnalyticsEvent {
	event := *e
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now().UTC()
	}
	return &event
}

func (p *Pipeline) push(events ...*domain.AnalyticsEvent) int {
	size, dropped := p.buf.append(events...)
	for _, e := range events {
		metrics.EventsIngested.WithLabelValues(string(e.EventType)).Inc()
	}
	p.recordDropped(dropped)
	metrics.BufferSize.Set(float64(size))
	return size
}

func (p *Pipeline) recordDropped(n int) {
	if n == 0 {
		return
	}
	p.dropped.Add(int64(n))
	metrics.EventsDropped.Add(float64(n))
	p.log.Warn("Buffer full, dropped oldest events",
		zap.Int("dropped", n),
		zap.Int("max_buffer_size", p.cfg.MaxBufferSize))
}

func (p *Pipeline) notifyEvent(e *domain.AnalyticsEvent) {
	p.registry.Broadcast(domain.PendingUpdate{
		Type:      domain.UpdateEvent,
		Payload:   e,
		Timestamp: p.now().UTC(),
		TenantID:  e.TenantID,
		EntityID:  e.EntityID,
	})
}

// triggerFlush runs a flush in the background unless one is already running
// or the pipeline is stopping
func (p *Pipeline) triggerFlush() {
	if p.flushing.Load() {
		return
	}

	p.stopMu.Lock()
	defer p.stopMu.Unlock()
	if p.stopped {
		return
	}

	p.background.Add(1)
	go func() {
		defer p.background.Done()
		if err := p.Flush(context.Background()); err != nil {
			p.log.Error("Background flush failed", zap.Error(err))
		}
	}()
}

// Flush drains the buffer, aggregates it and persists every group. A flush
// already in progress makes this call a no-op. Groups that fail to persist are
// put back at the head of the buffer; persisted groups are not.
func (p *Pipeline) Flush(ctx context.Context) error {
	if !p.flushing.CompareAndSwap(false, true) {
		return nil
	}
	defer p.flushing.Store(false)

	events := p.buf.drain()
	metrics.BufferSize.Set(0)
	if len(events) == 0 {
		return nil
	}

	timer := metrics.NewTimer()
	storeCtx, cancel := context.WithTimeout(ctx, p.cfg.StoreTimeout)
	defer cancel()

	groups := Aggregate(events)

	var (
		persisted []*domain.AnalyticsEvent
		failed    []*domain.AnalyticsEvent
		errs      []error
	)

	for _, g := range groups {
		p.log.Debug("Persisting aggregation group",
			zap.String("key", g.Key.String()),
			zap.Int("event_count", len(g.Events)),
			zap.Float64("batch_ctr", g.Derived.CTR))

		record, err := p.store.Upsert(storeCtx, g.Key, g.Counters)
		if err != nil {
			metrics.GroupsPersisted.WithLabelValues("failure").Inc()
			p.log.Error("Failed to persist aggregation group",
				zap.String("key", g.Key.String()),
				zap.Int("event_count", len(g.Events)),
				zap.Error(err))
			failed = append(failed, g.Events...)
			errs = append(errs, err)
			continue
		}

		metrics.GroupsPersisted.WithLabelValues("success").Inc()
		persisted = append(persisted, g.Events...)
		p.registry.Broadcast(domain.PendingUpdate{
			Type:      domain.UpdateMetrics,
			Payload:   record,
			Timestamp: p.now().UTC(),
			TenantID:  g.Key.TenantID,
			EntityID:  g.Key.EntityID,
		})
	}

	if len(failed) > 0 {
		p.recordDropped(p.buf.requeue(failed))
		metrics.BufferSize.Set(float64(p.buf.len()))
	}

	p.archive(ctx, persisted)

	duration := timer.ObserveDuration(metrics.FlushDuration)

	var flushErr error
	if len(errs) > 0 {
		flushErr = fmt.Errorf("failed to persist %d of %d groups: %w", len(errs), len(groups), errors.Join(errs...))
	}
	p.recordFlush(duration, flushErr)

	if flushErr != nil {
		p.log.Error("Flush completed with failures",
			zap.Int("event_count", len(events)),
			zap.Int("group_count", len(groups)),
			zap.Int("requeued", len(failed)),
			zap.Duration("duration", duration),
			zap.Error(flushErr))
	} else {
		p.log.Info("Flush completed",
			zap.Int("event_count", len(events)),
			zap.Int("group_count", len(groups)),
			zap.Duration("duration", duration))
	}

	p.notifyStatus()
	return flushErr
}

func (p *Pipeline) archive(ctx context.Context, events []*domain.AnalyticsEvent) {
	if p.archiver == nil || len(events) == 0 {
		return
	}

	archiveCtx, cancel := context.WithTimeout(ctx, p.cfg.StoreTimeout)
	defer cancel()

	n, err := p.archiver.InsertBatch(archiveCtx, events)
	if err != nil {
		metrics.EventsArchived.WithLabelValues("failure").Add(float64(len(events)))
		p.log.Error("Failed to archive events", zap.Int("event_count", len(events)), zap.Error(err))
		return
	}
	metrics.EventsArchived.WithLabelValues("success").Add(float64(n))
}

func (p *Pipeline) recordFlush(duration time.Duration, err error) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	p.flushes++
	p.lastFlushAt = p.now().UTC()
	p.lastFlushDuration = duration
	if err != nil {
		p.failedFlushes++
		p.lastError = err.Error()
		metrics.Flushes.WithLabelValues("failure").Inc()
		return
	}
	p.lastError = ""
	metrics.Flushes.WithLabelValues("success").Inc()
}

// notifyStatus sends the pipeline health to every tenant with a subscription
func (p *Pipeline) notifyStatus() {
	status := p.Status()
	for _, tenantID := range p.registry.TenantIDs() {
		p.registry.Broadcast(domain.PendingUpdate{
			Type:      domain.UpdateStatus,
			Payload:   status,
			Timestamp: p.now().UTC(),
			TenantID:  tenantID,
		})
	}
}

// Status returns a snapshot of buffer depth and flush health
func (p *Pipeline) Status() domain.PipelineStatus {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	return domain.PipelineStatus{
		Buffered:          p.buf.len(),
		Dropped:           p.dropped.Load(),
		Flushes:           p.flushes,
		FailedFlushes:     p.failedFlushes,
		LastFlushAt:       p.lastFlushAt,
		LastFlushDuration: p.lastFlushDuration,
		LastError:         p.lastError,
		Healthy:           p.lastError == "",
		Subscriptions:     p.registry.Len(),
	}
}

// Start launches the flush timer and the subscription reaper
func (p *Pipeline) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.log.Info("Starting pipeline",
		zap.Int("flush_threshold", p.cfg.FlushThreshold),
		zap.Duration("flush_interval", p.cfg.FlushInterval),
		zap.Int("max_buffer_size", p.cfg.MaxBufferSize))

	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		p.runScheduler(ctx)
	}()
	go func() {
		defer p.wg.Done()
		p.reaper.Run(ctx)
	}()
}

func (p *Pipeline) runScheduler(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Flush scheduler shutting down")
			return
		case <-ticker.C:
			if err := p.Flush(ctx); err != nil {
				p.log.Error("Scheduled flush failed", zap.Error(err))
			}
		}
	}
}

// Stop halts the scheduler and reaper, waits for background flushes and
// flushes whatever is still buffered. Later ingests are buffered but no longer
// trigger flushes.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.stopMu.Lock()
	p.stopped = true
	p.stopMu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.background.Wait()

	if n := p.buf.len(); n > 0 {
		p.log.Info("Flushing final batch", zap.Int("event_count", n))
	}
	return p.Flush(ctx)
}
