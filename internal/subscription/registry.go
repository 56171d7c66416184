package subscription

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/metrics"
)

// DefaultQueueCapacity bounds each subscription's pending update queue
const DefaultQueueCapacity = 100

// Registry tracks live subscriptions and their pending update queues.
// Broadcast scans every subscription, which is fine for tens to low hundreds of
// subscribers per process.
type Registry struct {
	mu       sync.Mutex
	subs     map[string]*entry
	capacity int
	now      func() time.Time
	log      *zap.Logger
}

type entry struct {
	sub     domain.Subscription
	pending []domain.PendingUpdate
}

// Option configures a Registry
type Option func(*Registry)

// WithQueueCapacity sets the per-subscription queue bound
func WithQueueCapacity(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates an empty subscription registry
func NewRegistry(log *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		subs:     make(map[string]*entry),
		capacity: DefaultQueueCapacity,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers interest in a tenant, optionally limited to entityIDs
func (r *Registry) Subscribe(tenantID string, entityIDs []string) domain.Subscription {
	now := r.now()

	var filter []string
	if len(entityIDs) > 0 {
		filter = make([]string, len(entityIDs))
		copy(filter, entityIDs)
	}

	sub := domain.Subscription{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		EntityIDFilter: filter,
		CreatedAt:      now,
		LastPolledAt:   now,
		Active:         true,
	}

	r.mu.Lock()
	r.subs[sub.ID] = &entry{sub: sub}
	count := len(r.subs)
	r.mu.Unlock()

	metrics.SubscriptionsActive.Set(float64(count))
	r.log.Debug("Subscription created",
		zap.String("subscription_id", sub.ID),
		zap.String("tenant_id", tenantID),
		zap.Int("entity_filter_size", len(filter)))

	return sub
}

// Unsubscribe removes a subscription. Unknown ids are a no-op.
func (r *Registry) Unsubscribe(id string) bool {
	r.mu.Lock()
	_, ok := r.subs[id]
	delete(r.subs, id)
	count := len(r.subs)
	r.mu.Unlock()

	if ok {
		metrics.SubscriptionsActive.Set(float64(count))
		r.log.Debug("Subscription removed", zap.String("subscription_id", id))
	}
	return ok
}

// Poll drains the pending queue of id and refreshes its last poll time.
// An unknown id yields nil and false.
func (r *Registry) Poll(id string) ([]domain.PendingUpdate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.subs[id]
	if !ok {
		return nil, false
	}

	e.sub.LastPolledAt = r.now()
	updates := e.pending
	e.pending = nil
	if updates == nil {
		updates = []domain.PendingUpdate{}
	}
	return updates, true
}

// Broadcast queues update on every matching subscription and returns how many received it.
// A full queue evicts its oldest entry.
func (r *Registry) Broadcast(update domain.PendingUpdate) int {
	if update.Timestamp.IsZero() {
		update.Timestamp = r.now()
	}

	delivered := 0
	dropped := 0

	r.mu.Lock()
	for _, e := range r.subs {
		if !e.sub.Matches(update.TenantID, update.EntityID) {
			continue
		}
		if len(e.pending) >= r.capacity {
			overflow := len(e.pending) - r.capacity + 1
			e.pending = append(e.pending[:0:0], e.pending[overflow:]...)
			dropped += overflow
		}
		e.pending = append(e.pending, update)
		delivered++
	}
	r.mu.Unlock()

	if delivered > 0 {
		metrics.UpdatesBroadcast.WithLabelValues(string(update.Type)).Add(float64(delivered))
	}
	if dropped > 0 {
		metrics.UpdatesDropped.Add(float64(dropped))
	}
	return delivered
}

// Reap removes subscriptions whose last poll is before cutoff and returns how many were removed
func (r *Registry) Reap(cutoff time.Time) int {
	r.mu.Lock()
	var reaped []string
	for id, e := range r.subs {
		if e.sub.LastPolledAt.Before(cutoff) {
			e.sub.Active = false
			delete(r.subs, id)
			reaped = append(reaped, id)
		}
	}
	count := len(r.subs)
	r.mu.Unlock()

	if len(reaped) > 0 {
		metrics.SubscriptionsActive.Set(float64(count))
		metrics.SubscriptionsReaped.Add(float64(len(reaped)))
		r.log.Info("Reaped inactive subscriptions",
			zap.Int("reaped", len(reaped)),
			zap.Int("remaining", count),
			zap.Time("cutoff", cutoff))
	}
	return len(reaped)
}

// Get returns a snapshot of the subscription with id
func (r *Registry) Get(id string) (domain.Subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.subs[id]
	if !ok {
		return domain.Subscription{}, false
	}
	return e.sub, true
}

// Len returns the number of registered subscriptions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// TenantIDs returns the distinct tenants with at least one subscription
func (r *Registry) TenantIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(r.subs))
	var out []string
	for _, e := range r.subs {
		if _, ok := seen[e.sub.TenantID]; ok {
			continue
		}
		seen[e.sub.TenantID] = struct{}{}
		out = append(out, e.sub.TenantID)
	}
	return out
}
