package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/repository"
)

// Store is an in-process MetricsStore used for development and tests
type Store struct {
	mu      sync.RWMutex
	records map[string]*domain.AggregatedMetricRecord
	locks   *repository.KeyLocker
	now     func() time.Time
}

// NewStore creates an empty in-memory metrics store
func NewStore() *Store {
	return &Store{
		records: make(map[string]*domain.AggregatedMetricRecord),
		locks:   repository.NewKeyLocker(),
		now:     time.Now,
	}
}

// Upsert creates or increments the record for key
func (s *Store) Upsert(ctx context.Context, key domain.MetricKey, delta domain.Counters) (*domain.AggregatedMetricRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.StoreError("upsert metrics", err)
	}

	unlock := s.locks.LockKey(key)
	defer unlock()

	id := recordID(key)
	now := s.now().UTC()

	s.mu.RLock()
	current, ok := s.records[id]
	s.mu.RUnlock()

	var next *domain.AggregatedMetricRecord
	if !ok {
		next = domain.NewRecord(key, delta, now)
	} else {
		copied := *current
		next = &copied
		next.Apply(delta, now)
	}

	// readers only ever see whole records swapped under the map lock
	s.mu.Lock()
	s.records[id] = next
	s.mu.Unlock()

	out := *next
	return &out, nil
}

// Get returns a copy of the stored record
func (s *Store) Get(ctx context.Context, key domain.MetricKey) (*domain.AggregatedMetricRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordID(key)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *rec
	return &out, nil
}

// Len returns the number of stored records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

func recordID(key domain.MetricKey) string {
	return key.TenantID + "|" + key.EntityID + "|" + key.Day
}
