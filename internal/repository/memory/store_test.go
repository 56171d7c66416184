package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
)

var testKey = domain.MetricKey{TenantID: "t1", EntityID: "camp1", Day: "2025-03-01"}

func TestStore_UpsertCreatesRecord(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	rec, err := store.Upsert(ctx, testKey, domain.Counters{Impressions: 1, Clicks: 1, Spent: 2.5})
	require.NoError(t, err)

	assert.Equal(t, "camp1", rec.EntityID)
	assert.Equal(t, "t1", rec.TenantID)
	assert.Equal(t, "2025-03-01", rec.Date)
	assert.Equal(t, int64(1), rec.Impressions)
	assert.InDelta(t, 100.0, rec.CTR, 1e-9)
	assert.InDelta(t, 2.5, rec.CPC, 1e-9)
}

func TestStore_UpsertIncrementsAndRecomputes(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, testKey, domain.Counters{Impressions: 9, Clicks: 1})
	require.NoError(t, err)
	rec, err := store.Upsert(ctx, testKey, domain.Counters{Impressions: 1, Clicks: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(10), rec.Impressions)
	assert.Equal(t, int64(2), rec.Clicks)
	assert.InDelta(t, 20.0, rec.CTR, 1e-9)

	stored, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, rec.Counters, stored.Counters)
	assert.Equal(t, rec.DerivedMetrics, stored.DerivedMetrics)
}

func TestStore_GetNotFound(t *testing.T) {
	store := NewStore()

	_, err := store.Get(context.Background(), domain.MetricKey{TenantID: "t1", EntityID: "missing", Day: "2025-03-01"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_TenantsDoNotShareRecords(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	other := domain.MetricKey{TenantID: "t2", EntityID: testKey.EntityID, Day: testKey.Day}

	_, err := store.Upsert(ctx, testKey, domain.Counters{Impressions: 10})
	require.NoError(t, err)
	rec, err := store.Upsert(ctx, other, domain.Counters{Clicks: 1})
	require.NoError(t, err)

	assert.Equal(t, "t2", rec.TenantID)
	assert.Equal(t, int64(0), rec.Impressions)
	assert.Equal(t, int64(1), rec.Clicks)
	assert.Equal(t, 2, store.Len())

	mine, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, int64(10), mine.Impressions)
	assert.Equal(t, int64(0), mine.Clicks)

	_, err = store.Get(ctx, domain.MetricKey{TenantID: "t3", EntityID: testKey.EntityID, Day: testKey.Day})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_UpsertCanceledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Upsert(ctx, testKey, domain.Counters{Impressions: 1})
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
	assert.Equal(t, 0, store.Len())
}

func TestStore_ConcurrentUpsertsDoNotLoseUpdates(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Upsert(ctx, testKey, domain.Counters{Impressions: 2, Clicks: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, int64(100), rec.Impressions)
	assert.Equal(t, int64(50), rec.Clicks)
	assert.InDelta(t, 50.0, rec.CTR, 1e-9)
}
