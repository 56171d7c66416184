package simulator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/dto"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/pipeline"
)

// recordingPublisher keeps every published event and can fail on demand
type recordingPublisher struct {
	mu     sync.Mutex
	events []dto.IngestEventRequest
	err    error
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, event *dto.IngestEventRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, *event)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestGenerator_BatchProducesValidEvents(t *testing.T) {
	g := NewGenerator(2, 3, 42)

	batch := g.Batch(500)

	require.GreaterOrEqual(t, len(batch), 500)
	tenants := map[string]bool{}
	for i := range batch {
		event := batch[i].ToEvent()
		event.Timestamp = time.Now()
		assert.True(t, pipeline.Validate(event), "event %d should be valid: %+v", i, batch[i])
		tenants[batch[i].TenantID] = true
	}
	assert.Len(t, tenants, 2)
}

func TestGenerator_FunnelShape(t *testing.T) {
	g := NewGenerator(1, 1, 7)

	counts := map[string]int{}
	for _, e := range g.Batch(5000) {
		counts[e.EventType]++
	}

	assert.Greater(t, counts[string(domain.EventImpression)], counts[string(domain.EventClick)])
	assert.Greater(t, counts[string(domain.EventClick)], counts[string(domain.EventConversion)])
	assert.Greater(t, counts[string(domain.EventView)], counts[string(domain.EventSkip)])
}

func TestGenerator_ViewsCarryDuration(t *testing.T) {
	g := NewGenerator(1, 2, 3)

	for _, e := range g.Batch(1000) {
		if e.EventType != string(domain.EventView) {
			continue
		}
		d, ok := e.ToEvent().Duration()
		require.True(t, ok)
		assert.GreaterOrEqual(t, d, 5.0)
		assert.Less(t, d, 180.0)
	}
}

func TestGenerator_SameSeedSameTraffic(t *testing.T) {
	first := NewGenerator(2, 2, 99).Batch(50)
	second := NewGenerator(2, 2, 99).Batch(50)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].EventType, second[i].EventType)
		assert.Equal(t, first[i].EntityID, second[i].EntityID)
		assert.Equal(t, first[i].TenantID, second[i].TenantID)
	}
}

func testSimulatorConfig() config.Simulator {
	return config.Simulator{
		Tenants:       2,
		Entities:      2,
		EventsPerTick: 10,
		TickInterval:  10 * time.Millisecond,
		Duration:      55 * time.Millisecond,
		Seed:          1,
	}
}

func TestRunner_Run_PublishesUntilDuration(t *testing.T) {
	publisher := &recordingPublisher{}
	runner := NewRunner(testSimulatorConfig(), publisher, zap.NewNop())

	stats, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.Ticks, 2)
	assert.GreaterOrEqual(t, stats.Published, 10*stats.Ticks)
	assert.Equal(t, stats.Published, publisher.count())
	assert.Zero(t, stats.Failed)
}

func TestRunner_Run_StopsOnCancel(t *testing.T) {
	cfg := testSimulatorConfig()
	cfg.Duration = time.Hour
	runner := NewRunner(cfg, &recordingPublisher{}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_, err := runner.Run(ctx)
		assert.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Runner did not stop after cancellation")
	}
}

func TestRunner_Run_QueueUnavailable(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("queue does not exist")}
	runner := NewRunner(testSimulatorConfig(), publisher, zap.NewNop())

	stats, err := runner.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue does not exist")
	assert.Equal(t, 1, stats.Ticks)
	assert.Zero(t, stats.Published)
}

func TestRunner_Run_InvalidConfig(t *testing.T) {
	cfg := testSimulatorConfig()
	cfg.Entities = 0

	_, err := NewRunner(cfg, &recordingPublisher{}, zap.NewNop()).Run(context.Background())

	assert.Error(t, err)
}
