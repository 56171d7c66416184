package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/pipeline"
)

// MockBatchIngester is a mock implementation of BatchIngester
type MockBatchIngester struct {
	mock.Mock
}

func (m *MockBatchIngester) IngestBatch(ctx context.Context, events []*domain.AnalyticsEvent) (pipeline.BatchResult, error) {
	args := m.Called(ctx, events)
	return args.Get(0).(pipeline.BatchResult), args.Error(1)
}

// trackedEnvelope counts ack and nack calls
type trackedEnvelope struct {
	*Envelope
	acks  *atomic.Int32
	nacks *atomic.Int32
}

func createTestEnvelope(entityID string) trackedEnvelope {
	acks := new(atomic.Int32)
	nacks := new(atomic.Int32)
	env := NewEnvelope(testEvent(domain.EventImpression, entityID), "msg-"+entityID,
		func(ctx context.Context) error {
			acks.Add(1)
			return nil
		},
		func(ctx context.Context) error {
			nacks.Add(1)
			return nil
		})
	return trackedEnvelope{Envelope: env, acks: acks, nacks: nacks}
}

func TestIngestStage_Start_BatchSizeThreshold(t *testing.T) {
	mockIngester := new(MockBatchIngester)
	stage := NewIngestStage(mockIngester, IngestStageConfig{
		MaxBatchSize: 3,
		FlushTimeout: time.Hour,
	}, zap.NewNop())

	mockIngester.On("IngestBatch", mock.Anything, mock.MatchedBy(func(events []*domain.AnalyticsEvent) bool {
		return len(events) == 3
	})).Return(pipeline.BatchResult{Accepted: 3}, nil).Once()

	in := make(chan *Envelope, 3)
	envelopes := make([]trackedEnvelope, 3)
	for i := range envelopes {
		envelopes[i] = createTestEnvelope(fmt.Sprintf("camp_%d", i))
		in <- envelopes[i].Envelope
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go stage.Start(ctx, in)

	assert.Eventually(t, func() bool {
		for _, env := range envelopes {
			if env.acks.Load() != 1 {
				return false
			}
		}
		return true
	}, time.Second, 10*time.Millisecond)

	mockIngester.AssertExpectations(t)
}

func TestIngestStage_Start_TimeoutFlush(t *testing.T) {
	mockIngester := new(MockBatchIngester)
	stage := NewIngestStage(mockIngester, IngestStageConfig{
		MaxBatchSize: 100,
		FlushTimeout: 20 * time.Millisecond,
	}, zap.NewNop())

	mockIngester.On("IngestBatch", mock.Anything, mock.MatchedBy(func(events []*domain.AnalyticsEvent) bool {
		return len(events) == 1
	})).Return(pipeline.BatchResult{Accepted: 1}, nil).Once()

	env := createTestEnvelope("camp_1")
	in := make(chan *Envelope, 1)
	in <- env.Envelope

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go stage.Start(ctx, in)

	assert.Eventually(t, func() bool {
		return env.acks.Load() == 1
	}, time.Second, 5*time.Millisecond)

	mockIngester.AssertExpectations(t)
}

func TestIngestStage_Start_IngestFailureNacks(t *testing.T) {
	mockIngester := new(MockBatchIngester)
	stage := NewIngestStage(mockIngester, IngestStageConfig{
		MaxBatchSize: 2,
		FlushTimeout: time.Hour,
	}, zap.NewNop())

	mockIngester.On("IngestBatch", mock.Anything, mock.Anything).
		Return(pipeline.BatchResult{}, errors.New("pipeline stopped"))

	first := createTestEnvelope("camp_1")
	second := createTestEnvelope("camp_2")
	in := make(chan *Envelope, 2)
	in <- first.Envelope
	in <- second.Envelope
	close(in)

	stage.Start(context.Background(), in)

	assert.Equal(t, int32(1), first.nacks.Load())
	assert.Equal(t, int32(1), second.nacks.Load())
	assert.Equal(t, int32(0), first.acks.Load())
	assert.Equal(t, int32(0), second.acks.Load())
}

func TestIngestStage_Start_RejectedEventsAreAcked(t *testing.T) {
	mockIngester := new(MockBatchIngester)
	stage := NewIngestStage(mockIngester, IngestStageConfig{
		MaxBatchSize: 2,
		FlushTimeout: time.Hour,
	}, zap.NewNop())

	mockIngester.On("IngestBatch", mock.Anything, mock.Anything).Return(pipeline.BatchResult{
		Accepted: 1,
		Rejected: 1,
		Errors:   []pipeline.Rejection{{Index: 1, Reason: "unknown event type"}},
	}, nil)

	good := createTestEnvelope("camp_1")
	bad := createTestEnvelope("camp_2")
	in := make(chan *Envelope, 2)
	in <- good.Envelope
	in <- bad.Envelope
	close(in)

	stage.Start(context.Background(), in)

	assert.Equal(t, int32(1), good.acks.Load())
	assert.Equal(t, int32(1), bad.acks.Load())
	assert.Equal(t, int32(0), bad.nacks.Load())
}

func TestIngestStage_Start_GracefulShutdown(t *testing.T) {
	mockIngester := new(MockBatchIngester)
	stage := NewIngestStage(mockIngester, IngestStageConfig{
		MaxBatchSize: 100,
		FlushTimeout: time.Hour,
	}, zap.NewNop())

	mockIngester.On("IngestBatch", mock.Anything, mock.MatchedBy(func(events []*domain.AnalyticsEvent) bool {
		return len(events) == 2
	})).Return(pipeline.BatchResult{Accepted: 2}, nil).Once()

	first := createTestEnvelope("camp_1")
	second := createTestEnvelope("camp_2")
	in := make(chan *Envelope, 2)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		stage.Start(ctx, in)
		close(done)
	}()

	in <- first.Envelope
	in <- second.Envelope

	// Give the stage time to pick up both envelopes before shutdown
	assert.Eventually(t, func() bool { return len(in) == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Ingest stage did not stop")
	}

	assert.Equal(t, int32(1), first.acks.Load())
	assert.Equal(t, int32(1), second.acks.Load())
	mockIngester.AssertExpectations(t)
}

func TestIngestStage_Start_EmptyBatchNotFlushed(t *testing.T) {
	mockIngester := new(MockBatchIngester)
	stage := NewIngestStage(mockIngester, IngestStageConfig{
		MaxBatchSize: 10,
		FlushTimeout: 10 * time.Millisecond,
	}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	stage.Start(ctx, make(chan *Envelope))

	mockIngester.AssertNotCalled(t, "IngestBatch", mock.Anything, mock.Anything)
}

func TestIngestStage_Start_MultipleBatches(t *testing.T) {
	mockIngester := new(MockBatchIngester)
	stage := NewIngestStage(mockIngester, IngestStageConfig{
		MaxBatchSize: 2,
		FlushTimeout: time.Hour,
	}, zap.NewNop())

	mockIngester.On("IngestBatch", mock.Anything, mock.Anything).Return(pipeline.BatchResult{Accepted: 2}, nil).Twice()
	mockIngester.On("IngestBatch", mock.Anything, mock.Anything).Return(pipeline.BatchResult{Accepted: 1}, nil).Once()

	in := make(chan *Envelope, 5)
	for i := 0; i < 5; i++ {
		in <- createTestEnvelope(fmt.Sprintf("camp_%d", i)).Envelope
	}
	close(in)

	stage.Start(context.Background(), in)

	mockIngester.AssertNumberOfCalls(t, "IngestBatch", 3)
}
