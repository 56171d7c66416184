package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/dto"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/repository"
)

// MaxClockSkew is how far in the future an event timestamp may lie
const MaxClockSkew = 5 * time.Minute

const statusPingTimeout = 2 * time.Second

var (
	// ErrInvalidRequest marks a malformed query
	ErrInvalidRequest = errors.New("invalid request")

	// ErrArchiveDisabled is returned for archive queries when no archive is configured
	ErrArchiveDisabled = errors.New("event archive is not configured")
)

var supportedGroupBy = map[string]bool{"event_type": true, "entity": true, "hour": true, "day": true}

// AnalyticsService maps transport requests onto the pipeline, the metrics store
// and the subscription registry
type AnalyticsService struct {
	ingester      Ingester
	subscriptions Subscriptions
	store         repository.MetricsStore
	archive       EventCounter
	now           func() time.Time
	log           *zap.Logger
}

// NewAnalyticsService creates a new analytics service. archive may be nil.
func NewAnalyticsService(ingester Ingester, subscriptions Subscriptions, store repository.MetricsStore, archive EventCounter, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		ingester:      ingester,
		subscriptions: subscriptions,
		store:         store,
		archive:       archive,
		now:           time.Now,
		log:           log,
	}
}

// checkTimestamp rejects events stamped too far in the future
func (s *AnalyticsService) checkTimestamp(event *dto.IngestEventRequest) error {
	limit := s.now().Add(MaxClockSkew).Unix()
	if event.Timestamp > limit {
		return fmt.Errorf("%w: timestamp cannot be in the future: %d > %d", domain.ErrInvalidEvent, event.Timestamp, limit)
	}
	return nil
}

// ProcessEvent validates and ingests a single event
func (s *AnalyticsService) ProcessEvent(ctx context.Context, event *dto.IngestEventRequest) error {
	if err := s.checkTimestamp(event); err != nil {
		s.log.Warn("Timestamp validation failed: future timestamp",
			zap.Int64("event_timestamp", event.Timestamp),
			zap.String("entity_id", event.EntityID))
		return err
	}

	if err := s.ingester.Ingest(ctx, event.ToEvent()); err != nil {
		return fmt.Errorf("failed to ingest event: %w", err)
	}
	return nil
}

// ProcessBulkEvents ingests every valid event and reports the rejected ones
func (s *AnalyticsService) ProcessBulkEvents(ctx context.Context, events []dto.IngestEventRequest) (*dto.IngestBulkEventsResponse, error) {
	response := &dto.IngestBulkEventsResponse{}

	batch := make([]*domain.AnalyticsEvent, 0, len(events))
	positions := make([]int, 0, len(events))

	for i := range events {
		if err := s.checkTimestamp(&events[i]); err != nil {
			response.Rejected++
			response.Errors = append(response.Errors, fmt.Sprintf("event %d: %s", i, err.Error()))
			continue
		}
		batch = append(batch, events[i].ToEvent())
		positions = append(positions, i)
	}

	result, err := s.ingester.IngestBatch(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to ingest batch: %w", err)
	}

	response.Accepted = result.Accepted
	response.Rejected += result.Rejected
	for _, rejection := range result.Errors {
		response.Errors = append(response.Errors,
			fmt.Sprintf("event %d: %s", positions[rejection.Index], rejection.Reason))
	}

	if response.Rejected > 0 {
		s.log.Warn("Bulk ingest rejected events",
			zap.Int("accepted", response.Accepted),
			zap.Int("rejected", response.Rejected))
	}

	return response, nil
}

// GetDailyMetrics returns the tenant's stored aggregate of an entity for a day, today (UTC) by default
func (s *AnalyticsService) GetDailyMetrics(ctx context.Context, req *dto.GetDailyMetricsRequest) (*dto.DailyMetricsResponse, error) {
	day := req.Date
	if day == "" {
		day = domain.DayOf(s.now())
	} else if _, err := time.Parse(domain.DayLayout, day); err != nil {
		return nil, fmt.Errorf("%w: date must be formatted as YYYY-MM-DD: %s", ErrInvalidRequest, day)
	}

	record, err := s.store.Get(ctx, domain.MetricKey{TenantID: req.TenantID, EntityID: req.EntityID, Day: day})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get daily metrics: %w", err)
	}

	return &dto.DailyMetricsResponse{AggregatedMetricRecord: *record}, nil
}

// GetEventStats counts archived raw events
func (s *AnalyticsService) GetEventStats(ctx context.Context, req *dto.GetEventStatsRequest) (*dto.EventStatsResponse, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}

	if req.From > req.To {
		s.log.Warn("Invalid time range for event stats",
			zap.Int64("from", req.From),
			zap.Int64("to", req.To))
		return nil, fmt.Errorf("%w: from timestamp must be less than or equal to to timestamp", ErrInvalidRequest)
	}

	if req.GroupBy != "" {
		if !supportedGroupBy[req.GroupBy] {
			return nil, fmt.Errorf("%w: invalid group_by value: %s (supported: event_type, entity, hour, day)", ErrInvalidRequest, req.GroupBy)
		}

		rangeSeconds := req.To - req.From
		if req.GroupBy == "hour" && rangeSeconds > 90*24*3600 {
			return nil, fmt.Errorf("%w: time range too large for hourly grouping (max 90 days, got %d days)", ErrInvalidRequest, rangeSeconds/(24*3600))
		}
	}

	result, err := s.archive.CountEvents(ctx, repository.EventQuery{
		TenantID: req.TenantID,
		EntityID: req.EntityID,
		From:     req.From,
		To:       req.To,
		GroupBy:  req.GroupBy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count archived events: %w", err)
	}

	response := &dto.EventStatsResponse{
		TenantID:   req.TenantID,
		EntityID:   req.EntityID,
		From:       req.From,
		To:         req.To,
		TotalCount: result.TotalCount,
		GroupBy:    req.GroupBy,
		Groups:     make([]dto.EventStatsGroup, 0, len(result.Groups)),
	}
	for _, group := range result.Groups {
		response.Groups = append(response.Groups, dto.EventStatsGroup{
			GroupValue: group.GroupValue,
			TotalCount: group.TotalCount,
		})
	}

	return response, nil
}

// Subscribe registers a live dashboard subscription
func (s *AnalyticsService) Subscribe(req *dto.SubscribeRequest) *dto.SubscriptionResponse {
	sub := s.subscriptions.Subscribe(req.TenantID, req.EntityIDs)
	return &dto.SubscriptionResponse{
		SubscriptionID: sub.ID,
		TenantID:       sub.TenantID,
		EntityIDs:      sub.EntityIDFilter,
		CreatedAt:      sub.CreatedAt,
	}
}

// Poll drains the pending updates of a subscription
func (s *AnalyticsService) Poll(subscriptionID string) *dto.PollResponse {
	updates, ok := s.subscriptions.Poll(subscriptionID)
	if updates == nil {
		updates = []domain.PendingUpdate{}
	}
	return &dto.PollResponse{
		SubscriptionID: subscriptionID,
		Active:         ok,
		Updates:        updates,
	}
}

// Unsubscribe removes a subscription. Unknown ids are a no-op.
func (s *AnalyticsService) Unsubscribe(subscriptionID string) bool {
	return s.subscriptions.Unsubscribe(subscriptionID)
}

// Status reports pipeline health and store reachability
func (s *AnalyticsService) Status(ctx context.Context) *dto.StatusResponse {
	response := &dto.StatusResponse{
		Pipeline:       s.ingester.Status(),
		StoreReachable: true,
		ArchiveEnabled: s.archive != nil,
	}

	pingCtx, cancel := context.WithTimeout(ctx, statusPingTimeout)
	defer cancel()

	if err := s.store.Ping(pingCtx); err != nil {
		s.log.Warn("Metrics store ping failed", zap.Error(err))
		response.StoreReachable = false
		response.StoreError = err.Error()
	}

	return response
}
