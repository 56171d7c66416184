package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/repository"
)

const archiveTable = "analytics_events"

// Group-by values accepted by CountEvents
const (
	GroupByEventType = "event_type"
	GroupByEntity    = "entity"
	GroupByHour      = "hour"
	GroupByDay       = "day"
)

// Archive implements repository.EventArchive on ClickHouse
type Archive struct {
	client *Client
	log    *zap.Logger
}

// NewArchive creates a ClickHouse raw event archive
func NewArchive(client *Client, log *zap.Logger) *Archive {
	return &Archive{
		client: client,
		log:    log,
	}
}

// InitSchema creates the archive table with a MergeTree engine partitioned by month
func (a *Archive) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS ` + archiveTable + ` (
		archive_id UUID,
		tenant_id LowCardinality(String),
		entity_id String,
		event_type LowCardinality(String),
		timestamp Int64,
		value Nullable(Float64),
		metadata String,
		archived_at DateTime64(3) DEFAULT now64(3)
	) ENGINE = MergeTree()
	ORDER BY (tenant_id, entity_id, timestamp)
	PARTITION BY toYYYYMM(toDateTime(timestamp))
	SETTINGS index_granularity = 8192
	`

	if err := a.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", archiveTable, err)
	}

	a.log.Info("ClickHouse archive schema initialized successfully")
	return nil
}

// InsertBatch archives a drained batch of events
func (a *Archive) InsertBatch(ctx context.Context, events []*domain.AnalyticsEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	batch, err := a.client.Conn().PrepareBatch(ctx, "INSERT INTO "+archiveTable)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	now := time.Now().UTC()
	inserted := 0
	for _, event := range events {
		if err := batch.Append(archiveRow(event, now)...); err != nil {
			_ = batch.Abort()
			return 0, fmt.Errorf("failed to append event to batch: %w", err)
		}
		inserted++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return inserted, nil
}

// archiveRow flattens an event into the column order of the archive table
func archiveRow(event *domain.AnalyticsEvent, now time.Time) []any {
	metadata := "{}"
	if len(event.Metadata) > 0 {
		if raw, err := json.Marshal(event.Metadata); err == nil {
			metadata = string(raw)
		}
	}

	return []any{
		uuid.New(),
		event.TenantID,
		event.EntityID,
		string(event.EventType),
		event.Timestamp.Unix(),
		event.Value,
		metadata,
		now,
	}
}

// Ping checks if the ClickHouse connection is alive
func (a *Archive) Ping(ctx context.Context) error {
	return a.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (a *Archive) Close() error {
	return a.client.Close()
}

// CountEvents returns archived event counts for a tenant, optionally grouped
func (a *Archive) CountEvents(ctx context.Context, query repository.EventQuery) (*repository.EventCountResult, error) {
	result := &repository.EventCountResult{
		Groups: []repository.EventGroupResult{},
	}

	where, args := whereClause(query)

	row := a.client.Conn().QueryRow(ctx, fmt.Sprintf(`
		SELECT count() AS total_count
		FROM %s
		%s
	`, archiveTable, where), args...)
	if err := row.Scan(&result.TotalCount); err != nil {
		return nil, fmt.Errorf("failed to query event count: %w", err)
	}

	if query.GroupBy == "" {
		return result, nil
	}

	selectField, groupBy, orderBy, err := grouping(query.GroupBy)
	if err != nil {
		return nil, err
	}

	rows, err := a.client.Conn().Query(ctx, fmt.Sprintf(`
		SELECT
			%s AS group_value,
			count() AS total_count
		FROM %s
		%s
		%s
		%s
	`, selectField, archiveTable, where, groupBy, orderBy), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grouped event counts: %w", err)
	}
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			a.log.Error("Failed to close grouped event count rows", zap.Error(err))
		}
	}(rows)

	for rows.Next() {
		var group repository.EventGroupResult
		if err := rows.Scan(&group.GroupValue, &group.TotalCount); err != nil {
			return nil, fmt.Errorf("failed to scan grouped event count row: %w", err)
		}
		result.Groups = append(result.Groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grouped event count rows: %w", err)
	}

	return result, nil
}

func whereClause(query repository.EventQuery) (string, []any) {
	conds := []string{"tenant_id = ?", "timestamp >= ?", "timestamp <= ?"}
	args := []any{query.TenantID, query.From, query.To}

	if query.EntityID != "" {
		conds = append(conds, "entity_id = ?")
		args = append(args, query.EntityID)
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func grouping(groupBy string) (selectField, groupClause, orderClause string, err error) {
	switch groupBy {
	case GroupByEventType:
		return "event_type", "GROUP BY event_type", "ORDER BY total_count DESC", nil
	case GroupByEntity:
		return "entity_id", "GROUP BY entity_id", "ORDER BY total_count DESC", nil
	case GroupByHour:
		return "formatDateTime(toStartOfHour(toDateTime(timestamp)), '%Y-%m-%d %H:00:00')",
			"GROUP BY group_value", "ORDER BY group_value ASC", nil
	case GroupByDay:
		return "formatDateTime(toStartOfDay(toDateTime(timestamp)), '%Y-%m-%d')",
			"GROUP BY group_value", "ORDER BY group_value ASC", nil
	}
	return "", "", "", fmt.Errorf("unsupported group_by value: %s (supported: event_type, entity, hour, day)", groupBy)
}
