package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/repository"
)

func TestWhereClause(t *testing.T) {
	where, args := whereClause(repository.EventQuery{TenantID: "t1", From: 10, To: 20})
	assert.Equal(t, "WHERE tenant_id = ? AND timestamp >= ? AND timestamp <= ?", where)
	assert.Equal(t, []any{"t1", int64(10), int64(20)}, args)

	where, args = whereClause(repository.EventQuery{TenantID: "t1", EntityID: "camp1", From: 10, To: 20})
	assert.Equal(t, "WHERE tenant_id = ? AND timestamp >= ? AND timestamp <= ? AND entity_id = ?", where)
	assert.Len(t, args, 4)
}

func TestGrouping(t *testing.T) {
	tests := []struct {
		groupBy     string
		wantSelect  string
		expectError bool
	}{
		{groupBy: GroupByEventType, wantSelect: "event_type"},
		{groupBy: GroupByEntity, wantSelect: "entity_id"},
		{groupBy: GroupByHour, wantSelect: "formatDateTime(toStartOfHour(toDateTime(timestamp)), '%Y-%m-%d %H:00:00')"},
		{groupBy: GroupByDay, wantSelect: "formatDateTime(toStartOfDay(toDateTime(timestamp)), '%Y-%m-%d')"},
		{groupBy: "channel", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.groupBy, func(t *testing.T) {
			selectField, _, _, err := grouping(tt.groupBy)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSelect, selectField)
		})
	}
}

func TestArchiveRow(t *testing.T) {
	now := time.Now().UTC()
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	row := archiveRow(&domain.AnalyticsEvent{
		EventType: domain.EventClick,
		EntityID:  "camp1",
		TenantID:  "t1",
		Timestamp: ts,
		Value:     domain.Float64(2.5),
		Metadata:  map[string]any{"deviceType": "mobile"},
	}, now)

	require.Len(t, row, 8)
	assert.Equal(t, "t1", row[1])
	assert.Equal(t, "camp1", row[2])
	assert.Equal(t, "click", row[3])
	assert.Equal(t, ts.Unix(), row[4])
	assert.Equal(t, `{"deviceType":"mobile"}`, row[6])
	assert.Equal(t, now, row[7])

	row = archiveRow(&domain.AnalyticsEvent{EventType: domain.EventView, EntityID: "e", TenantID: "t", Timestamp: ts}, now)
	assert.Equal(t, "{}", row[6])
	assert.Nil(t, row[5].(*float64))
}

func TestConnOptions(t *testing.T) {
	opts := connOptions(&config.ClickHouse{
		Host:            "clickhouse",
		Port:            "9440",
		Database:        "analytics",
		User:            "default",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 60,
		UseTLS:          true,
	})

	assert.Equal(t, []string{"clickhouse:9440"}, opts.Addr)
	assert.Equal(t, "analytics", opts.Auth.Database)
	assert.NotNil(t, opts.TLS)
	assert.Equal(t, time.Minute, opts.ConnMaxLifetime)
}
