package postgres

import (
	"time"

	"gorm.io/gorm/clause"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
)

// DailyMetric is the relational row of one (tenant, entity, day) aggregate
type DailyMetric struct {
	ID       uint   `gorm:"primaryKey"`
	TenantID string `gorm:"column:tenant_id;size:128;not null;uniqueIndex:idx_daily_metric_key,priority:1"`
	EntityID string `gorm:"column:entity_id;size:128;not null;uniqueIndex:idx_daily_metric_key,priority:2"`
	Date     string `gorm:"column:date;type:char(10);not null;uniqueIndex:idx_daily_metric_key,priority:3"`

	Impressions   int64   `gorm:"column:impressions;not null;default:0"`
	Clicks        int64   `gorm:"column:clicks;not null;default:0"`
	Conversions   int64   `gorm:"column:conversions;not null;default:0"`
	ViewCount     int64   `gorm:"column:view_count;not null;default:0"`
	Completions   int64   `gorm:"column:completions;not null;default:0"`
	Skips         int64   `gorm:"column:skips;not null;default:0"`
	Engagements   int64   `gorm:"column:engagements;not null;default:0"`
	Spent         float64 `gorm:"column:spent;not null;default:0"`
	ViewTimeTotal float64 `gorm:"column:view_time_total;not null;default:0"`
	TimedViews    int64   `gorm:"column:timed_views;not null;default:0"`

	CTR             float64 `gorm:"column:ctr;not null;default:0"`
	ConversionRate  float64 `gorm:"column:conversion_rate;not null;default:0"`
	CPC             float64 `gorm:"column:cpc;not null;default:0"`
	CPA             float64 `gorm:"column:cpa;not null;default:0"`
	EngagementRate  float64 `gorm:"column:engagement_rate;not null;default:0"`
	AverageViewTime float64 `gorm:"column:average_view_time;not null;default:0"`
	BounceRate      float64 `gorm:"column:bounce_rate;not null;default:0"`
	CompletionRate  float64 `gorm:"column:completion_rate;not null;default:0"`
	SkipRate        float64 `gorm:"column:skip_rate;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (DailyMetric) TableName() string {
	return "analytics_daily_metrics"
}

// keyColumns form the conflict target of the upsert
var keyColumns = []clause.Column{{Name: "tenant_id"}, {Name: "entity_id"}, {Name: "date"}}

// counterColumns are incremented on conflict, never overwritten
var counterColumns = []string{
	"impressions",
	"clicks",
	"conversions",
	"view_count",
	"completions",
	"skips",
	"engagements",
	"spent",
	"view_time_total",
	"timed_views",
}

func newDailyMetric(rec *domain.AggregatedMetricRecord) *DailyMetric {
	m := &DailyMetric{
		EntityID:  rec.EntityID,
		TenantID:  rec.TenantID,
		Date:      rec.Date,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	m.setCounters(rec.Counters)
	m.setDerived(rec.DerivedMetrics)
	return m
}

func (m *DailyMetric) setCounters(c domain.Counters) {
	m.Impressions = c.Impressions
	m.Clicks = c.Clicks
	m.Conversions = c.Conversions
	m.ViewCount = c.ViewCount
	m.Completions = c.Completions
	m.Skips = c.Skips
	m.Engagements = c.Engagements
	m.Spent = c.Spent
	m.ViewTimeTotal = c.ViewTimeTotal
	m.TimedViews = c.TimedViews
}

func (m *DailyMetric) setDerived(d domain.DerivedMetrics) {
	m.CTR = d.CTR
	m.ConversionRate = d.ConversionRate
	m.CPC = d.CPC
	m.CPA = d.CPA
	m.EngagementRate = d.EngagementRate
	m.AverageViewTime = d.AverageViewTime
	m.BounceRate = d.BounceRate
	m.CompletionRate = d.CompletionRate
	m.SkipRate = d.SkipRate
}

func (m *DailyMetric) counters() domain.Counters {
	return domain.Counters{
		Impressions:   m.Impressions,
		Clicks:        m.Clicks,
		Conversions:   m.Conversions,
		ViewCount:     m.ViewCount,
		Completions:   m.Completions,
		Skips:         m.Skips,
		Engagements:   m.Engagements,
		Spent:         m.Spent,
		ViewTimeTotal: m.ViewTimeTotal,
		TimedViews:    m.TimedViews,
	}
}

func (m *DailyMetric) toRecord() *domain.AggregatedMetricRecord {
	return &domain.AggregatedMetricRecord{
		EntityID: m.EntityID,
		TenantID: m.TenantID,
		Date:     m.Date,
		Counters: m.counters(),
		DerivedMetrics: domain.DerivedMetrics{
			CTR:             m.CTR,
			ConversionRate:  m.ConversionRate,
			CPC:             m.CPC,
			CPA:             m.CPA,
			EngagementRate:  m.EngagementRate,
			AverageViewTime: m.AverageViewTime,
			BounceRate:      m.BounceRate,
			CompletionRate:  m.CompletionRate,
			SkipRate:        m.SkipRate,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// derivedColumns maps derived values to their column names for the post-increment update
func derivedColumns(d domain.DerivedMetrics, now time.Time) map[string]any {
	return map[string]any{
		"ctr":               d.CTR,
		"conversion_rate":   d.ConversionRate,
		"cpc":               d.CPC,
		"cpa":               d.CPA,
		"engagement_rate":   d.EngagementRate,
		"average_view_time": d.AverageViewTime,
		"bounce_rate":       d.BounceRate,
		"completion_rate":   d.CompletionRate,
		"skip_rate":         d.SkipRate,
		"updated_at":        now,
	}
}
