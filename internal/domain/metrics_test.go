package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name     string
		counters Counters
		want     DerivedMetrics
	}{
		{
			name:     "empty counters yield zero ratios",
			counters: Counters{},
			want:     DerivedMetrics{},
		},
		{
			name:     "impressions and clicks",
			counters: Counters{Impressions: 4, Clicks: 1, Spent: 2.5},
			want:     DerivedMetrics{CTR: 25, CPC: 2.5},
		},
		{
			name:     "clicks without impressions",
			counters: Counters{Clicks: 3},
			want:     DerivedMetrics{},
		},
		{
			name:     "conversions",
			counters: Counters{Clicks: 10, Conversions: 2, Spent: 20},
			want:     DerivedMetrics{ConversionRate: 20, CPC: 2, CPA: 10},
		},
		{
			name: "view based ratios",
			counters: Counters{
				ViewCount:     8,
				Completions:   4,
				Skips:         2,
				Engagements:   6,
				ViewTimeTotal: 90,
				TimedViews:    3,
			},
			want: DerivedMetrics{
				EngagementRate:  75,
				AverageViewTime: 30,
				BounceRate:      25,
				CompletionRate:  50,
				SkipRate:        25,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.counters)
			assert.InDelta(t, tt.want.CTR, got.CTR, 1e-9)
			assert.InDelta(t, tt.want.ConversionRate, got.ConversionRate, 1e-9)
			assert.InDelta(t, tt.want.CPC, got.CPC, 1e-9)
			assert.InDelta(t, tt.want.CPA, got.CPA, 1e-9)
			assert.InDelta(t, tt.want.EngagementRate, got.EngagementRate, 1e-9)
			assert.InDelta(t, tt.want.AverageViewTime, got.AverageViewTime, 1e-9)
			assert.InDelta(t, tt.want.BounceRate, got.BounceRate, 1e-9)
			assert.InDelta(t, tt.want.CompletionRate, got.CompletionRate, 1e-9)
			assert.InDelta(t, tt.want.SkipRate, got.SkipRate, 1e-9)
		})
	}
}

func TestRecord_ApplyUsesCumulativeCounters(t *testing.T) {
	key := MetricKey{TenantID: "t1", EntityID: "camp1", Day: "2025-03-01"}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := NewRecord(key, Counters{Impressions: 10, Clicks: 1}, now)
	assert.InDelta(t, 10.0, rec.CTR, 1e-9)

	// a batch with no impressions must not push CTR to the batch-local value
	rec.Apply(Counters{Clicks: 1}, now.Add(time.Minute))

	assert.Equal(t, int64(10), rec.Impressions)
	assert.Equal(t, int64(2), rec.Clicks)
	assert.InDelta(t, 20.0, rec.CTR, 1e-9)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Equal(t, now.Add(time.Minute), rec.UpdatedAt)
	assert.Equal(t, key, rec.Key())
}

func TestCounters_AddIsOrderIndependent(t *testing.T) {
	a := Counters{Impressions: 3, Clicks: 1, Spent: 1.25, ViewTimeTotal: 12, TimedViews: 1}
	b := Counters{Impressions: 2, Conversions: 1, Spent: 0.75, ViewCount: 4}

	assert.Equal(t, a.Add(b), b.Add(a))
	assert.Equal(t, Counters{}.Add(a).Add(b), Counters{}.Add(a.Add(b)))
	assert.True(t, Counters{}.IsZero())
	assert.False(t, a.IsZero())
}

func TestDayOf(t *testing.T) {
	ts := time.Date(2025, 3, 1, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600))
	assert.Equal(t, "2025-03-02", DayOf(ts))
}

func TestAnalyticsEvent_Duration(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		want     float64
		ok       bool
	}{
		{name: "no metadata", metadata: nil, ok: false},
		{name: "float", metadata: map[string]any{"duration": 12.5}, want: 12.5, ok: true},
		{name: "int", metadata: map[string]any{"duration": 30}, want: 30, ok: true},
		{name: "numeric string", metadata: map[string]any{"duration": "45"}, want: 45, ok: true},
		{name: "garbage string", metadata: map[string]any{"duration": "long"}, ok: false},
		{name: "nil value", metadata: map[string]any{"duration": nil}, ok: false},
		{name: "infinite string", metadata: map[string]any{"duration": "Inf"}, ok: false},
		{name: "infinity string", metadata: map[string]any{"duration": "Infinity"}, ok: false},
		{name: "nan string", metadata: map[string]any{"duration": "NaN"}, ok: false},
		{name: "infinite float", metadata: map[string]any{"duration": math.Inf(1)}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &AnalyticsEvent{EventType: EventView, Metadata: tt.metadata}
			got, ok := e.Duration()
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAnalyticsEvent_Amount(t *testing.T) {
	assert.Equal(t, 0.0, (&AnalyticsEvent{}).Amount())
	assert.Equal(t, 2.5, (&AnalyticsEvent{Value: Float64(2.5)}).Amount())
	assert.Equal(t, 0.0, (&AnalyticsEvent{Value: Float64(math.Inf(1))}).Amount())
	assert.Equal(t, 0.0, (&AnalyticsEvent{Value: Float64(math.NaN())}).Amount())
}

func TestSubscription_Matches(t *testing.T) {
	all := &Subscription{TenantID: "t1", Active: true}
	filtered := &Subscription{TenantID: "t1", EntityIDFilter: []string{"camp1"}, Active: true}
	inactive := &Subscription{TenantID: "t1", Active: false}

	assert.True(t, all.Matches("t1", "anything"))
	assert.False(t, all.Matches("t2", "anything"))
	assert.True(t, filtered.Matches("t1", "camp1"))
	assert.False(t, filtered.Matches("t1", "camp2"))
	assert.False(t, inactive.Matches("t1", "camp1"))
}
