package domain

import "time"

// DayLayout is the calendar-day format used for metric keys and store rows
const DayLayout = "2006-01-02"

// DayOf returns the UTC calendar day of t
func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// MetricKey identifies one aggregation group: a tenant-scoped entity on one UTC day
type MetricKey struct {
	TenantID string
	EntityID string
	Day      string
}

// String renders the key for logs and lock maps
func (k MetricKey) String() string {
	return k.TenantID + "/" + k.EntityID + "/" + k.Day
}

// Counters holds the monotonically incremented fields of a daily record.
// ViewTimeTotal and TimedViews back AverageViewTime so it stays a pure function of counters.
type Counters struct {
	Impressions   int64   `json:"impressions"`
	Clicks        int64   `json:"clicks"`
	Conversions   int64   `json:"conversions"`
	ViewCount     int64   `json:"view_count"`
	Completions   int64   `json:"completions"`
	Skips         int64   `json:"skips"`
	Engagements   int64   `json:"engagements"`
	Spent         float64 `json:"spent"`
	ViewTimeTotal float64 `json:"view_time_total"`
	TimedViews    int64   `json:"timed_views"`
}

// Add returns c incremented by delta
func (c Counters) Add(delta Counters) Counters {
	return Counters{
		Impressions:   c.Impressions + delta.Impressions,
		Clicks:        c.Clicks + delta.Clicks,
		Conversions:   c.Conversions + delta.Conversions,
		ViewCount:     c.ViewCount + delta.ViewCount,
		Completions:   c.Completions + delta.Completions,
		Skips:         c.Skips + delta.Skips,
		Engagements:   c.Engagements + delta.Engagements,
		Spent:         c.Spent + delta.Spent,
		ViewTimeTotal: c.ViewTimeTotal + delta.ViewTimeTotal,
		TimedViews:    c.TimedViews + delta.TimedViews,
	}
}

// IsZero reports whether no counter carries a value
func (c Counters) IsZero() bool {
	return c == Counters{}
}

// DerivedMetrics are the ratios recomputed from cumulative counters on every write
type DerivedMetrics struct {
	CTR             float64 `json:"ctr"`
	ConversionRate  float64 `json:"conversion_rate"`
	CPC             float64 `json:"cpc"`
	CPA             float64 `json:"cpa"`
	EngagementRate  float64 `json:"engagement_rate"`
	AverageViewTime float64 `json:"average_view_time"`
	BounceRate      float64 `json:"bounce_rate"`
	CompletionRate  float64 `json:"completion_rate"`
	SkipRate        float64 `json:"skip_rate"`
}

// Derive computes every derived field from c. A zero denominator yields 0.
func Derive(c Counters) DerivedMetrics {
	return DerivedMetrics{
		CTR:             percent(c.Clicks, c.Impressions),
		ConversionRate:  percent(c.Conversions, c.Clicks),
		CPC:             ratio(c.Spent, float64(c.Clicks)),
		CPA:             ratio(c.Spent, float64(c.Conversions)),
		EngagementRate:  percent(c.Engagements, c.ViewCount),
		AverageViewTime: ratio(c.ViewTimeTotal, float64(c.TimedViews)),
		BounceRate:      percent(c.Skips, c.ViewCount),
		CompletionRate:  percent(c.Completions, c.ViewCount),
		SkipRate:        percent(c.Skips, c.ViewCount),
	}
}

func percent(num, den int64) float64 {
	return ratio(float64(num), float64(den)) * 100
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// AggregatedMetricRecord is one (entity, tenant, day) row of the persistent store
type AggregatedMetricRecord struct {
	EntityID string `json:"entity_id"`
	TenantID string `json:"tenant_id"`
	Date     string `json:"date"`
	Counters
	DerivedMetrics
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecord seeds a record for key with the given counters and their derived fields
func NewRecord(key MetricKey, counters Counters, now time.Time) *AggregatedMetricRecord {
	return &AggregatedMetricRecord{
		EntityID:       key.EntityID,
		TenantID:       key.TenantID,
		Date:           key.Day,
		Counters:       counters,
		DerivedMetrics: Derive(counters),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Apply increments the counters by delta and recomputes the derived fields in one step
func (r *AggregatedMetricRecord) Apply(delta Counters, now time.Time) {
	r.Counters = r.Counters.Add(delta)
	r.DerivedMetrics = Derive(r.Counters)
	r.UpdatedAt = now
}

// Key returns the metric key of the record
func (r *AggregatedMetricRecord) Key() MetricKey {
	return MetricKey{TenantID: r.TenantID, EntityID: r.EntityID, Day: r.Date}
}
