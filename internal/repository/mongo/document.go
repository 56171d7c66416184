package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
)

type dailyMetricDoc struct {
	EntityID string `bson:"entity_id"`
	TenantID string `bson:"tenant_id"`
	Date     string `bson:"date"`

	Impressions   int64   `bson:"impressions"`
	Clicks        int64   `bson:"clicks"`
	Conversions   int64   `bson:"conversions"`
	ViewCount     int64   `bson:"view_count"`
	Completions   int64   `bson:"completions"`
	Skips         int64   `bson:"skips"`
	Engagements   int64   `bson:"engagements"`
	Spent         float64 `bson:"spent"`
	ViewTimeTotal float64 `bson:"view_time_total"`
	TimedViews    int64   `bson:"timed_views"`

	CTR             float64 `bson:"ctr"`
	ConversionRate  float64 `bson:"conversion_rate"`
	CPC             float64 `bson:"cpc"`
	CPA             float64 `bson:"cpa"`
	EngagementRate  float64 `bson:"engagement_rate"`
	AverageViewTime float64 `bson:"average_view_time"`
	BounceRate      float64 `bson:"bounce_rate"`
	CompletionRate  float64 `bson:"completion_rate"`
	SkipRate        float64 `bson:"skip_rate"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d *dailyMetricDoc) toRecord() *domain.AggregatedMetricRecord {
	return &domain.AggregatedMetricRecord{
		EntityID: d.EntityID,
		TenantID: d.TenantID,
		Date:     d.Date,
		Counters: domain.Counters{
			Impressions:   d.Impressions,
			Clicks:        d.Clicks,
			Conversions:   d.Conversions,
			ViewCount:     d.ViewCount,
			Completions:   d.Completions,
			Skips:         d.Skips,
			Engagements:   d.Engagements,
			Spent:         d.Spent,
			ViewTimeTotal: d.ViewTimeTotal,
			TimedViews:    d.TimedViews,
		},
		DerivedMetrics: domain.DerivedMetrics{
			CTR:             d.CTR,
			ConversionRate:  d.ConversionRate,
			CPC:             d.CPC,
			CPA:             d.CPA,
			EngagementRate:  d.EngagementRate,
			AverageViewTime: d.AverageViewTime,
			BounceRate:      d.BounceRate,
			CompletionRate:  d.CompletionRate,
			SkipRate:        d.SkipRate,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// keyFilter matches the one document of key; an upsert copies its fields into the new document
func keyFilter(key domain.MetricKey) bson.D {
	return bson.D{
		{Key: "tenant_id", Value: key.TenantID},
		{Key: "entity_id", Value: key.EntityID},
		{Key: "date", Value: key.Day},
	}
}

// upsertPipeline builds the two-stage update: the first stage increments every
// counter, the second recomputes derived fields from the incremented values.
// Both stages apply to one document atomically.
func upsertPipeline(delta domain.Counters, now time.Time) mongo.Pipeline {
	increments := bson.D{
		{Key: "impressions", Value: increment("impressions", delta.Impressions)},
		{Key: "clicks", Value: increment("clicks", delta.Clicks)},
		{Key: "conversions", Value: increment("conversions", delta.Conversions)},
		{Key: "view_count", Value: increment("view_count", delta.ViewCount)},
		{Key: "completions", Value: increment("completions", delta.Completions)},
		{Key: "skips", Value: increment("skips", delta.Skips)},
		{Key: "engagements", Value: increment("engagements", delta.Engagements)},
		{Key: "spent", Value: increment("spent", delta.Spent)},
		{Key: "view_time_total", Value: increment("view_time_total", delta.ViewTimeTotal)},
		{Key: "timed_views", Value: increment("timed_views", delta.TimedViews)},
		{Key: "created_at", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$created_at", now}}}},
		{Key: "updated_at", Value: now},
	}

	derived := bson.D{
		{Key: "ctr", Value: percentOf("clicks", "impressions")},
		{Key: "conversion_rate", Value: percentOf("conversions", "clicks")},
		{Key: "cpc", Value: ratioOf("spent", "clicks")},
		{Key: "cpa", Value: ratioOf("spent", "conversions")},
		{Key: "engagement_rate", Value: percentOf("engagements", "view_count")},
		{Key: "average_view_time", Value: ratioOf("view_time_total", "timed_views")},
		{Key: "bounce_rate", Value: percentOf("skips", "view_count")},
		{Key: "completion_rate", Value: percentOf("completions", "view_count")},
		{Key: "skip_rate", Value: percentOf("skips", "view_count")},
	}

	return mongo.Pipeline{
		{{Key: "$set", Value: increments}},
		{{Key: "$set", Value: derived}},
	}
}

func increment(field string, by any) bson.D {
	return bson.D{{Key: "$add", Value: bson.A{
		bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, 0}}},
		by,
	}}}
}

// ratioOf yields num/den, or 0 when den is 0
func ratioOf(num, den string) bson.D {
	return bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{"$" + den, 0}}},
		0.0,
		bson.D{{Key: "$divide", Value: bson.A{"$" + num, "$" + den}}},
	}}}
}

func percentOf(num, den string) bson.D {
	return bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{"$" + den, 0}}},
		0.0,
		bson.D{{Key: "$multiply", Value: bson.A{
			bson.D{{Key: "$divide", Value: bson.A{"$" + num, "$" + den}}},
			100,
		}}},
	}}}
}
