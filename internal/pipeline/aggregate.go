package pipeline

import (
	"sort"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
)

// Group is the batch-local aggregate of one (tenant, entity, day) key
type Group struct {
	Key      domain.MetricKey
	Counters domain.Counters
	// Derived holds ratios over this batch only. The store recomputes the
	// persisted ratios from cumulative counters.
	Derived domain.DerivedMetrics
	Events  []*domain.AnalyticsEvent
}

// Aggregate groups events by tenant, entity and UTC day of their timestamp and
// tallies each group. Groups are returned ordered by key.
func Aggregate(events []*domain.AnalyticsEvent) []Group {
	index := make(map[domain.MetricKey]*Group)

	for _, e := range events {
		if e == nil {
			continue
		}
		key := domain.MetricKey{
			TenantID: e.TenantID,
			EntityID: e.EntityID,
			Day:      domain.DayOf(e.Timestamp),
		}

		g, ok := index[key]
		if !ok {
			g = &Group{Key: key}
			index[key] = g
		}
		g.Counters = g.Counters.Add(Tally(e))
		g.Events = append(g.Events, e)
	}

	groups := make([]Group, 0, len(index))
	for _, g := range index {
		g.Derived = domain.Derive(g.Counters)
		groups = append(groups, *g)
	}

	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].Key, groups[j].Key
		if a.TenantID != b.TenantID {
			return a.TenantID < b.TenantID
		}
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		return a.Day < b.Day
	})

	return groups
}

// Tally returns the counter contribution of a single event
func Tally(e *domain.AnalyticsEvent) domain.Counters {
	var c domain.Counters

	switch e.EventType {
	case domain.EventImpression:
		c.Impressions = 1
	case domain.EventClick:
		c.Clicks = 1
	case domain.EventConversion:
		c.Conversions = 1
	case domain.EventView:
		c.ViewCount = 1
		if d, ok := e.Duration(); ok && d >= 0 {
			c.ViewTimeTotal = d
			c.TimedViews = 1
		}
	case domain.EventEngagement:
		c.Engagements = 1
	case domain.EventCompletion:
		c.Completions = 1
	case domain.EventSkip:
		c.Skips = 1
	}

	if v := e.Amount(); v > 0 {
		c.Spent = v
	}

	return c
}
