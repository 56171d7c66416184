// Package simulator produces synthetic campaign traffic for exercising the pipeline.
package simulator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/dto"
)

// Funnel rates applied per generated impression
const (
	clickRate      = 0.05
	conversionRate = 0.10
	viewRate       = 0.30
	engageRate     = 0.25
	completeRate   = 0.60
	skipRate       = 0.20
)

var (
	devices = []string{"mobile", "desktop", "tablet", "smart_speaker"}
	geos    = []string{"US", "GB", "DE", "TR", "BR", "IN"}
)

// Generator builds event batches following an impression funnel
type Generator struct {
	tenants  []string
	entities []string
	rnd      *rand.Rand
	now      func() time.Time
}

// NewGenerator creates a generator over tenants x entities. The same seed yields the same traffic.
func NewGenerator(tenants, entities int, seed int64) *Generator {
	g := &Generator{
		rnd: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
	for t := 1; t <= tenants; t++ {
		g.tenants = append(g.tenants, fmt.Sprintf("org_%d", t))
	}
	for e := 1; e <= entities; e++ {
		g.entities = append(g.entities, fmt.Sprintf("camp_%d", e))
	}
	return g
}

// Batch returns at least n events. Each impression may drag follow-up events of
// the same session along, so a batch can run slightly over n.
func (g *Generator) Batch(n int) []dto.IngestEventRequest {
	events := make([]dto.IngestEventRequest, 0, n)
	for len(events) < n {
		events = append(events, g.session()...)
	}
	return events
}

// session emits one impression and whatever the funnel produces after it
func (g *Generator) session() []dto.IngestEventRequest {
	tenant := g.tenants[g.rnd.Intn(len(g.tenants))]
	entity := g.entities[g.rnd.Intn(len(g.entities))]
	ts := g.now().Unix()

	meta := map[string]interface{}{
		domain.MetaSessionID: uuid.NewString(),
		domain.MetaDevice:    devices[g.rnd.Intn(len(devices))],
		domain.MetaGeo:       geos[g.rnd.Intn(len(geos))],
		domain.MetaPosition:  g.rnd.Intn(10) + 1,
	}

	event := func(t domain.EventType) dto.IngestEventRequest {
		return dto.IngestEventRequest{
			EventType: string(t),
			EntityID:  entity,
			TenantID:  tenant,
			Timestamp: ts,
			Metadata:  meta,
		}
	}

	cost := 0.02 + g.rnd.Float64()*0.08
	impression := event(domain.EventImpression)
	impression.Value = &cost
	events := []dto.IngestEventRequest{impression}

	if g.rnd.Float64() < clickRate {
		events = append(events, event(domain.EventClick))
		if g.rnd.Float64() < conversionRate {
			amount := 5 + g.rnd.Float64()*45
			conversion := event(domain.EventConversion)
			conversion.Value = &amount
			events = append(events, conversion)
		}
	}

	if g.rnd.Float64() < viewRate {
		view := event(domain.EventView)
		view.Metadata = withDuration(meta, 5+g.rnd.Intn(175))
		events = append(events, view)

		switch r := g.rnd.Float64(); {
		case r < skipRate:
			events = append(events, event(domain.EventSkip))
		case r < skipRate+completeRate:
			events = append(events, event(domain.EventCompletion))
		}
		if g.rnd.Float64() < engageRate {
			events = append(events, event(domain.EventEngagement))
		}
	}

	return events
}

func withDuration(meta map[string]interface{}, seconds int) map[string]interface{} {
	out := make(map[string]interface{}, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out[domain.MetaDuration] = seconds
	return out
}
