package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Ingestion metrics
	EventsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_events_ingested_total",
			Help: "Total number of accepted events by event type",
		},
		[]string{"event_type"},
	)

	EventsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_events_rejected_total",
			Help: "Total number of events rejected by validation",
		},
	)

	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_events_dropped_total",
			Help: "Total number of buffered events dropped on overflow",
		},
	)

	BufferSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "analytics_buffer_size",
			Help: "Number of events waiting for the next flush",
		},
	)

	// Flush metrics
	Flushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_flushes_total",
			Help: "Total number of flushes by result",
		},
		[]string{"result"},
	)

	FlushDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analytics_flush_duration_seconds",
			Help:    "Time taken to aggregate and persist a drained batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	GroupsPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_groups_persisted_total",
			Help: "Total number of aggregation groups written to the store by result",
		},
		[]string{"result"},
	)

	EventsArchived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_events_archived_total",
			Help: "Total number of raw events sent to the archive by result",
		},
		[]string{"result"},
	)

	// Subscription metrics
	SubscriptionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "analytics_subscriptions_active",
			Help: "Number of registered subscriptions",
		},
	)

	SubscriptionsReaped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_subscriptions_reaped_total",
			Help: "Total number of subscriptions removed for inactivity",
		},
	)

	UpdatesBroadcast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_updates_delivered_total",
			Help: "Total number of updates queued to subscribers by update type",
		},
		[]string{"type"},
	)

	UpdatesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_updates_dropped_total",
			Help: "Total number of queued updates evicted because a subscriber queue was full",
		},
	)

	// Queue intake metrics
	QueueMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_queue_messages_total",
			Help: "Total number of SQS messages handled by outcome (received, malformed, acked, nacked)",
		},
		[]string{"outcome"},
	)

	// API metrics
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_api_requests_total",
			Help: "Total number of API requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(EventsIngested)
	prometheus.MustRegister(EventsRejected)
	prometheus.MustRegister(EventsDropped)
	prometheus.MustRegister(BufferSize)
	prometheus.MustRegister(Flushes)
	prometheus.MustRegister(FlushDuration)
	prometheus.MustRegister(GroupsPersisted)
	prometheus.MustRegister(EventsArchived)
	prometheus.MustRegister(SubscriptionsActive)
	prometheus.MustRegister(SubscriptionsReaped)
	prometheus.MustRegister(UpdatesBroadcast)
	prometheus.MustRegister(UpdatesDropped)
	prometheus.MustRegister(QueueMessages)
	prometheus.MustRegister(APIRequests)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an operation for a histogram
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time elapsed since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed seconds on h
func (t *Timer) ObserveDuration(h prometheus.Observer) time.Duration {
	d := t.Duration()
	h.Observe(d.Seconds())
	return d
}

// Queue message outcomes
const (
	QueueReceived  = "received"
	QueueMalformed = "malformed"
	QueueAcked     = "acked"
	QueueNacked    = "nacked"
)
