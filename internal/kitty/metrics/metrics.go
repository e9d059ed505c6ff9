package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"kitties/internal/kitty/models"
)

// Metrics provides observability for the kitty registry.
type Metrics struct {
	KittiesCreated  prometheus.Counter
	CreateFailures  *prometheus.CounterVec
	CreateDuration  prometheus.Histogram
	EventsDropped   prometheus.Counter
	OutboxPublished prometheus.Counter
	OutboxFailures  prometheus.Counter
}

// New registers the registry metrics with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers with reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		KittiesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "kitties_created_total",
			Help: "Total number of kitties created",
		}),
		CreateFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kitties_create_failures_total",
			Help: "Kitty creations rejected, by reason",
		}, []string{"reason"}),
		CreateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kitties_create_duration_seconds",
			Help:    "Duration of CreateKitty operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "kitties_events_dropped_total",
			Help: "Events dropped because the async buffer was full",
		}),
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "kitties_outbox_published_total",
			Help: "Outbox entries published to Kafka",
		}),
		OutboxFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "kitties_outbox_relay_failures_total",
			Help: "Outbox relay batches that failed",
		}),
	}
}

func (m *Metrics) IncrementKittiesCreated() {
	m.KittiesCreated.Inc()
}

// IncrementCreateFailure records a rejection. Unclassified errors count as "internal".
func (m *Metrics) IncrementCreateFailure(reason models.Reason) {
	if reason == "" {
		reason = "internal"
	}
	m.CreateFailures.WithLabelValues(string(reason)).Inc()
}

// ObserveCreate records the duration of a CreateKitty call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementEventsDropped() {
	m.EventsDropped.Inc()
}

func (m *Metrics) IncOutboxPublished(n int) {
	m.OutboxPublished.Add(float64(n))
}

func (m *Metrics) IncOutboxFailures() {
	m.OutboxFailures.Inc()
}
