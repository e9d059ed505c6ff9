package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-level Prometheus metrics shared by all routes.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
}

// New creates and registers the HTTP metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kitties_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kitties_http_requests_total",
			Help: "HTTP requests by route, method and status class",
		}, []string{"route", "method", "status"}),
	}
}

func (m *Metrics) ObserveRequest(route, method, status string, seconds float64) {
	m.RequestDuration.WithLabelValues(route, method).Observe(seconds)
	m.RequestsTotal.WithLabelValues(route, method, status).Inc()
}
