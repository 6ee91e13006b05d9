package apiproxy

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics instruments the proxy's outbound calls to the quest backend.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewMetrics creates the proxy collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questui_backend_requests_total",
				Help: "Number of requests forwarded to the quest backend by status code and method.",
			},
			[]string{"code", "method"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "questui_backend_request_duration_seconds",
				Help:    "Latency histogram of requests forwarded to the quest backend.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "questui_backend_requests_in_flight",
			Help: "Requests currently waiting on the quest backend.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.latency, m.inflight)
	}
	return m
}

// RoundTripper wraps next so every call is counted and timed.
func (m *Metrics) RoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if m == nil {
		return next
	}
	return promhttp.InstrumentRoundTripperInFlight(m.inflight,
		promhttp.InstrumentRoundTripperCounter(m.requests,
			promhttp.InstrumentRoundTripperDuration(m.latency, next)))
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
