package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the delivery engine.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      prometheus.Counter
	rangeRequestsTotal prometheus.Counter
	previewsServed     prometheus.Counter
	feedRequestsTotal  prometheus.Counter
	keysIssuedTotal    prometheus.Counter
	liveStreams        prometheus.Gauge
	errorsTotal        prometheus.Counter
}

// New creates and registers Prometheus metrics for the delivery engine.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "delivery_requests_total",
		Help: "Total number of HTTP requests received",
	})
	rangeRequestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "delivery_range_requests_total",
		Help: "Total number of byte-range video responses fully served",
	})
	previewsServed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "delivery_previews_served_total",
		Help: "Total number of preview images served",
	})
	feedRequestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "delivery_feed_requests_total",
		Help: "Total number of discovery feed requests served",
	})
	keysIssuedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "delivery_stream_keys_issued_total",
		Help: "Total number of stream keys issued",
	})
	liveStreams := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "delivery_live_streams",
		Help: "Number of streams currently live (no recording yet)",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "delivery_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		rangeRequestsTotal,
		previewsServed,
		feedRequestsTotal,
		keysIssuedTotal,
		liveStreams,
		errorsTotal,
	)

	return &Metrics{
		registry:           registry,
		requestsTotal:      requestsTotal,
		rangeRequestsTotal: rangeRequestsTotal,
		previewsServed:     previewsServed,
		feedRequestsTotal:  feedRequestsTotal,
		keysIssuedTotal:    keysIssuedTotal,
		liveStreams:        liveStreams,
		errorsTotal:        errorsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncRangeRequests increments the served range response counter.
func (m *Metrics) IncRangeRequests() {
	m.rangeRequestsTotal.Inc()
}

// IncPreviewsServed increments the previews served counter.
func (m *Metrics) IncPreviewsServed() {
	m.previewsServed.Inc()
}

// IncFeedRequests increments the feed request counter.
func (m *Metrics) IncFeedRequests() {
	m.feedRequestsTotal.Inc()
}

// IncKeysIssued increments the issued stream key counter.
func (m *Metrics) IncKeysIssued() {
	m.keysIssuedTotal.Inc()
}

// SetLiveStreams sets the live streams gauge.
func (m *Metrics) SetLiveStreams(n int) {
	m.liveStreams.Set(float64(n))
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. live streams).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
