package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the HTTP surface.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	phishingScans   *prometheus.CounterVec
	scanDuration    prometheus.Histogram
}

// NewMetrics registers the collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socrelay",
			Name:      "http_requests_total",
			Help:      "HTTP requests by path and status code.",
		}, []string{"path", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "socrelay",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		phishingScans: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socrelay",
			Name:      "phishing_scans_total",
			Help:      "Phishing heuristic scans by outcome.",
		}, []string{"suspicious"}),
		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "socrelay",
			Name:      "phishing_scan_duration_seconds",
			Help:      "Client-reported phishing scan durations.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
