// Package metrics defines the Prometheus collectors used by the tracker and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the tracker.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchesTotal        *prometheus.CounterVec
	SearchLatency        prometheus.Histogram
	ArticlesReturned     prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	VotesTotal           *prometheus.CounterVec
	UnknownRegistered    prometheus.Counter
	PromotionRuns        *prometheus.CounterVec
	DomainsPromoted      prometheus.Counter
	StorageWriteErrors   *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates the collectors and registers them with the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates the collectors and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news_searches_total",
				Help: "Total news searches by outcome (ok, empty, error).",
			},
			[]string{"outcome"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "news_search_latency_seconds",
				Help:    "End-to-end search latency including the upstream fetch.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		ArticlesReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "news_articles_returned",
				Help:    "Number of articles returned per search after filtering.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "news_cache_hits_total",
				Help: "Total number of feed cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "news_cache_misses_total",
				Help: "Total number of feed cache misses.",
			},
		),
		VotesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trust_votes_total",
				Help: "Votes applied by direction and kind (cast, retract).",
			},
			[]string{"direction", "kind"},
		),
		UnknownRegistered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trust_unknown_sources_registered_total",
				Help: "Domains newly registered as unknown sources.",
			},
		),
		PromotionRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trust_promotion_runs_total",
				Help: "Promotion runs by status (ok, error).",
			},
			[]string{"status"},
		),
		DomainsPromoted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trust_domains_promoted_total",
				Help: "Domains promoted from unknown into the trust mapping.",
			},
		),
		StorageWriteErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trust_storage_write_errors_total",
				Help: "Failed document writes by backend.",
			},
			[]string{"backend"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchesTotal,
		m.SearchLatency,
		m.ArticlesReturned,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.VotesTotal,
		m.UnknownRegistered,
		m.PromotionRuns,
		m.DomainsPromoted,
		m.StorageWriteErrors,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
