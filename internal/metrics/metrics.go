package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dogadopt"

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Datastore Metrics
	DatastoreQueriesTotal  *prometheus.CounterVec
	DatastoreQueryDuration *prometheus.HistogramVec

	// Query cache in front of the fetchers
	QueryCacheResults *prometheus.CounterVec

	// Application Metrics
	ListingFetchesTotal   *prometheus.CounterVec
	GeolocationOutcomes   *prometheus.CounterVec
	LocationSessionsOpen  prometheus.Gauge
	LocationLookupsCached prometheus.Counter
}

// New creates all metrics on the default Prometheus registry
// Call it once per process; promauto panics on duplicate registration
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics on the given registerer
// Tests pass prometheus.NewRegistry() to stay isolated
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_size_bytes",
				Help:      "HTTP request size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "endpoint"},
		),

		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "endpoint", "status"},
		),

		DatastoreQueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "datastore_queries_total",
				Help:      "Total number of datastore queries",
			},
			[]string{"datastore", "operation", "status"},
		),

		DatastoreQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "datastore_query_duration_seconds",
				Help:      "Datastore query latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"datastore", "operation"},
		),

		QueryCacheResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_cache_results_total",
				Help:      "Query cache lookups by key and result (hit, miss, shared)",
			},
			[]string{"key", "result"},
		),

		ListingFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "listing_fetches_total",
				Help:      "Total number of dog and rescue fetches",
			},
			[]string{"resource", "result"},
		),

		GeolocationOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geolocation_outcomes_total",
				Help:      "Location requests by terminal outcome",
			},
			[]string{"outcome"},
		),

		LocationSessionsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "location_sessions_open",
				Help:      "Number of live location sessions",
			},
		),

		LocationLookupsCached: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "location_lookups_cached_total",
				Help:      "IP position lookups answered from the max-age cache",
			},
		),
	}
}
