package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPResponseSize      *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// View aggregation
	ViewsTotal          *prometheus.CounterVec
	ThrottleErrorsTotal *prometheus.CounterVec

	// Store
	StoreOperationDuration *prometheus.HistogramVec
	StoreConflictsTotal    *prometheus.CounterVec
	MalformedRecordsTotal  *prometheus.CounterVec

	// Enrichment
	PreviewFetchesTotal *prometheus.CounterVec
	AIRequestsTotal     *prometheus.CounterVec
	AIRequestDuration   *prometheus.HistogramVec

	// Rate limiting
	RateLimitExceededTotal *prometheus.CounterVec

	// Response cache
	CacheHitsTotal         *prometheus.CounterVec
	CacheMissesTotal       *prometheus.CounterVec
	CacheOperationsTotal   *prometheus.CounterVec
	CacheOperationDuration *prometheus.HistogramVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPResponseSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			ViewsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "post_views_total",
					Help: "View events by outcome (accepted, throttled, not_found, error)",
				},
				[]string{"result"},
			),
			ThrottleErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "view_throttle_errors_total",
					Help: "Throttle store failures; the view is allowed when this happens",
				},
				[]string{"operation"},
			),

			StoreOperationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "store_operation_duration_seconds",
					Help:    "Store operation latency in seconds",
					Buckets: []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 3},
				},
				[]string{"backend", "operation"},
			),
			StoreConflictsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "store_conflicts_total",
					Help: "Optimistic transactions aborted by a concurrent write",
				},
				[]string{"backend"},
			),
			MalformedRecordsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "store_malformed_records_total",
					Help: "Stored records skipped because they could not be decoded",
				},
				[]string{"kind"},
			),

			PreviewFetchesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "preview_fetches_total",
					Help: "URL preview fetches by result",
				},
				[]string{"result"},
			),
			AIRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ai_requests_total",
					Help: "Generative AI requests by operation and status",
				},
				[]string{"operation", "status"},
			),
			AIRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "ai_request_duration_seconds",
					Help:    "Generative AI request latency in seconds",
					Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20},
				},
				[]string{"operation"},
			),

			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of rate limit violations",
				},
				[]string{"endpoint", "method"},
			),

			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache"},
			),
			CacheMissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache"},
			),
			CacheOperationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_operations_total",
					Help: "Total number of cache operations",
				},
				[]string{"operation", "cache"},
			),
			CacheOperationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "cache_operation_duration_seconds",
					Help:    "Cache operation latency in seconds",
					Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
				},
				[]string{"operation", "cache"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	return Initialize()
}
