package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide Prometheus collectors for HTTP, cache, and
// database concerns. One instance is created per process via Get().
type Metrics struct {
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestSize       *prometheus.HistogramVec
	HTTPResponseSize      *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	CacheHitsTotal         *prometheus.CounterVec
	CacheMissesTotal       *prometheus.CounterVec
	CacheOperationsTotal   *prometheus.CounterVec
	CacheOperationDuration *prometheus.HistogramVec
	CacheEvictionsTotal    *prometheus.CounterVec

	DatabaseQueryDuration   *prometheus.HistogramVec
	DatabaseQueriesTotal    *prometheus.CounterVec
	DatabaseConnectionsOpen *prometheus.GaugeVec

	RedisOperationDuration *prometheus.HistogramVec
	RedisOperationsTotal   *prometheus.CounterVec
	RedisConnectionsOpen   *prometheus.GaugeVec

	ErrorsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide Metrics singleton, registering collectors on
// first use.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "http_requests_total", Help: "Total HTTP requests",
			}, []string{"method", "path", "status"}),
			HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name: "http_request_duration_seconds", Help: "HTTP request latency",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			}, []string{"method", "path", "status"}),
			HTTPRequestSize: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name: "http_request_size_bytes", Help: "HTTP request body size",
				Buckets: prometheus.ExponentialBuckets(256, 4, 10),
			}, []string{"method", "path"}),
			HTTPResponseSize: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name: "http_response_size_bytes", Help: "HTTP response body size",
				Buckets: prometheus.ExponentialBuckets(256, 4, 10),
			}, []string{"method", "path", "status"}),
			HTTPActiveConnections: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "http_active_connections", Help: "In-flight HTTP requests",
			}, []string{"method", "path"}),

			CacheHitsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "cache_hits_total", Help: "Cache hits",
			}, []string{"cache"}),
			CacheMissesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "cache_misses_total", Help: "Cache misses",
			}, []string{"cache"}),
			CacheOperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "cache_operations_total", Help: "Cache operations",
			}, []string{"operation", "cache"}),
			CacheOperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name: "cache_operation_duration_seconds", Help: "Cache operation latency",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			}, []string{"operation", "cache"}),
			CacheEvictionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "cache_evictions_total", Help: "Cache evictions",
			}, []string{"cache"}),

			DatabaseQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name: "database_query_duration_seconds", Help: "Database query latency",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
			}, []string{"operation", "table"}),
			DatabaseQueriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "database_queries_total", Help: "Database queries",
			}, []string{"operation", "table", "status"}),
			DatabaseConnectionsOpen: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "database_connections_open", Help: "Open database connections",
			}, []string{"database"}),

			RedisOperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name: "redis_operation_duration_seconds", Help: "Redis operation latency",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			}, []string{"operation", "key_pattern"}),
			RedisOperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "redis_operations_total", Help: "Redis operations",
			}, []string{"operation", "status"}),
			RedisConnectionsOpen: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "redis_connections_open", Help: "Open Redis connections",
			}, []string{"instance"}),

			ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "errors_total", Help: "Errors by type and endpoint",
			}, []string{"type", "endpoint"}),
		}
	})
	return instance
}
