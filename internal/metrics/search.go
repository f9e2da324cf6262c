package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lane-level metrics exported to Prometheus. "type" is one of exact, vibe,
// both (the orchestrator's own requested-lane label).
var (
	SearchQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_queries_total",
			Help: "Total number of search requests by requested lane",
		},
		[]string{"type"},
	)

	SearchQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_query_duration_seconds",
			Help:    "Search request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"type"},
	)

	SearchResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_results_total",
			Help: "Total number of matches returned, by lane",
		},
		[]string{"lane"},
	)

	SearchLaneTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_lane_timeouts_total",
			Help: "Lane deadlines exceeded, by lane",
		},
		[]string{"lane"},
	)

	SearchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_errors_total",
			Help: "Total number of search errors",
		},
		[]string{"type", "error_type"},
	)
)

// SearchMetrics tracks performance and usage metrics for the search
// orchestrator, mirroring what is exported to Prometheus above so in-process
// dashboards (e.g. /admin/stats) don't have to scrape.
type SearchMetrics struct {
	QueryCount    int64
	ExactSearched int64
	VibeSearched  int64
	BothSearched  int64

	TotalQueryTime int64
	MaxQueryTime   int64
	MinQueryTime   int64

	ErrorCount   int64
	TimeoutCount int64

	TotalResults int64

	mu             sync.RWMutex
	queryTimings   []int64
	maxTimingsSize int
}

// QueryMetric represents a single search request's metrics.
type QueryMetric struct {
	Type        string // "exact", "vibe", "both"
	ResultCount int
	Duration    time.Duration
	Error       bool
	Timestamp   time.Time
}

// NewSearchMetrics creates a new search metrics tracker.
func NewSearchMetrics() *SearchMetrics {
	return &SearchMetrics{
		queryTimings:   make([]int64, 0, 10000),
		maxTimingsSize: 10000,
	}
}

// RecordQuery records one completed search request.
func (sm *SearchMetrics) RecordQuery(metric QueryMetric) {
	atomic.AddInt64(&sm.QueryCount, 1)

	switch metric.Type {
	case "exact":
		atomic.AddInt64(&sm.ExactSearched, 1)
	case "vibe":
		atomic.AddInt64(&sm.VibeSearched, 1)
	case "both":
		atomic.AddInt64(&sm.BothSearched, 1)
	}

	atomic.AddInt64(&sm.TotalResults, int64(metric.ResultCount))

	if metric.Error {
		atomic.AddInt64(&sm.ErrorCount, 1)
		SearchErrorsTotal.WithLabelValues(metric.Type, "query_failed").Inc()
	}

	durationMs := metric.Duration.Milliseconds()
	durationSec := float64(durationMs) / 1000.0

	atomic.AddInt64(&sm.TotalQueryTime, durationMs)
	sm.updateMinMax(durationMs)

	sm.mu.Lock()
	if len(sm.queryTimings) < sm.maxTimingsSize {
		sm.queryTimings = append(sm.queryTimings, durationMs)
	}
	sm.mu.Unlock()

	SearchQueriesTotal.WithLabelValues(metric.Type).Inc()
	SearchQueryDuration.WithLabelValues(metric.Type).Observe(durationSec)
	SearchResultsTotal.WithLabelValues(metric.Type).Add(float64(metric.ResultCount))
}

// RecordLaneTimeout records a single lane missing its deadline.
func (sm *SearchMetrics) RecordLaneTimeout(lane string) {
	atomic.AddInt64(&sm.TimeoutCount, 1)
	SearchLaneTimeoutsTotal.WithLabelValues(lane).Inc()
}

func (sm *SearchMetrics) updateMinMax(duration int64) {
	for {
		oldMin := atomic.LoadInt64(&sm.MinQueryTime)
		if oldMin == 0 || duration < oldMin {
			if atomic.CompareAndSwapInt64(&sm.MinQueryTime, oldMin, duration) {
				break
			}
		} else {
			break
		}
	}

	for {
		oldMax := atomic.LoadInt64(&sm.MaxQueryTime)
		if duration > oldMax {
			if atomic.CompareAndSwapInt64(&sm.MaxQueryTime, oldMax, duration) {
				break
			}
		} else {
			break
		}
	}
}

// GetStats returns current metrics as a map, for the admin stats endpoint.
func (sm *SearchMetrics) GetStats() map[string]interface{} {
	queryCount := atomic.LoadInt64(&sm.QueryCount)
	totalTime := atomic.LoadInt64(&sm.TotalQueryTime)

	var avgTime float64
	if queryCount > 0 {
		avgTime = float64(totalTime) / float64(queryCount)
	}

	var errorRate float64
	if queryCount > 0 {
		errorRate = float64(atomic.LoadInt64(&sm.ErrorCount)) / float64(queryCount) * 100
	}

	sm.mu.RLock()
	p50, p95, p99 := sm.calculatePercentiles()
	sm.mu.RUnlock()

	return map[string]interface{}{
		"total_queries":     queryCount,
		"exact_searched":    atomic.LoadInt64(&sm.ExactSearched),
		"vibe_searched":     atomic.LoadInt64(&sm.VibeSearched),
		"both_searched":     atomic.LoadInt64(&sm.BothSearched),
		"total_results":     atomic.LoadInt64(&sm.TotalResults),
		"error_count":       atomic.LoadInt64(&sm.ErrorCount),
		"error_rate":        errorRate,
		"timeout_count":     atomic.LoadInt64(&sm.TimeoutCount),
		"avg_query_time_ms": avgTime,
		"min_query_time_ms": atomic.LoadInt64(&sm.MinQueryTime),
		"max_query_time_ms": atomic.LoadInt64(&sm.MaxQueryTime),
		"p50_query_time_ms": p50,
		"p95_query_time_ms": p95,
		"p99_query_time_ms": p99,
	}
}

// calculatePercentiles assumes mu is already locked.
func (sm *SearchMetrics) calculatePercentiles() (p50, p95, p99 int64) {
	if len(sm.queryTimings) == 0 {
		return 0, 0, 0
	}

	timings := make([]int64, len(sm.queryTimings))
	copy(timings, sm.queryTimings)

	for i := 0; i < len(timings); i++ {
		for j := i + 1; j < len(timings); j++ {
			if timings[j] < timings[i] {
				timings[i], timings[j] = timings[j], timings[i]
			}
		}
	}

	n := len(timings)
	p50 = timings[(n*50)/100]
	p95 = timings[(n*95)/100]
	p99 = timings[(n*99)/100]

	return
}

// Reset clears all metrics.
func (sm *SearchMetrics) Reset() {
	atomic.StoreInt64(&sm.QueryCount, 0)
	atomic.StoreInt64(&sm.ExactSearched, 0)
	atomic.StoreInt64(&sm.VibeSearched, 0)
	atomic.StoreInt64(&sm.BothSearched, 0)
	atomic.StoreInt64(&sm.TotalQueryTime, 0)
	atomic.StoreInt64(&sm.MaxQueryTime, 0)
	atomic.StoreInt64(&sm.MinQueryTime, 0)
	atomic.StoreInt64(&sm.ErrorCount, 0)
	atomic.StoreInt64(&sm.TimeoutCount, 0)
	atomic.StoreInt64(&sm.TotalResults, 0)

	sm.mu.Lock()
	sm.queryTimings = sm.queryTimings[:0]
	sm.mu.Unlock()
}
