package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion-pipeline metrics exported to Prometheus. The "outcome" labels
// RecordOutcome counts are created, duplicate, rejected and failed.
var (
	IngestRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_requests_total",
			Help: "Total ingestion attempts by outcome",
		},
		[]string{"outcome"},
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "Ingestion pipeline duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	IngestStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_step_duration_seconds",
			Help:    "Per-step ingestion duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"step"},
	)

	IngestWriterWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_writer_wait_seconds",
			Help:    "Time spent waiting to acquire the single-writer lock",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30},
		},
	)
)

// IngestMetrics is the in-process mirror of the counters above, for the
// admin stats endpoint.
type IngestMetrics struct {
	Created   int64
	Duplicate int64
	Rejected  int64
	Failed    int64

	mu sync.RWMutex
}

func NewIngestMetrics() *IngestMetrics {
	return &IngestMetrics{}
}

// RecordOutcome records one completed ingestion attempt.
func (im *IngestMetrics) RecordOutcome(outcome string) {
	switch outcome {
	case "created":
		atomic.AddInt64(&im.Created, 1)
	case "duplicate":
		atomic.AddInt64(&im.Duplicate, 1)
	case "rejected":
		atomic.AddInt64(&im.Rejected, 1)
	case "failed":
		atomic.AddInt64(&im.Failed, 1)
	}
	IngestRequestsTotal.WithLabelValues(outcome).Inc()
}

func (im *IngestMetrics) GetStats() map[string]interface{} {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return map[string]interface{}{
		"created":   atomic.LoadInt64(&im.Created),
		"duplicate": atomic.LoadInt64(&im.Duplicate),
		"rejected":  atomic.LoadInt64(&im.Rejected),
		"failed":    atomic.LoadInt64(&im.Failed),
	}
}

func (im *IngestMetrics) Reset() {
	atomic.StoreInt64(&im.Created, 0)
	atomic.StoreInt64(&im.Duplicate, 0)
	atomic.StoreInt64(&im.Rejected, 0)
	atomic.StoreInt64(&im.Failed, 0)
}
