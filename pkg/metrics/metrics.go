// Package metrics exposes Prometheus instrumentation for request
// throughput, allocator occupancy, and persistence latency.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registered collectors for one server instance.
type Metrics struct {
	RequestsTotal       *prometheus.CounterVec
	PersistenceDuration *prometheus.HistogramVec
	AllocatorUsedBlocks prometheus.Gauge
	AllocatorFreeBlocks prometheus.Gauge
	QueueDepth          prometheus.Gauge
}

// New registers all omnifs collectors against reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "omnifs",
			Name:      "requests_total",
			Help:      "Total dispatched requests by operation and result code.",
		}, []string{"operation", "code"}),

		PersistenceDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "omnifs",
			Name:      "persistence_duration_seconds",
			Help:      "Duration of container save/load operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		AllocatorUsedBlocks: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "omnifs",
			Name:      "allocator_used_blocks",
			Help:      "Number of currently allocated blocks.",
		}),

		AllocatorFreeBlocks: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "omnifs",
			Name:      "allocator_free_blocks",
			Help:      "Number of currently free blocks.",
		}),

		QueueDepth: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "omnifs",
			Name:      "request_queue_depth",
			Help:      "Number of requests currently buffered in the worker queue.",
		}),
	}
}

// ObserveAllocator records current allocator occupancy.
func (m *Metrics) ObserveAllocator(used, free int) {
	if m == nil {
		return
	}
	m.AllocatorUsedBlocks.Set(float64(used))
	m.AllocatorFreeBlocks.Set(float64(free))
}

// RecordRequest increments the per-operation/code counter.
func (m *Metrics) RecordRequest(operation string, code int) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, strconv.Itoa(code)).Inc()
}
