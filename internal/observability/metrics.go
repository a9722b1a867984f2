package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aesctl",
			Subsystem: "framing",
			Name:      "frames_total",
			Help:      "Valid request frames assembled from the byte stream.",
		},
		[]string{"node"},
	)
	resyncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aesctl",
			Subsystem: "framing",
			Name:      "resyncs_total",
			Help:      "Resynchronizations after a window without the marker.",
		},
		[]string{"node", "mode"},
	)
	bytesDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aesctl",
			Subsystem: "framing",
			Name:      "bytes_discarded_total",
			Help:      "Stream bytes dropped during resynchronization.",
		},
		[]string{"node", "mode"},
	)
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aesctl",
			Subsystem: "accel",
			Name:      "operations_total",
			Help:      "Completed accelerator operations.",
		},
		[]string{"node", "mode"},
	)
	operationCycles = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aesctl",
			Subsystem: "accel",
			Name:      "operation_cycles",
			Help:      "Elapsed accelerator cycles per operation.",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 16),
		},
		[]string{"node", "mode"},
	)
	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aesctl",
			Subsystem: "accel",
			Name:      "operation_duration_seconds",
			Help:      "Wall-clock operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "mode"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			framesTotal, resyncsTotal, bytesDiscarded,
			operationsTotal, operationCycles, operationDuration,
		)
	})
}

func RecordFrame(node string) {
	RegisterMetrics()
	framesTotal.WithLabelValues(node).Inc()
}

func RecordResync(node, mode string, discarded uint64) {
	RegisterMetrics()
	resyncsTotal.WithLabelValues(node, mode).Inc()
	bytesDiscarded.WithLabelValues(node, mode).Add(float64(discarded))
}

func RecordOperation(node, mode string, cycles uint32, duration time.Duration) {
	RegisterMetrics()
	operationsTotal.WithLabelValues(node, mode).Inc()
	operationCycles.WithLabelValues(node, mode).Observe(float64(cycles))
	operationDuration.WithLabelValues(node, mode).Observe(duration.Seconds())
}
