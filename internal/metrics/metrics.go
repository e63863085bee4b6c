// Package metrics exposes Prometheus instrumentation for crack operations
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cracker"

// Metrics collects pipeline counters
type Metrics struct {
	candidatesHashed  prometheus.Counter
	candidatesSkipped prometheus.Counter
	batchesDispatched prometheus.Counter
	batchDuration     prometheus.Histogram
	runs              *prometheus.CounterVec
}

// New registers the pipeline metrics with reg. A nil reg gives unregistered
// metrics, which still count but are never exported.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		candidatesHashed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_hashed_total",
			Help:      "Candidates hashed on the compute device",
		}),
		candidatesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_skipped_total",
			Help:      "Wordlist entries dropped for exceeding the single-block limit",
		}),
		batchesDispatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_dispatched_total",
			Help:      "Batches dispatched to the compute device",
		}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time to hash one batch including readback",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Crack operations by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveBatch records one dispatched batch
func (m *Metrics) ObserveBatch(size int, elapsed time.Duration) {
	m.batchesDispatched.Inc()
	m.candidatesHashed.Add(float64(size))
	m.batchDuration.Observe(elapsed.Seconds())
}

// AddSkipped records wordlist entries dropped before hashing
func (m *Metrics) AddSkipped(n int64) {
	if n > 0 {
		m.candidatesSkipped.Add(float64(n))
	}
}

// ObserveRun records the outcome of a crack operation
func (m *Metrics) ObserveRun(outcome string) {
	m.runs.WithLabelValues(outcome).Inc()
}
