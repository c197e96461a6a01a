// Package metrics exposes Prometheus instrumentation for the search
// pipeline: queue depth gauges, scheduler thread counts, and per-run
// counters for candidates scored and e-values produced.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "psmsearch"

// Recorder is the narrow interface the search pipeline's hot paths
// depend on, mirroring the operation/duration/error shape used
// elsewhere in the corpus for instrumentation seams: production code
// wires *Metrics, tests can substitute a capturing fake
// without pulling in a real registry.
type Recorder interface {
	RecordOperation(operation, status string)
	RecordDuration(operation string, seconds float64)
	RecordError(operation, errorType string)
}

// Metrics bundles every gauge/counter the search pipeline publishes.
type Metrics struct {
	ReadyQueueDepth   prometheus.Gauge
	WaitQueueDepth    prometheus.Gauge
	IOThreads         prometheus.Gauge
	CPSMsPerSpectrum  prometheus.Histogram
	TailFitFailures   prometheus.Counter
	EValuesAccepted   prometheus.Counter
	EValuesRejected   prometheus.Counter
	BatchesProcessed  prometheus.Counter

	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	errors     *prometheus.CounterVec
}

// New registers every metric against reg and returns the bundle. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the global
// default registry across parallel test runs.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ReadyQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "bufferpool", Name: "ready_queue_depth",
			Help: "Number of filled spectrum batches currently queued for compute workers.",
		}),
		WaitQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "bufferpool", Name: "wait_queue_depth",
			Help: "Number of empty spectrum batches currently available to I/O workers.",
		}),
		IOThreads: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "io_threads",
			Help: "Current number of active I/O worker threads.",
		}),
		CPSMsPerSpectrum: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "scoring", Name: "cpsms_per_spectrum",
			Help:    "Candidate PSMs scored per spectrum before tail-fit.",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12),
		}),
		TailFitFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tailfit", Name: "failures_total",
			Help: "Spectra for which tail-fit returned the ceiling sentinel instead of a fitted e-value.",
		}),
		EValuesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tailfit", Name: "evalues_accepted_total",
			Help: "Spectra whose top e-value cleared the configured ceiling and reached the output sink.",
		}),
		EValuesRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tailfit", Name: "evalues_rejected_total",
			Help: "Spectra whose top e-value did not clear the configured ceiling.",
		}),
		BatchesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ioworker", Name: "batches_processed_total",
			Help: "Spectrum batches extracted and published to the ready queue.",
		}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operations_total",
			Help: "Count of pipeline operations by status.",
		}, []string{"operation", "status"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "operation_duration_seconds",
			Help:    "Duration of pipeline operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "errors_total",
			Help: "Count of pipeline errors by type.",
		}, []string{"operation", "error_type"}),
	}
}

// RecordOperation implements Recorder.
func (m *Metrics) RecordOperation(operation, status string) {
	m.operations.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (m *Metrics) RecordDuration(operation string, seconds float64) {
	m.durations.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *Metrics) RecordError(operation, errorType string) {
	m.errors.WithLabelValues(operation, errorType).Inc()
}

var _ Recorder = (*Metrics)(nil)
