package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func findFamily(t *testing.T, families []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric family %q not found", name)
	return nil
}

func TestNewRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ReadyQueueDepth.Set(3)
	m.WaitQueueDepth.Set(12)
	m.IOThreads.Set(4)
	m.CPSMsPerSpectrum.Observe(1500)
	m.TailFitFailures.Inc()
	m.EValuesAccepted.Inc()
	m.EValuesRejected.Inc()
	m.EValuesRejected.Inc()
	m.BatchesProcessed.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	readyQueue := findFamily(t, families, "psmsearch_bufferpool_ready_queue_depth")
	require.Equal(t, 3.0, readyQueue.GetMetric()[0].GetGauge().GetValue())

	rejected := findFamily(t, families, "psmsearch_tailfit_evalues_rejected_total")
	require.Equal(t, 2.0, rejected.GetMetric()[0].GetCounter().GetValue())

	batches := findFamily(t, families, "psmsearch_ioworker_batches_processed_total")
	require.Equal(t, 1.0, batches.GetMetric()[0].GetCounter().GetValue())
}

func TestRecorderMethodsIncrementVectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	var r Recorder = m
	r.RecordOperation("score_batch", "success")
	r.RecordOperation("score_batch", "success")
	r.RecordOperation("score_batch", "error")
	r.RecordDuration("score_batch", 0.42)
	r.RecordError("score_batch", "parse_failure")

	families, err := reg.Gather()
	require.NoError(t, err)

	ops := findFamily(t, families, "psmsearch_operations_total")
	var total float64
	for _, metric := range ops.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	require.Equal(t, 3.0, total)

	durations := findFamily(t, families, "psmsearch_operation_duration_seconds")
	require.Equal(t, uint64(1), durations.GetMetric()[0].GetHistogram().GetSampleCount())

	errs := findFamily(t, families, "psmsearch_errors_total")
	require.Equal(t, 1.0, errs.GetMetric()[0].GetCounter().GetValue())
}
