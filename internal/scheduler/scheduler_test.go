package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pepmatch/psmsearch/internal/bufferpool"
)

func TestSpawnsIOWorkerUnderStall(t *testing.T) {
	s := New(4)
	d := s.RunManager(600*time.Millisecond, bufferpool.BelowLow)
	require.True(t, d.SpawnIOWorker)
	require.Equal(t, 2, s.GetNumActiveThreads())
}

func TestDoesNotExceedMaxIO(t *testing.T) {
	s := New(1)
	d := s.RunManager(600*time.Millisecond, bufferpool.BelowLow)
	require.False(t, d.SpawnIOWorker)
	require.Equal(t, 1, s.GetNumActiveThreads())
}

func TestPreemptRequestedAboveHighWatermark(t *testing.T) {
	s := New(4)
	s.RunManager(600*time.Millisecond, bufferpool.BelowLow) // nIOThreads -> 2
	s.RunManager(0, bufferpool.AboveHigh)

	require.True(t, s.CheckPreempt())
	require.False(t, s.CheckPreempt(), "preempt clears after first observation")
}

func TestEndSignalOnceIOCompleteAndQueueDrained(t *testing.T) {
	s := New(1)
	drained := false
	s.SetFileQueueEmptyFunc(func() bool { return drained })

	s.IOComplete()
	s.RunManager(0, bufferpool.Between)
	require.False(t, s.CheckSignal(), "queue not drained yet")

	drained = true
	s.RunManager(0, bufferpool.Between)
	require.True(t, s.CheckSignal())
}

func TestTakeControlDecrementsIOThreads(t *testing.T) {
	s := New(4)
	s.RunManager(600*time.Millisecond, bufferpool.BelowLow)
	require.Equal(t, 2, s.GetNumActiveThreads())

	s.TakeControl()
	require.Equal(t, 1, s.GetNumActiveThreads())
}
