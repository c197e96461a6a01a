package bufferpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolRoundTrip(t *testing.T) {
	p := New(4, 100, 10, 1, 3)
	require.True(t, p.IsEmptyReadyQ())
	require.False(t, p.IsEmptyWaitQ())

	b, ok := p.GetIOPtr()
	require.True(t, ok)
	b.Count = 1
	p.IODone(b)

	require.False(t, p.IsEmptyReadyQ())

	got, ok := p.GetWorkPtr()
	require.True(t, ok)
	require.Equal(t, 1, got.Count)

	p.Replenish(got)
	require.Equal(t, 0, got.Count, "Replenish resets the batch before returning it to wait")
}

func TestReadyQStatusWatermarks(t *testing.T) {
	p := New(10, 100, 10, 2, 5)
	require.Equal(t, BelowLow, p.ReadyQStatus())

	for i := 0; i < 3; i++ {
		b, _ := p.GetIOPtr()
		p.IODone(b)
	}
	require.Equal(t, Between, p.ReadyQStatus())

	for i := 0; i < 4; i++ {
		b, _ := p.GetIOPtr()
		p.IODone(b)
	}
	require.Equal(t, AboveHigh, p.ReadyQStatus())
}

func TestCloseUnblocksWaiters(t *testing.T) {
	p := New(1, 10, 10, 1, 1)
	b, _ := p.GetIOPtr()
	p.IODone(b)
	_, _ = p.GetWorkPtr() // drain wait empty now too

	p.Close()

	_, ok := p.GetIOPtr()
	require.False(t, ok)
	_, ok = p.GetWorkPtr()
	require.False(t, ok)
}
