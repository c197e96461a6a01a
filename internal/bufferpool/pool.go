// Package bufferpool implements the fixed-capacity double-queue of
// reusable spectrum-batch buffers: wait (empty) and ready (filled), with
// low/high watermarks the scheduler reads off the ready side.
//
// Buffered channels are the idiomatic Go rendering of the two mutex-guarded
// queues the original design uses (lockr_/lockw_): channel send/receive is
// itself the lock, so the two sides can never be held simultaneously,
// which is exactly invariant I5 in spec terms.
package bufferpool

import "github.com/pepmatch/psmsearch/internal/query"

// ReadyLevel classifies the ready queue's current depth relative to the
// configured watermarks, consumed by the scheduler's runManager policy.
type ReadyLevel int

const (
	BelowLow ReadyLevel = iota
	Between
	AboveHigh
)

// Pool holds N preallocated spectrum batches split across a wait queue
// (empty, available to I/O workers) and a ready queue (filled, available
// to compute workers).
type Pool struct {
	wait  chan *query.SpectrumBatch
	ready chan *query.SpectrumBatch

	low  int
	high int
	size int
}

// New preallocates size batches, each sized for qChunk spectra, and seeds
// the wait queue with all of them.
func New(size, qChunk, avgPeaksPerSpectrum, low, high int) *Pool {
	p := &Pool{
		wait:  make(chan *query.SpectrumBatch, size),
		ready: make(chan *query.SpectrumBatch, size),
		low:   low,
		high:  high,
		size:  size,
	}
	for i := 0; i < size; i++ {
		p.wait <- query.NewSpectrumBatch(qChunk, avgPeaksPerSpectrum)
	}
	return p
}

// GetIOPtr dequeues a buffer from the wait side for an I/O worker to fill.
// It blocks if the wait queue is empty, or returns immediately with ok=false
// if ctx-style cancellation closed the pool (see Close).
func (p *Pool) GetIOPtr() (*query.SpectrumBatch, bool) {
	b, ok := <-p.wait
	return b, ok
}

// TryGetIOPtr attempts to dequeue a buffer from the wait side without
// blocking. ok is false if the wait queue is currently empty (the I/O
// worker loop parks the file and exits rather than wait) or if the pool
// is closed.
func (p *Pool) TryGetIOPtr() (b *query.SpectrumBatch, ok bool) {
	select {
	case b, open := <-p.wait:
		return b, open
	default:
		return nil, false
	}
}

// IODone enqueues a filled buffer onto the ready side for a compute
// worker to pick up.
func (p *Pool) IODone(b *query.SpectrumBatch) {
	p.ready <- b
}

// GetWorkPtr dequeues a buffer from the ready side for a compute worker.
func (p *Pool) GetWorkPtr() (*query.SpectrumBatch, bool) {
	b, ok := <-p.ready
	return b, ok
}

// TryGetWorkPtr attempts to dequeue a buffer from the ready side without
// blocking, the Go-native rendering of the design's polling consumer:
// ok is false when the ready queue is momentarily empty, letting the
// caller report the stall to the scheduler and poll again rather than
// block indefinitely past an end-of-input signal.
func (p *Pool) TryGetWorkPtr() (b *query.SpectrumBatch, ok bool) {
	select {
	case b, open := <-p.ready:
		return b, open
	default:
		return nil, false
	}
}

// Replenish resets a consumed buffer and returns it to the wait side.
func (p *Pool) Replenish(b *query.SpectrumBatch) {
	b.Reset()
	p.wait <- b
}

// IsEmptyReadyQ reports whether the ready queue currently holds nothing.
func (p *Pool) IsEmptyReadyQ() bool {
	return len(p.ready) == 0
}

// IsEmptyWaitQ reports whether the wait queue currently holds nothing.
func (p *Pool) IsEmptyWaitQ() bool {
	return len(p.wait) == 0
}

// ReadyQStatus classifies the ready queue's depth against the configured
// watermarks, for the scheduler's runManager policy.
func (p *Pool) ReadyQStatus() ReadyLevel {
	depth := len(p.ready)
	switch {
	case depth < p.low:
		return BelowLow
	case depth > p.high:
		return AboveHigh
	default:
		return Between
	}
}

// ReadyDepth reports the current ready-queue length, for metrics gauges.
func (p *Pool) ReadyDepth() int {
	return len(p.ready)
}

// Close drains the pool by closing both channels. Any goroutine blocked
// in GetIOPtr/GetWorkPtr unblocks with ok=false. Callers must ensure no
// further Replenish/IODone calls occur after Close.
func (p *Pool) Close() {
	close(p.wait)
	close(p.ready)
}
