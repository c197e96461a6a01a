// Package scheduler arbitrates how many worker threads serve I/O vs.
// compute, adjusting on each compute iteration using a measured stall
// penalty and the ready-queue fill level, and emits an end signal once
// every input file is drained.
//
// The single active instance follows the teacher's BatchScheduler shape
// (sync.Mutex + sync.Cond guarding shared counters, with waiters blocking
// on a condition rather than polling a lock in a spin loop) generalized
// from "wait for a full batch" to "wait for a policy decision".
package scheduler

import (
	"sync"
	"time"

	"github.com/pepmatch/psmsearch/internal/bufferpool"
)

// Scheduler is the single process-wide instance coordinating I/O and
// compute thread allocation for one search run.
type Scheduler struct {
	mu   sync.Mutex
	cond *sync.Cond

	nIOThreads  int
	maxIO       int
	ioComplete  bool
	preempt     bool
	endSignal   bool
	fileQueueEmpty func() bool
}

// New creates a scheduler starting with a single I/O worker, up to maxIO.
func New(maxIO int) *Scheduler {
	if maxIO < 1 {
		maxIO = 1
	}
	s := &Scheduler{
		nIOThreads: 1,
		maxIO:      maxIO,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Decision reports what the caller (an I/O worker's owner, or the
// consumer loop) should do as a result of RunManager's policy evaluation.
type Decision struct {
	SpawnIOWorker bool
}

// RunManager is called by the consumer once per compute iteration with
// the wall-clock penalty it just paid blocked on an empty ready queue,
// and the ready queue's watermark classification. It applies the policy
// bullets verbatim from the design: spawn another I/O worker under stall
// pressure, request preempt under backpressure, or raise endSignal once
// input is exhausted.
func (s *Scheduler) RunManager(penalty time.Duration, level bufferpool.ReadyLevel) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	var d Decision

	const stallThreshold = 500 * time.Millisecond
	if penalty >= stallThreshold && level == bufferpool.BelowLow && !s.ioComplete && s.nIOThreads < s.maxIO {
		s.nIOThreads++
		d.SpawnIOWorker = true
	}

	if level == bufferpool.AboveHigh && s.nIOThreads > 1 {
		s.preempt = true
	}

	if s.ioComplete && s.fileQueueDrained() {
		s.endSignal = true
		s.cond.Broadcast()
	}

	return d
}

// fileQueueDrained reports whether every input file has been consumed,
// consulting the injected predicate if one was registered via
// SetFileQueueEmptyFunc. Callers must hold s.mu.
func (s *Scheduler) fileQueueDrained() bool {
	if s.fileQueueEmpty == nil {
		return true
	}
	return s.fileQueueEmpty()
}

// SetFileQueueEmptyFunc registers the predicate RunManager consults to
// decide whether the file queue (primary + parked) is fully drained.
func (s *Scheduler) SetFileQueueEmptyFunc(f func() bool) {
	s.mu.Lock()
	s.fileQueueEmpty = f
	s.mu.Unlock()
}

// CheckSignal reports whether the end-of-input signal has been raised.
func (s *Scheduler) CheckSignal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endSignal
}

// CheckPreempt reports whether a preempt request is pending and clears
// it, so exactly one I/O worker observes and acts on each request.
func (s *Scheduler) CheckPreempt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preempt {
		s.preempt = false
		return true
	}
	return false
}

// GetNumActiveThreads returns the current I/O thread count, consulted by
// the compute kernel to lower its parallel width by this amount.
func (s *Scheduler) GetNumActiveThreads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nIOThreads
}

// TakeControl is the bookkeeping ack an I/O worker makes when it yields
// its slot after observing a preempt request.
func (s *Scheduler) TakeControl() {
	s.mu.Lock()
	if s.nIOThreads > 0 {
		s.nIOThreads--
	}
	s.mu.Unlock()
}

// IOComplete marks I/O as finished; called once the last I/O worker has
// exited and the file queue (primary + park) is empty.
func (s *Scheduler) IOComplete() {
	s.mu.Lock()
	s.ioComplete = true
	s.mu.Unlock()
}

// WaitForEndSignal blocks until CheckSignal would return true, for
// callers with nothing else to do but wait. The search manager does not
// call it: its consumer loop polls CheckSignal every 0.1s, since it must
// also service the ready queue.
func (s *Scheduler) WaitForEndSignal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.endSignal {
		s.cond.Wait()
	}
}
