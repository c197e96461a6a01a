// Package ioworker runs the query-file queue drain loop: one goroutine
// per I/O thread, each pulling a file from the shared queue, reading
// chunks from it into pool buffers until exhausted, then moving to the
// next file, until the scheduler preempts it or the queue runs dry.
package ioworker

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/pepmatch/psmsearch/internal/query"
	"github.com/pepmatch/psmsearch/internal/scheduler"
	"github.com/pepmatch/psmsearch/internal/specfile"
)

// BatchRegistrar is the multi-node exchange layer's seam: in single-node
// mode no registrar is configured and registration is a no-op.
type BatchRegistrar interface {
	RegisterBatch(batchNum int64, numSpecs, fileIndex int) error
}

// Pool is the subset of *bufferpool.Pool an I/O worker needs.
type Pool interface {
	TryGetIOPtr() (*query.SpectrumBatch, bool)
	IODone(*query.SpectrumBatch)
	Replenish(*query.SpectrumBatch)
}

// Group runs a configurable number of I/O worker goroutines against a
// shared file queue and buffer pool, coordinated by a scheduler.
type Group struct {
	Queue      *query.FileQueue
	Pool       Pool
	Scheduler  *scheduler.Scheduler
	NewParser  func() specfile.Parser
	QChunk     int
	Registrar  BatchRegistrar // optional; nil in single-node mode

	active int64 // number of worker goroutines currently running
}

// Run starts n I/O worker goroutines and blocks until they have all
// exited (drained the queue, or been preempted down to zero). It returns
// a non-nil error only when ctx is cancelled; a parser error on one file
// is logged by the worker, which drops that file and moves on, so a
// single bad file does not abort the whole group.
func (g *Group) Run(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	atomic.StoreInt64(&g.active, int64(n))

	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			defer g.workerExiting()
			return g.runOne(ctx)
		})
	}
	return eg.Wait()
}

// AddWorker starts one additional I/O worker goroutine against an
// already-running group, used by the search manager when the scheduler's
// RunManager decision asks for more I/O capacity. Unlike Run, which owns
// the whole lifetime of a fixed-size worker set, AddWorker lets the
// caller grow that set one goroutine at a time; the returned channel
// receives the new worker's terminal error exactly once.
func (g *Group) AddWorker(ctx context.Context) <-chan error {
	atomic.AddInt64(&g.active, 1)
	done := make(chan error, 1)
	go func() {
		defer g.workerExiting()
		done <- g.runOne(ctx)
	}()
	return done
}

// workerExiting decrements the live worker count and, if this was the
// last one and the file queue (primary + parked) is fully drained,
// marks I/O complete so the scheduler can raise its end signal.
func (g *Group) workerExiting() {
	if atomic.AddInt64(&g.active, -1) == 0 && g.Queue.Empty() {
		g.Scheduler.IOComplete()
	}
}

// runOne is a single I/O worker's loop, per the design's four-step
// algorithm: acquire a file, acquire a buffer (or park and exit under
// preempt/starvation), extract a chunk, publish it, repeat until the
// current file is exhausted, then return to step one.
func (g *Group) runOne(ctx context.Context) error {
	parser := g.NewParser()
	var current *query.InputFile

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if current == nil {
			f, ok := g.Queue.Pop()
			if !ok {
				return nil
			}
			if _, _, err := parser.InitQueryFile(f.Path, f.FileIndex); err != nil {
				slog.Warn("skipping input file that failed to open", "path", f.Path, "error", err)
				continue
			}
			current = f
		}

		if g.Scheduler.CheckPreempt() {
			g.Queue.Park(current)
			g.Scheduler.TakeControl()
			_ = parser.DeinitQueryFile()
			return nil
		}

		buf, ok := g.Pool.TryGetIOPtr()
		if !ok {
			g.Queue.Park(current)
			_ = parser.DeinitQueryFile()
			return nil
		}
		buf.Reset()

		buf.BatchNum = current.NextBatchNum()
		if err := parser.ExtractQueryChunk(g.QChunk, buf, &current.Remaining); err != nil {
			slog.Warn("dropping input file after a chunk failed to parse", "path", current.Path, "error", err)
			g.Pool.Replenish(buf)
			_ = parser.DeinitQueryFile()
			current = nil
			continue
		}

		if g.Registrar != nil {
			_ = g.Registrar.RegisterBatch(buf.BatchNum, buf.Count, current.FileIndex)
		}
		query.AddScanned(int64(buf.Count))
		g.Pool.IODone(buf)

		if current.Done() {
			_ = parser.DeinitQueryFile()
			current = nil
		}
	}
}
