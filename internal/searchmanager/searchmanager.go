// Package searchmanager wires the bufferpool, scheduler, I/O workers,
// scoring kernel, tail-fit estimator, exchange layer, and output sink
// into one runnable search, the way the teacher's internal/analysis
// package assembles its own independently-testable packages into
// RealtimeAnalysis/FileAnalysis/DirectoryAnalysis entry points.
package searchmanager

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pepmatch/psmsearch/internal/bufferpool"
	"github.com/pepmatch/psmsearch/internal/conf"
	"github.com/pepmatch/psmsearch/internal/errors"
	"github.com/pepmatch/psmsearch/internal/exchange"
	"github.com/pepmatch/psmsearch/internal/index"
	"github.com/pepmatch/psmsearch/internal/ioworker"
	"github.com/pepmatch/psmsearch/internal/metrics"
	"github.com/pepmatch/psmsearch/internal/output"
	"github.com/pepmatch/psmsearch/internal/query"
	"github.com/pepmatch/psmsearch/internal/scheduler"
	"github.com/pepmatch/psmsearch/internal/scoring"
	"github.com/pepmatch/psmsearch/internal/specfile"
	"github.com/pepmatch/psmsearch/internal/tailfit"
)

// SearchContext bundles every collaborator one search run needs. The
// index, parser factory, exchange transport, and output sink are all
// supplied by the caller (cmd/search), since building/opening them is
// outside this package's scope.
type SearchContext struct {
	Settings  *conf.Settings
	Index     *index.Index
	NewParser func() specfile.Parser
	Sink      output.Sink
	Metrics   *metrics.Metrics
	Transport exchange.Transport // nil in single-node mode

	Pool      *bufferpool.Pool
	Scheduler *scheduler.Scheduler
	Queue     *query.FileQueue
	Ring      *exchange.Ring // nil in single-node mode
}

// New discovers the configured dataset, preallocates the buffer pool,
// and assembles a SearchContext ready to Run. It does not start any
// goroutines.
func New(settings *conf.Settings, idx *index.Index, newParser func() specfile.Parser, sink output.Sink, m *metrics.Metrics, transport exchange.Transport) (*SearchContext, error) {
	paths, err := discoverPaths(settings.Search.Dataset)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrInvalidPointer).Category(errors.CategoryFileIO).Component("searchmanager").
			Context("operation", "discover_dataset").Context("path", settings.Search.Dataset).Build()
	}

	qChunk := conf.QChunk
	files, err := buildInputFiles(paths, qChunk, newParser)
	if err != nil {
		return nil, err
	}

	const avgPeaksPerSpectrum = 50
	pool := bufferpool.New(settings.BufferPool.Size, qChunk, avgPeaksPerSpectrum,
		settings.BufferPool.LowWatermark, settings.BufferPool.HighWatermark)

	sched := scheduler.New(settings.Search.PrepThreads)
	queue := query.NewFileQueue(files)
	sched.SetFileQueueEmptyFunc(queue.Empty)

	sc := &SearchContext{
		Settings:  settings,
		Index:     idx,
		NewParser: newParser,
		Sink:      sink,
		Metrics:   m,
		Transport: transport,
		Pool:      pool,
		Scheduler: sched,
		Queue:     queue,
	}

	if settings.Exchange.Enabled {
		sc.Ring = exchange.NewRing(settings.Exchange.NIBuffs, qChunk, ringSamplesPerSpectrum)
	}

	return sc, nil
}

// Run drives one complete search: starts the I/O worker(s), the compute
// dispatch loop, and (if multi-node) the exchange writer, then tears
// everything down in order once the scheduler raises its end signal or
// ctx is cancelled.
func (sc *SearchContext) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ioGroup := &ioworker.Group{
		Queue:     sc.Queue,
		Pool:      sc.Pool,
		Scheduler: sc.Scheduler,
		NewParser: sc.NewParser,
		QChunk:    conf.QChunk,
	}

	var ioWG sync.WaitGroup
	ioWG.Add(1)
	go func() {
		defer ioWG.Done()
		if err := <-ioGroup.AddWorker(ctx); err != nil && ctx.Err() == nil {
			slog.Error("I/O worker exited with error", "error", err)
		}
	}()

	var writerWG sync.WaitGroup
	var writer *exchange.Writer
	if sc.Ring != nil {
		writer = &exchange.Writer{
			Ring:     sc.Ring,
			DataPath: sc.Settings.Search.Workspace,
			NodeID:   sc.Settings.Exchange.Rank,
		}
		writerWG.Add(1)
		go func() {
			defer writerWG.Done()
			if err := writer.Run(); err != nil {
				slog.Error("exchange writer exited with error", "error", err)
			}
		}()
	}

	compute := &computeLoop{sc: sc, ioGroup: ioGroup, ioWG: &ioWG, cancel: cancel}
	runErr := compute.run(ctx)

	ioWG.Wait()
	if sc.Ring != nil {
		sc.Ring.Close()
		writerWG.Wait()

		if runErr == nil {
			runErr = sc.mergePhase(ctx)
		}
	}

	return runErr
}

// computeLoop owns the single consumer of the ready queue: it applies
// the scheduler's feedback policy on every blocking dequeue and bounds
// actual scoring concurrency with a weighted semaphore sized to the
// configured compute thread count minus whatever I/O threads are
// currently active, per GetNumActiveThreads' documented contract.
type computeLoop struct {
	sc      *SearchContext
	ioGroup *ioworker.Group
	ioWG    *sync.WaitGroup
	cancel  context.CancelFunc
}

func (c *computeLoop) run(ctx context.Context) error {
	settings := c.sc.Settings
	totalThreads := int64(maxInt(1, settings.Search.Threads))
	capacity := totalThreads * totalThreads
	sem := semaphore.NewWeighted(capacity)

	var wg sync.WaitGroup
	var firstErr error
	var errMu sync.Mutex
	recordErr := func(err error) {
		if err == nil {
			return
		}
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
			c.cancel()
		}
		errMu.Unlock()
	}

	const pollInterval = 100 * time.Millisecond
	var stallSince time.Time
	stalling := false

	for {
		if c.sc.Scheduler.CheckSignal() || ctx.Err() != nil {
			break
		}

		batch, ok := c.sc.Pool.TryGetWorkPtr()
		if !ok {
			if !stalling {
				stalling = true
				stallSince = time.Now()
			}
			level := c.sc.Pool.ReadyQStatus()
			decision := c.sc.Scheduler.RunManager(time.Since(stallSince), level)
			if decision.SpawnIOWorker {
				c.ioWG.Add(1)
				go func() {
					defer c.ioWG.Done()
					if err := <-c.ioGroup.AddWorker(ctx); err != nil && ctx.Err() == nil {
						slog.Error("spawned I/O worker exited with error", "error", err)
					}
				}()
			}
			select {
			case <-ctx.Done():
				wg.Wait()
				return ctx.Err()
			case <-time.After(pollInterval):
			}
			continue
		}
		stalling = false

		// Scoring concurrency follows the configured thread count minus
		// whatever I/O threads are currently active, clamped to never
		// drop below 75% of the configured max so an I/O demand spike
		// cannot starve compute entirely. The semaphore's total weight
		// is fixed at totalThreads², so the reduced budget is expressed
		// as a per-batch weight of capacity/active, which admits exactly
		// active batches at once for any active in [1, totalThreads].
		active := maxInt(1, settings.Search.Threads-c.sc.Scheduler.GetNumActiveThreads())
		floor := maxInt(1, (settings.Search.Threads*3)/4)
		if active < floor {
			active = floor
		}
		weight := capacity / int64(active)
		if weight < 1 {
			weight = 1
		}
		if weight > capacity {
			weight = capacity
		}

		if err := sem.Acquire(ctx, weight); err != nil {
			c.sc.Pool.Replenish(batch)
			break
		}

		wg.Add(1)
		go func(batch *query.SpectrumBatch, weight int64) {
			defer wg.Done()
			defer sem.Release(weight)
			// CPUBackend carries per-worker scorecard state that is not
			// safe to share across goroutines, so each batch gets its own
			// backend instance rather than reusing one built outside the loop.
			backend := scoring.SelectBackend(settings.Search.GPUThreads)
			if err := c.scoreBatch(ctx, batch, backend); err != nil {
				recordErr(err)
			}
			c.sc.Pool.Replenish(batch)
		}(batch, weight)
	}

	wg.Wait()
	return firstErr
}

// scoreBatch scores every spectrum in batch, fits each spectrum's
// survival histogram to an e-value, and writes accepted PSMs to the
// sink (or, in multi-node mode, stages them into the exchange ring
// instead of writing immediately).
func (c *computeLoop) scoreBatch(ctx context.Context, batch *query.SpectrumBatch, backend scoring.ScoringBackend) error {
	settings := c.sc.Settings
	cfg := scoring.Config{
		MinSHP:        settings.Search.MinSHP,
		MinCPSM:       settings.Search.MinCPSM,
		TopMatches:    settings.Search.TopMatches,
		DM:            settings.Search.DM,
		DF:            settings.Search.DF,
		MaxMassScale:  1.0 / settings.Search.Res,
		MaxZ:          settings.Search.MaxZ,
		HistogramSize: conf.HistogramSize,
	}

	results := make([]*scoring.Results, batch.Count)
	for q := range results {
		results[q] = scoring.NewResults(cfg)
	}

	start := time.Now()
	err := backend.Score(ctx, batch, c.sc.Index, cfg, results)
	if c.sc.Metrics != nil {
		c.sc.Metrics.RecordDuration("score_batch", time.Since(start).Seconds())
	}
	if err != nil {
		if c.sc.Metrics != nil {
			c.sc.Metrics.RecordOperation("score_batch", "error")
		}
		return errors.New(err).Category(errors.CategoryScoring).Component("searchmanager").
			Context("operation", "score_batch").Context("batch_num", batch.BatchNum).Build()
	}
	if c.sc.Metrics != nil {
		c.sc.Metrics.RecordOperation("score_batch", "success")
	}

	var slot *exchange.IBuffer
	if c.sc.Ring != nil {
		slot = c.sc.Ring.AcquireSlot(batch.BatchNum)
	}

	estimator := estimatorFor(settings)
	for q := 0; q < batch.Count; q++ {
		res := results[q]
		if c.sc.Metrics != nil {
			c.sc.Metrics.CPSMsPerSpectrum.Observe(float64(res.CPSMs))
		}

		best, ok := res.TopK.Best()
		if !ok {
			continue
		}

		eval := estimator.Fit(res.Survival, res.CPSMs, best.Hyperscore)
		if c.sc.Metrics != nil {
			if eval >= settings.Search.ExpectMax {
				c.sc.Metrics.TailFitFailures.Inc()
			}
		}

		if slot != nil {
			stageSpectrum(slot, q, res)
			continue
		}

		if eval > settings.Search.ExpectMax {
			if c.sc.Metrics != nil {
				c.sc.Metrics.EValuesRejected.Inc()
			}
			continue
		}
		if c.sc.Metrics != nil {
			c.sc.Metrics.EValuesAccepted.Inc()
		}

		rec := output.PSMRecord{
			SpectrumID: batch.BatchNum*int64(settings.Search.TopMatches) + int64(q),
			Precursor:  batch.Precursor[q],
			PeptideID:  best.PSID,
			Hyperscore: best.Hyperscore,
			SharedIons: int32(best.SharedIons),
			TotalIons:  int32(best.TotalIons),
			CPSMs:      res.CPSMs,
			EValue:     eval,
			FileIndex:  best.FileIndex,
		}
		if err := c.sc.Sink.Write(ctx, rec); err != nil {
			return err
		}
	}

	if slot != nil {
		c.sc.Ring.Finalize(batch.BatchNum)
	}

	if c.sc.Metrics != nil {
		c.sc.Metrics.BatchesProcessed.Inc()
		c.sc.Metrics.ReadyQueueDepth.Set(float64(c.sc.Pool.ReadyDepth()))
	}

	return nil
}

// ringSamplesPerSpectrum is the condensed survival-histogram width
// carried across the exchange layer per spectrum (Xsamples in spec.md
// terms) — far narrower than the scoring kernel's full HistogramSize,
// since only enough resolution to re-run tail-fit on the merged
// histogram needs to survive the network hop.
const ringSamplesPerSpectrum = 64

// downsampleSurvival folds a full-resolution survival histogram into
// ringSamplesPerSpectrum buckets by summing each contiguous group,
// so the reduction preserves total candidate counts instead of letting
// later buckets silently overwrite earlier ones in the same group.
func downsampleSurvival(survival []int) [ringSamplesPerSpectrum]uint16 {
	var out [ringSamplesPerSpectrum]uint16
	groupSize := (len(survival) + ringSamplesPerSpectrum - 1) / ringSamplesPerSpectrum
	if groupSize < 1 {
		groupSize = 1
	}
	for i, count := range survival {
		bucket := i / groupSize
		if bucket >= ringSamplesPerSpectrum {
			bucket = ringSamplesPerSpectrum - 1
		}
		out[bucket] += uint16(count)
	}
	return out
}

// stageSpectrum writes one spectrum's condensed survival histogram and
// partial result into the batch's already-acquired exchange slot
// instead of the sink, for the post-run cross-rank merge to finish.
// PartialResult carries hyperscore extremes, not a locally-computed
// e-value: the merge step re-runs tail-fit on the union of every shard's
// histogram, and a pre-fit e-value in Min/Max/Max2 would corrupt that fit.
func stageSpectrum(slot *exchange.IBuffer, q int, res *scoring.Results) {
	min, max, max2, ok := res.TopK.Extremes()
	if !ok {
		min, max, max2 = 0, 0, 0
	}
	slot.AddPartial(exchange.PartialResult{
		Min:  min,
		Max:  max,
		Max2: max2,
		N:    res.CPSMs,
		QID:  uint32(q),
	})

	samples := downsampleSurvival(res.Survival)
	for bucket, v := range samples {
		if v == 0 {
			continue
		}
		slot.FillSample(q, bucket, v)
	}
}

func estimatorFor(settings *conf.Settings) tailfit.TailEstimator {
	if settings.Search.GumbelFit {
		return tailfit.NewGumbelEstimator(settings.Search.MinCPSM, conf.MaxHyperscore)
	}
	return tailfit.NewOLSEstimator(settings.Search.MinCPSM, conf.MaxHyperscore)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
