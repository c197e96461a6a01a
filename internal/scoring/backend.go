// Package scoring implements the CPU parallel fragment-ion matcher: for
// every ready spectrum batch, each spectrum is matched against every
// peptide-length chunk of the index via a two-sided range search over
// precursor mass followed by a CSR fragment-ion bin sweep, producing a
// bounded top-K of candidate PSMs and a per-spectrum survival histogram
// for the tail-fit estimator.
package scoring

import (
	"context"
	"log/slog"
	"math"

	"github.com/klauspost/cpuid/v2"

	"github.com/pepmatch/psmsearch/internal/errors"
	"github.com/pepmatch/psmsearch/internal/index"
	"github.com/pepmatch/psmsearch/internal/query"
)

// Config carries the tunables the kernel needs per run; it is a narrow
// slice of conf.Settings.Search so this package has no dependency on the
// configuration package.
type Config struct {
	MinSHP       int
	MinCPSM      int
	TopMatches   int
	DM           float64
	DF           float64
	MaxMassScale float64
	MaxZ         int
	ISeries      int
	HistogramSize int
}

// Results is the per-spectrum scoring state: the bounded top-K heap, the
// survival histogram consumed by the tail-fit estimator, and the running
// candidate count.
type Results struct {
	TopK      *TopK
	Survival  []int
	CPSMs     int
	MaxHyp    float64
	MinHyp    float64
	NextHyp   float64
}

// NewResults allocates per-spectrum state, reset before each spectrum is
// scored.
func NewResults(cfg Config) *Results {
	return &Results{
		TopK:     NewTopK(cfg.TopMatches),
		Survival: make([]int, cfg.HistogramSize),
	}
}

// Reset clears Results for the next spectrum.
func (r *Results) Reset() {
	r.TopK.Reset()
	clear(r.Survival)
	r.CPSMs = 0
	r.MaxHyp, r.MinHyp, r.NextHyp = 0, 0, 0
}

// ScoringBackend is the capability a scoring implementation provides:
// score one batch against the index, producing per-spectrum Results. The
// CPU path is the default; a GPU path satisfies the same interface,
// selected at startup by configuration rather than a build tag.
type ScoringBackend interface {
	Score(ctx context.Context, batch *query.SpectrumBatch, idx *index.Index, cfg Config, results []*Results) error
}

// CPUBackend is the default ScoringBackend: a fragment matcher built on
// ScorecardSlice that scores the spectra of one batch one after another.
type CPUBackend struct {
	scorecards []*ScorecardSlice // one per chunk index, grown lazily
}

// NewCPUBackend logs the detected SIMD feature level at startup as
// diagnostic context; it does not change scoring semantics.
func NewCPUBackend() *CPUBackend {
	slog.Info("scoring backend selected", "backend", "cpu",
		"simd", cpuid.CPU.Features.Strings(), "brand", cpuid.CPU.BrandName)
	return &CPUBackend{}
}

// Score matches every spectrum in batch against every chunk of idx,
// writing into results[q] for spectrum q. results must be pre-sized to
// batch.Count and individually Reset by the caller between batches.
func (b *CPUBackend) Score(ctx context.Context, batch *query.SpectrumBatch, idx *index.Index, cfg Config, results []*Results) error {
	if batch == nil {
		return errors.New(errors.ErrInvalidMemory).Category(errors.CategoryScoring).Component("scoring").Build()
	}

	for q := 0; q < batch.Count; q++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		res := results[q]
		pmass := batch.Precursor[q]
		mz, intensity := batch.Peaks(q)

		for _, bucket := range idx.Buckets {
			speclen := bucket.SpecLen
			for ci := range bucket.Chunks {
				chunk := &bucket.Chunks[ci]
				sc := b.scorecardFor(ci, len(chunk.PepEntries))

				minLimit, maxLimit, ok := RangeSearch(chunk.PepEntries, pmass, cfg.DM)
				if !ok {
					continue
				}

				FragmentSweep(chunk, mz, intensity, cfg.DF, cfg.MaxMassScale, speclen, minLimit, maxLimit, sc)

				for pid := minLimit; pid <= maxLimit; pid++ {
					bc, yc, ibc, iyc := sc.Counts(uint32(pid))
					shpk := int(bc) + int(yc)
					if shpk < cfg.MinSHP {
						continue
					}
					hyp := Hyperscore(bc, yc, ibc, iyc)
					if hyp <= 0 {
						continue
					}

					res.TopK.Push(HCell{
						Hyperscore: hyp,
						PSID:       chunk.PepEntries[pid].ID,
						PMass:      chunk.PepEntries[pid].Mass,
						SharedIons: shpk,
						TotalIons:  int(bc) + int(yc),
					})
					res.CPSMs++
					bucketIdx := int(math.Round(hyp * 10))
					if bucketIdx >= len(res.Survival) {
						bucketIdx = len(res.Survival) - 1
					}
					if bucketIdx >= 0 {
						res.Survival[bucketIdx]++
					}
				}

				sc.ClearRange(minLimit, maxLimit)
			}
		}
	}

	return nil
}

// scorecardFor returns (lazily growing) the scorecard slice for chunk
// index ci sized to at least capacity entries. The scorecards are not
// guarded, so one CPUBackend instance must not be shared across
// goroutines; searchmanager constructs a fresh backend for every batch
// it scores.
func (b *CPUBackend) scorecardFor(ci, capacity int) *ScorecardSlice {
	for len(b.scorecards) <= ci {
		b.scorecards = append(b.scorecards, nil)
	}
	if b.scorecards[ci] == nil || cap(b.scorecards[ci].bc) < capacity {
		b.scorecards[ci] = NewScorecardSlice(capacity)
	}
	return b.scorecards[ci]
}
