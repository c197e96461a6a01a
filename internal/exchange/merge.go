package exchange

import "github.com/pepmatch/psmsearch/internal/tailfit"

// Transport is the distributed-memory communication collaborator: after
// every node finishes staging its batches, Transport.CarryForward
// redistributes staged files so each node can read every other node's
// shard for the spectra it owns. The actual wire protocol is explicitly
// out of scope for this module.
type Transport interface {
	CarryForward(stagingPaths []string) (redistributed []string, err error)
}

// ShardResult is one shard's contribution for a single spectrum: its
// PartialResult and its survival histogram.
type ShardResult struct {
	Partial  PartialResult
	Survival []int
}

// MergedSpectrum is the globally-correct result for one spectrum after
// combining every shard's contribution and re-running the tail fit.
type MergedSpectrum struct {
	Partial PartialResult
	EValue  float64
}

// Merge combines every shard's ShardResult for one spectrum — histogram
// sum, PartialResult min/max/max2 reduction — then re-runs tail-fit on
// the merged histogram to produce the spectrum's globally correct
// e-value.
func Merge(qid uint32, shards []ShardResult, estimator tailfit.TailEstimator, topHyperscore float64) MergedSpectrum {
	if len(shards) == 0 {
		return MergedSpectrum{Partial: zeroPartialResult(qid)}
	}

	merged := zeroPartialResult(qid)
	var survival []int
	for _, s := range shards {
		merged = mergePartialResult(merged, s.Partial)
		if survival == nil {
			survival = make([]int, len(s.Survival))
		}
		for i, v := range s.Survival {
			if i < len(survival) {
				survival[i] += v
			}
		}
	}

	evalue := estimator.Fit(survival, merged.N, topHyperscore)
	return MergedSpectrum{Partial: merged, EValue: evalue}
}
