// Package exchange implements the multi-node staging layer: each node's
// compute workers write finished batches into a fixed ring of IBuffer
// slots, a single writer goroutine persists each slot to a per-batch
// staging file once compute marks it done, and a post-loop merge step
// combines every node's staged files into a globally correct result.
package exchange

// PartialResult is the per-spectrum distribution descriptor cross-node
// merge needs: the best, second-best, and worst score seen for a
// spectrum on this shard, plus how many candidates contributed.
type PartialResult struct {
	Min  float64
	Max  float64
	Max2 float64
	N    int
	QID  uint32
}

// zeroPartialResult is the explicit zero value spec.md's txArray[queries]
// = 0 assignment relies on implicitly; spelled out here so a reader never
// has to reason about implicit integer-to-struct conversion.
func zeroPartialResult(qid uint32) PartialResult {
	return PartialResult{Min: 0, Max: 0, Max2: 0, N: 0, QID: qid}
}

// mergePartialResult folds b into a, keeping the minimum Min, maximum
// Max, and maximum Max2 across shards, and summing N.
func mergePartialResult(a, b PartialResult) PartialResult {
	out := a
	if b.Min < out.Min || out.N == 0 {
		out.Min = b.Min
	}
	if b.Max > out.Max {
		out.Max = b.Max
	}
	if b.Max2 > out.Max2 {
		out.Max2 = b.Max2
	}
	out.N += b.N
	return out
}
