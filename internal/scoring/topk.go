package scoring

import "container/heap"

// HCell is a candidate PSM: immutable once pushed into a spectrum's
// top-K heap.
type HCell struct {
	Hyperscore  float64
	IdxOffset   int
	PSID        uint32
	SharedIons  int
	TotalIons   int
	PMass       float64

	// GPU-path extras, zero in the shared-memory path.
	RTime     float64
	PChg      int
	FileIndex int
}

// topKHeap is a min-heap of HCell ordered by Hyperscore, so the smallest
// score sits at the root and is the first evicted once the heap is full.
type topKHeap []HCell

func (h topKHeap) Len() int            { return len(h) }
func (h topKHeap) Less(i, j int) bool  { return h[i].Hyperscore < h[j].Hyperscore }
func (h topKHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *topKHeap) Push(x any)         { *h = append(*h, x.(HCell)) }
func (h *topKHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TopK is a bounded top-K accumulator: invariant I4, its size never
// exceeds the configured topmatches.
type TopK struct {
	h     topKHeap
	limit int
}

// NewTopK creates a top-K accumulator bounded to limit entries.
func NewTopK(limit int) *TopK {
	if limit < 1 {
		limit = 1
	}
	return &TopK{limit: limit}
}

// Push offers a candidate; if the heap has room it is always kept, else it
// replaces the current minimum only if it scores higher. Ties are broken
// by insertion order (the incumbent with the same score is never evicted
// by a later-arriving candidate, since eviction only happens on strictly
// greater score).
func (t *TopK) Push(c HCell) {
	if len(t.h) < t.limit {
		heap.Push(&t.h, c)
		return
	}
	if c.Hyperscore > t.h[0].Hyperscore {
		heap.Pop(&t.h)
		heap.Push(&t.h, c)
	}
}

// Len returns the number of candidates currently held.
func (t *TopK) Len() int { return len(t.h) }

// Results returns the held candidates, not sorted by rank.
func (t *TopK) Results() []HCell {
	out := make([]HCell, len(t.h))
	copy(out, t.h)
	return out
}

// Best returns the single highest-scoring candidate and whether any
// candidate was held.
func (t *TopK) Best() (HCell, bool) {
	if len(t.h) == 0 {
		return HCell{}, false
	}
	best := t.h[0]
	for _, c := range t.h[1:] {
		if c.Hyperscore > best.Hyperscore {
			best = c
		}
	}
	return best, true
}

// Reset clears the heap for reuse on the next spectrum.
func (t *TopK) Reset() {
	t.h = t.h[:0]
}

// Extremes returns the min, max, and second-best (max2) hyperscore among
// the held candidates, for PartialResult's cross-node distribution
// descriptor. The heap root is already the minimum by construction; max
// and max2 need a linear scan.
func (t *TopK) Extremes() (min, max, max2 float64, ok bool) {
	if len(t.h) == 0 {
		return 0, 0, 0, false
	}
	min = t.h[0].Hyperscore
	max = t.h[0].Hyperscore
	for _, c := range t.h[1:] {
		if c.Hyperscore < min {
			min = c.Hyperscore
		}
		if c.Hyperscore > max {
			max2 = max
			max = c.Hyperscore
		} else if c.Hyperscore > max2 {
			max2 = c.Hyperscore
		}
	}
	return min, max, max2, true
}
