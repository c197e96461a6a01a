package scoring

// ScorecardSlice is a per-compute-thread accumulator over peptide ids.
// Only the range touched by the most recent chunk search
// ([minLimit..maxLimit]) is ever read or cleared, preserving invariant
// I3: every touched scorecard entry is zeroed before the next chunk's
// sweep can observe it.
type ScorecardSlice struct {
	bc  []int32   // b-ion shared-peak counts
	yc  []int32   // y-ion shared-peak counts
	ibc []float64 // b-ion intensity sums
	iyc []float64 // y-ion intensity sums
}

// NewScorecardSlice allocates a scorecard sized for the largest peptide
// id this thread will ever index (one chunk's pepEntries length).
func NewScorecardSlice(capacity int) *ScorecardSlice {
	return &ScorecardSlice{
		bc:  make([]int32, capacity),
		yc:  make([]int32, capacity),
		ibc: make([]float64, capacity),
		iyc: make([]float64, capacity),
	}
}

// AddBIon records one shared b-ion hit for peptide id pid with intensity.
func (s *ScorecardSlice) AddBIon(pid uint32, intensity float64) {
	s.bc[pid]++
	s.ibc[pid] += intensity
}

// AddYIon records one shared y-ion hit for peptide id pid with intensity.
func (s *ScorecardSlice) AddYIon(pid uint32, intensity float64) {
	s.yc[pid]++
	s.iyc[pid] += intensity
}

// SharedPeaks returns bc[pid]+yc[pid], the shared-peaks count used by the
// min_shp candidacy filter.
func (s *ScorecardSlice) SharedPeaks(pid uint32) int {
	return int(s.bc[pid]) + int(s.yc[pid])
}

// Counts returns the raw bc, yc, ibc, iyc values for pid, as consumed by
// the hyperscore formula.
func (s *ScorecardSlice) Counts(pid uint32) (bc, yc int32, ibc, iyc float64) {
	return s.bc[pid], s.yc[pid], s.ibc[pid], s.iyc[pid]
}

// ClearRange zero-fills bc/yc/ibc/iyc across [minLimit, maxLimit]
// inclusive, the sliced clear that leaves every index outside the range
// byte-identical to its pre-chunk state.
func (s *ScorecardSlice) ClearRange(minLimit, maxLimit int) {
	if minLimit > maxLimit {
		return
	}
	end := maxLimit + 1
	if end > len(s.bc) {
		end = len(s.bc)
	}
	clear(s.bc[minLimit:end])
	clear(s.yc[minLimit:end])
	clear(s.ibc[minLimit:end])
	clear(s.iyc[minLimit:end])
}
