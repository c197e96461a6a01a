package scoring

import "github.com/pepmatch/psmsearch/internal/index"

// FragmentSweep walks the CSR fragment-ion index (bA/iA) for every peak in
// [mz, intensity) that falls strictly inside (dF, maxMassScale-1-dF), and
// for each candidate bin narrows iA to [minLimit*speclen,
// (maxLimit+1)*speclen-1], both ends inclusive, before crediting the
// touched peptide ids in scorecard. maxMassScale is in scaled-m/z units;
// speclen is the number of ion slots per peptide.
func FragmentSweep(chunk *index.Chunk, mz, intensity []float64, dF float64, maxMassScale float64, speclen int, minLimit, maxLimit int, sc *ScorecardSlice) {
	lowIALimit := uint32(minLimit * speclen)
	highIALimit := uint32((maxLimit+1)*speclen - 1)

	for k := range mz {
		peak := mz[k]
		if !(peak > dF && peak < maxMassScale-1-dF) {
			continue
		}

		binLo := int(peak - dF)
		binHi := int(peak + dF)
		if binLo < 0 {
			binLo = 0
		}
		maxBin := len(chunk.BA) - 2
		if binHi > maxBin {
			binHi = maxBin
		}

		for bin := binLo; bin <= binHi; bin++ {
			start := chunk.BA[bin]
			end := chunk.BA[bin+1]
			if start >= end {
				continue
			}

			lo := lowerBoundIA(chunk.IA[start:end], lowIALimit) + start
			hi := upperBoundIA(chunk.IA[start:end], highIALimit) + start

			for idx := lo; idx < hi; idx++ {
				raw := chunk.IA[idx]
				pid, _, isBIon := index.IonSlot(raw, speclen)
				if isBIon {
					sc.AddBIon(pid, intensity[k])
				} else {
					sc.AddYIon(pid, intensity[k])
				}
			}
		}
	}
}

// lowerBoundIA returns the offset of the first element >= target within ia.
func lowerBoundIA(ia []uint32, target uint32) uint32 {
	left, right := uint32(0), uint32(len(ia))
	for left < right {
		mid := left + (right-left)/2
		if ia[mid] < target {
			left = mid + 1
		} else {
			right = mid
		}
	}
	return left
}

// upperBoundIA returns the offset one past the last element <= target
// within ia.
func upperBoundIA(ia []uint32, target uint32) uint32 {
	left, right := uint32(0), uint32(len(ia))
	for left < right {
		mid := left + (right-left)/2
		if ia[mid] > target {
			right = mid
		} else {
			left = mid + 1
		}
	}
	return left
}
