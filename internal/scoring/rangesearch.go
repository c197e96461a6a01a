package scoring

import "github.com/pepmatch/psmsearch/internal/index"

// linearFinishThreshold is the window size below which RangeSearch
// switches from recursive binary search to a tight linear scan.
const linearFinishThreshold = 20

// RangeSearch solves [minLimit, maxLimit] over mass-sorted pepEntries such
// that every entry i with pmass-dM <= mass_i <= pmass+dM is included, using
// two independent bounded binary searches (one per side) with exact-
// equality handling that walks left on the min side and right on the max
// side, and a linear finish once the candidate window narrows below
// linearFinishThreshold entries.
//
// If dM < 0 the full chunk is returned with found=false (the "no false
// inclusions" sentinel: no scoring should occur for this chunk).
func RangeSearch(entries []index.PepEntry, pmass, dM float64) (minLimit, maxLimit int, found bool) {
	n := len(entries)
	if n == 0 {
		return 0, 0, false
	}
	if dM < 0 {
		return 0, n - 1, false
	}

	lo := pmass - dM
	hi := pmass + dM

	if hi < entries[0].Mass {
		return 0, 0, false
	}
	if lo > entries[n-1].Mass {
		return n - 1, n - 1, false
	}

	minLimit = lowerBoundMass(entries, lo)
	maxLimit = upperBoundMass(entries, hi)

	if minLimit > maxLimit {
		return minLimit, maxLimit, false
	}
	return minLimit, maxLimit, true
}

// lowerBoundMass returns the smallest index i such that entries[i].Mass >=
// target, walking left across any exact-equality run so the window never
// excludes a tied boundary entry.
func lowerBoundMass(entries []index.PepEntry, target float64) int {
	left, right := 0, len(entries)-1
	for right-left >= linearFinishThreshold {
		mid := left + (right-left)/2
		if entries[mid].Mass < target {
			left = mid + 1
		} else {
			right = mid
		}
	}
	i := left
	for i <= right && entries[i].Mass < target {
		i++
	}
	// Walk left over an exact-equality run.
	for i > 0 && entries[i-1].Mass == target {
		i--
	}
	if i >= len(entries) {
		i = len(entries) - 1
	}
	return i
}

// upperBoundMass returns the largest index i such that entries[i].Mass <=
// target, walking right across any exact-equality run.
func upperBoundMass(entries []index.PepEntry, target float64) int {
	left, right := 0, len(entries)-1
	for right-left >= linearFinishThreshold {
		mid := left + (right-left+1)/2
		if entries[mid].Mass > target {
			right = mid - 1
		} else {
			left = mid
		}
	}
	i := right
	for i >= left && entries[i].Mass > target {
		i--
	}
	// Walk right over an exact-equality run.
	for i < len(entries)-1 && entries[i+1].Mass == target {
		i++
	}
	if i < 0 {
		i = 0
	}
	return i
}
