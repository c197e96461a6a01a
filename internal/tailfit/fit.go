// Package tailfit fits a linear regression to the left tail of the
// log-survival function of per-spectrum hyperscores, producing an
// expect value (e-value) for the top candidate.
package tailfit

import "math"

// TailEstimator is the capability this package exposes: given a
// spectrum's survival histogram, candidate count, and top hyperscore, it
// predicts an e-value. OLSEstimator is the default; GumbelEstimator is
// an alternate implementation selected by configuration.
type TailEstimator interface {
	Fit(survival []int, cpsms int, topHyperscore float64) float64
}

// OLSEstimator implements the design's default algorithm: histogram
// window selection over the 22%/87% plateau markers of the log-survival
// curve, followed by ordinary least squares.
type OLSEstimator struct {
	MinCPSM       int
	MaxHyperscore float64 // ceiling sentinel returned when cpsms < MinCPSM
}

// NewOLSEstimator builds the default tail-fit estimator.
func NewOLSEstimator(minCPSM int, maxHyperscore float64) *OLSEstimator {
	return &OLSEstimator{MinCPSM: minCPSM, MaxHyperscore: maxHyperscore}
}

// Fit implements TailEstimator.
func (e *OLSEstimator) Fit(survival []int, cpsms int, topHyperscore float64) float64 {
	if cpsms < e.MinCPSM {
		return e.MaxHyperscore
	}

	hyp := int(math.Round(topHyperscore * 10))
	if hyp < 1 {
		return e.MaxHyperscore
	}
	if hyp > len(survival) {
		hyp = len(survival)
	}

	end := rightmostNonzero(survival, 0, hyp-1)
	if end < 0 {
		return e.MaxHyperscore
	}
	stt := leftmostNonzero(survival, 0, end)

	if stt == end {
		if end+1 < len(survival) {
			end++
		}
	}

	px := survival[stt : end+1]
	l := len(px)

	sx := make([]float64, l)
	var running int
	for j, v := range px {
		running += v
		sx[j] = 1 - float64(running)/float64(cpsms)
	}
	for j := range sx {
		if sx[j] > 1 {
			sx[j] = 0.999
		}
	}
	// Substitute non-positive entries with the rightmost value >= 1e-4,
	// scanning right-to-left so the substitution itself never disturbs
	// later lookups.
	rightmostPositive := 1e-4
	for j := l - 1; j >= 0; j-- {
		if sx[j] > 0 {
			rightmostPositive = sx[j]
		} else {
			sx[j] = rightmostPositive
		}
	}

	for j := range sx {
		sx[j] = math.Log10(sx[j])
	}

	mark, mark2 := plateauMarkers(sx)

	n := mark2 - mark + 1
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(stt + mark + i)
		y[i] = sx[mark+i]
	}

	mu, beta := OLS(x, y)
	lgsX := mu*float64(hyp) + beta
	return float64(cpsms) * math.Pow(10, lgsX)
}

// plateauMarkers picks the 22%/87% plateau window within sx, per the
// design's bullet 4.
func plateauMarkers(sx []float64) (mark, mark2 int) {
	l := len(sx)
	if l < 3 {
		return 0, l - 1
	}

	hgt := sx[l-1] - sx[0]
	lowThresh := sx[0] + 0.22*hgt
	highThresh := sx[0] + 0.87*hgt

	mark = leftmostAtLeast(sx, lowThresh) - 1
	mark2 = rightmostAtLeast(sx, highThresh)

	if mark2 > l-1 {
		mark2 = l - 1
	}
	if mark >= mark2 {
		mark = mark2 - 1
	}
	if mark < 0 {
		mark = 0
	}
	if l == 3 {
		mark2 = l - 1
	}
	return mark, mark2
}

func leftmostAtLeast(sx []float64, thresh float64) int {
	for i, v := range sx {
		if v >= thresh {
			return i
		}
	}
	return len(sx) - 1
}

func rightmostAtLeast(sx []float64, thresh float64) int {
	for i := len(sx) - 1; i >= 0; i-- {
		if sx[i] >= thresh {
			return i
		}
	}
	return 0
}

func rightmostNonzero(survival []int, lo, hi int) int {
	for i := hi; i >= lo; i-- {
		if survival[i] >= 1 {
			return i
		}
	}
	return -1
}

func leftmostNonzero(survival []int, lo, hi int) int {
	for i := lo; i <= hi; i++ {
		if survival[i] >= 1 {
			return i
		}
	}
	return hi
}
