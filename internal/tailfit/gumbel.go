package tailfit

import "math"

// eulerMascheroni is used to convert the Gumbel distribution's mean/variance
// moments into its location/scale parameters.
const eulerMascheroni = 0.5772156649015329

// GumbelEstimator is the alternate TailEstimator: instead of an OLS fit
// over the log-survival plateau, it estimates the Gumbel (type-I extreme
// value) location and scale parameters from the histogram's first two
// moments and evaluates the closed-form survival function at the top
// hyperscore. Selected by the gumbelfit flag in place of the OLS default;
// never the default itself.
type GumbelEstimator struct {
	MinCPSM       int
	MaxHyperscore float64
}

// NewGumbelEstimator builds the alternate tail-fit estimator.
func NewGumbelEstimator(minCPSM int, maxHyperscore float64) *GumbelEstimator {
	return &GumbelEstimator{MinCPSM: minCPSM, MaxHyperscore: maxHyperscore}
}

// Fit implements TailEstimator using a method-of-moments Gumbel fit over
// the full histogram rather than a plateau-restricted OLS line.
func (e *GumbelEstimator) Fit(survival []int, cpsms int, topHyperscore float64) float64 {
	if cpsms < e.MinCPSM {
		return e.MaxHyperscore
	}
	if topHyperscore <= 0 {
		return e.MaxHyperscore
	}

	hyp := int(math.Round(topHyperscore * 10))
	if hyp < 1 {
		return e.MaxHyperscore
	}
	if hyp > len(survival) {
		hyp = len(survival)
	}

	counts := histogramCounts(survival, hyp)
	mean, variance, total := weightedMoments(counts)
	if total == 0 || variance <= 0 {
		return e.MaxHyperscore
	}

	scale := math.Sqrt(6*variance) / math.Pi
	location := mean - scale*eulerMascheroni
	if scale <= 0 {
		return e.MaxHyperscore
	}

	z := (float64(hyp) - location) / scale
	survivalProb := 1 - math.Exp(-math.Exp(-z))
	if survivalProb <= 0 {
		survivalProb = 1e-300
	}
	return float64(cpsms) * survivalProb
}

// histogramCounts truncates the per-bucket density histogram (survival[i]
// == number of candidates scoring in bucket i) to the first hyp buckets,
// which the moment estimator needs. survival is already a density, matching
// how OLSEstimator.Fit treats the same slice.
func histogramCounts(survival []int, hyp int) []int {
	n := hyp
	if n > len(survival) {
		n = len(survival)
	}
	counts := make([]int, n)
	copy(counts, survival[:n])
	return counts
}

func weightedMoments(counts []int) (mean, variance float64, total int) {
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0, 0, 0
	}
	var sum float64
	for i, c := range counts {
		sum += float64(i) * float64(c)
	}
	mean = sum / float64(total)

	var sqDiff float64
	for i, c := range counts {
		d := float64(i) - mean
		sqDiff += d * d * float64(c)
	}
	variance = sqDiff / float64(total)
	return mean, variance, total
}
