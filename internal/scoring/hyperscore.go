package scoring

import "math"

// factCache memoizes small factorials since bc/yc rarely exceed a few
// dozen shared ions; anything larger falls back to math.Gamma.
var factCache = [21]float64{1}

func init() {
	for i := 1; i < len(factCache); i++ {
		factCache[i] = factCache[i-1] * float64(i)
	}
}

// Fact returns n! as a float64, exactly for n <= 20 and via the gamma
// function for larger n (shared/total ion counts can in principle exceed
// 20 for long peptides at high charge).
func Fact(n int32) float64 {
	if n < 0 {
		return 1
	}
	if int(n) < len(factCache) {
		return factCache[n]
	}
	return math.Gamma(float64(n) + 1)
}

// Hyperscore computes log10(0.001 + bc!*yc!*ibc*iyc) - 6, the formula the
// candidate-extraction step applies to every peptide id whose shared-peaks
// count meets min_shp.
func Hyperscore(bc, yc int32, ibc, iyc float64) float64 {
	product := 0.001 + Fact(bc)*Fact(yc)*ibc*iyc
	return math.Log10(product) - 6
}
