package tailfit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOLSEstimatorFitBelowMinCPSMReturnsCeiling(t *testing.T) {
	est := NewOLSEstimator(4, 100.0)
	survival := []int{0, 0, 1, 2, 3, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0}
	eval := est.Fit(survival, 3, 1.0)
	require.Equal(t, 100.0, eval)
}

func TestOLSEstimatorFitZeroHyperscoreReturnsCeiling(t *testing.T) {
	est := NewOLSEstimator(4, 100.0)
	survival := []int{0, 0, 1, 2, 3, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0}
	eval := est.Fit(survival, 8, 0.0)
	require.Equal(t, 100.0, eval)
}

func TestOLSEstimatorFitProducesFiniteEvalOverPlateau(t *testing.T) {
	// survival[10] == 1, total candidates == 8, matches the design's
	// worked example: histogram [0,0,1,2,3,0,1,0,0,0,1,...], cpsms=8.
	survival := []int{0, 0, 1, 2, 3, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0}
	cpsms := 8

	est := NewOLSEstimator(4, 1000.0)
	eval := est.Fit(survival, cpsms, 1.0) // hyp = round(1.0*10) = 10

	// Hand-derived from the same window/OLS steps the implementation
	// runs: window = survival[2:7] = [1,2,3,0,1]; the 22% threshold is
	// already met at index 0 (mark clamps to 0) and the 87% threshold
	// is last met at index 3, so the fit uses the first four of the
	// five points, giving slope ~ -0.20301 and intercept ~ 0.34399 over
	// x=[2,3,4,5].
	const wantSlope = -0.20301441415
	const wantIntercept = 0.34399247145
	wantLgs := wantSlope*10 + wantIntercept
	wantEval := float64(cpsms) * math.Pow(10, wantLgs)

	require.InDelta(t, wantEval, eval, 1e-3)
	require.Greater(t, eval, 0.0)
	require.Less(t, eval, float64(cpsms))
}

func TestOLSEstimatorFitHypBeyondSurvivalLengthClamps(t *testing.T) {
	est := NewOLSEstimator(1, 50.0)
	survival := []int{0, 1, 2, 1}
	// topHyperscore implies hyp=100, far past len(survival); Fit must
	// clamp rather than index out of range.
	require.NotPanics(t, func() {
		est.Fit(survival, 4, 10.0)
	})
}

func TestOLSEstimatorFitAllZeroSurvivalReturnsCeiling(t *testing.T) {
	est := NewOLSEstimator(1, 77.0)
	survival := make([]int, 20)
	eval := est.Fit(survival, 5, 1.0)
	require.Equal(t, 77.0, eval)
}

func TestPlateauMarkersShortWindow(t *testing.T) {
	mark, mark2 := plateauMarkers([]float64{-1.0})
	require.Equal(t, 0, mark)
	require.Equal(t, 0, mark2)

	mark, mark2 = plateauMarkers([]float64{-1.0, -2.0})
	require.Equal(t, 0, mark)
	require.Equal(t, 1, mark2)
}
