package tailfit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGumbelEstimatorFitBelowMinCPSMReturnsCeiling(t *testing.T) {
	est := NewGumbelEstimator(5, 99.0)
	survival := []int{10, 7, 4, 2, 1, 0}
	require.Equal(t, 99.0, est.Fit(survival, 4, 0.6))
}

func TestGumbelEstimatorFitZeroOrNegativeHyperscoreReturnsCeiling(t *testing.T) {
	est := NewGumbelEstimator(1, 99.0)
	survival := []int{10, 7, 4, 2, 1, 0}
	require.Equal(t, 99.0, est.Fit(survival, 10, 0.0))
}

func TestGumbelEstimatorFitIsPositiveAndBoundedByCPSMs(t *testing.T) {
	est := NewGumbelEstimator(1, 1000.0)
	survival := []int{10, 7, 4, 2, 1, 0}
	eval := est.Fit(survival, 10, 0.6)
	require.Greater(t, eval, 0.0)
	require.Less(t, eval, 10.0)
}

func TestGumbelEstimatorFitDecreasesWithHigherHyperscore(t *testing.T) {
	est := NewGumbelEstimator(1, 1000.0)
	survival := []int{20, 18, 15, 11, 7, 4, 2, 1, 0}
	lo := est.Fit(survival, 20, 0.4) // hyp=4
	hi := est.Fit(survival, 20, 0.8) // hyp=8
	require.Greater(t, lo, hi)
}

func TestGumbelEstimatorFitFlatHistogramReturnsCeiling(t *testing.T) {
	// A single surviving bucket (zero variance) cannot support a
	// moment-based fit.
	est := NewGumbelEstimator(1, 42.0)
	survival := []int{0, 0, 5, 0, 0}
	require.Equal(t, 42.0, est.Fit(survival, 5, 0.3))
}
