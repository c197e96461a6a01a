package tailfit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOLSSinglePointDegenerate(t *testing.T) {
	slope, intercept := OLS([]float64{5.0}, []float64{0.25})
	require.Zero(t, slope)
	require.Equal(t, 0.25, intercept)
}

func TestOLSPerfectLine(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{1, 3, 5, 7} // y = 2x + 1
	slope, intercept := OLS(x, y)
	require.InDelta(t, 2.0, slope, 1e-9)
	require.InDelta(t, 1.0, intercept, 1e-9)
}
