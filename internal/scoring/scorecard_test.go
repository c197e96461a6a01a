package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScorecardSlicedClear(t *testing.T) {
	sc := NewScorecardSlice(10)
	for i := uint32(0); i < 10; i++ {
		sc.AddBIon(i, 1.0)
	}

	sc.ClearRange(3, 6)

	for i := uint32(0); i < 10; i++ {
		bc, _, ibc, _ := sc.Counts(i)
		if i >= 3 && i <= 6 {
			require.Zero(t, bc, "index %d should be cleared", i)
			require.Zero(t, ibc, "index %d should be cleared", i)
		} else {
			require.Equal(t, int32(1), bc, "index %d outside cleared range must be untouched", i)
			require.Equal(t, 1.0, ibc, "index %d outside cleared range must be untouched", i)
		}
	}
}

func TestSharedPeaks(t *testing.T) {
	sc := NewScorecardSlice(5)
	sc.AddBIon(2, 1.5)
	sc.AddBIon(2, 2.5)
	sc.AddYIon(2, 1.0)

	require.Equal(t, 3, sc.SharedPeaks(2))
}
