package exchange

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pepmatch/psmsearch/internal/tailfit"
)

func TestMergeCombinesPartialResultsAndHistograms(t *testing.T) {
	shards := []ShardResult{
		{
			Partial:  PartialResult{Min: 2.0, Max: 30.0, Max2: 25.0, N: 4, QID: 9},
			Survival: []int{4, 3, 1, 0},
		},
		{
			Partial:  PartialResult{Min: 1.0, Max: 28.0, Max2: 27.0, N: 3, QID: 9},
			Survival: []int{3, 2, 1, 1},
		},
	}

	est := tailfit.NewOLSEstimator(1, 999.0)
	merged := Merge(9, shards, est, 1.0)

	require.Equal(t, uint32(9), merged.Partial.QID)
	require.Equal(t, 1.0, merged.Partial.Min)
	require.Equal(t, 30.0, merged.Partial.Max)
	require.Equal(t, 27.0, merged.Partial.Max2)
	require.Equal(t, 7, merged.Partial.N)
	require.NotEqual(t, 999.0, merged.EValue, "a populated histogram above min_cpsm must not hit the ceiling sentinel")
}

func TestMergeEmptyShardsReturnsZeroPartial(t *testing.T) {
	est := tailfit.NewOLSEstimator(1, 999.0)
	merged := Merge(3, nil, est, 1.0)
	require.Equal(t, uint32(3), merged.Partial.QID)
	require.Equal(t, 0, merged.Partial.N)
}
