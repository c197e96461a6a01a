package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pepmatch/psmsearch/internal/index"
)

func threeEntryChunk() []index.PepEntry {
	return []index.PepEntry{
		{Mass: 500.0, ID: 0},
		{Mass: 1000.0, ID: 1},
		{Mass: 1500.0, ID: 2},
	}
}

func TestRangeSearchExactCenter(t *testing.T) {
	min, max, found := RangeSearch(threeEntryChunk(), 1000.0, 5.0)
	require.True(t, found)
	require.Equal(t, 1, min)
	require.Equal(t, 1, max)
}

func TestRangeSearchNearCenter(t *testing.T) {
	min, max, found := RangeSearch(threeEntryChunk(), 999.999, 10.0)
	require.True(t, found)
	require.Equal(t, 1, min)
	require.Equal(t, 1, max)
}

func TestRangeSearchBelowSmallest(t *testing.T) {
	min, max, found := RangeSearch(threeEntryChunk(), 100.0, 5.0)
	require.False(t, found)
	require.Equal(t, 0, min)
	require.Equal(t, 0, max)
}

func TestRangeSearchAboveLargest(t *testing.T) {
	entries := threeEntryChunk()
	min, max, found := RangeSearch(entries, 2000.0, 5.0)
	require.False(t, found)
	require.Equal(t, len(entries)-1, min)
	require.Equal(t, len(entries)-1, max)
}

func TestRangeSearchNegativeDMReturnsFullChunk(t *testing.T) {
	entries := threeEntryChunk()
	min, max, found := RangeSearch(entries, 1000.0, -1.0)
	require.False(t, found)
	require.Equal(t, 0, min)
	require.Equal(t, len(entries)-1, max)
}

func TestRangeSearchExactBoundaryInclusive(t *testing.T) {
	// All three entries should be included when the window exactly
	// brackets the extremes: no false inclusions or exclusions.
	min, max, found := RangeSearch(threeEntryChunk(), 1000.0, 500.0)
	require.True(t, found)
	require.Equal(t, 0, min)
	require.Equal(t, 2, max)
}

func TestRangeSearchLargeChunkLinearFinish(t *testing.T) {
	entries := make([]index.PepEntry, 100)
	for i := range entries {
		entries[i] = index.PepEntry{Mass: float64(i) * 10.0, ID: uint32(i)}
	}
	min, max, found := RangeSearch(entries, 500.0, 15.0)
	require.True(t, found)
	// masses in [485, 515] -> indices 49 (490) through 51 (510)
	require.Equal(t, 49, min)
	require.Equal(t, 51, max)
}
