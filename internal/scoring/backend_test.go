package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pepmatch/psmsearch/internal/index"
	"github.com/pepmatch/psmsearch/internal/query"
)

func TestCPUBackendScoresSingleSpectrum(t *testing.T) {
	const speclen = 4
	chunk := index.Chunk{
		PepEntries: []index.PepEntry{
			{Mass: 500.0, ID: 100},
			{Mass: 1000.0, ID: 101},
			{Mass: 1500.0, ID: 102},
		},
		BA: []uint32{0, 0, 0, 8, 8, 8},
		IA: []uint32{4, 5, 6, 7, 4, 5, 6, 7}, // all hits land on peptide id=1 (entries[1])
	}
	idx := &index.Index{
		Buckets: []index.LengthBucket{
			{PepLen: 9, SpecLen: speclen, Chunks: []index.Chunk{chunk}},
		},
	}

	batch := &query.SpectrumBatch{
		Count:     1,
		Precursor: []float64{1000.0},
		MZ:        []float64{2.0},
		Intensity: []float64{50.0},
		Idx:       []int{0, 1},
	}

	cfg := Config{
		MinSHP:        1,
		MinCPSM:       1,
		TopMatches:    2,
		DM:            5.0,
		DF:            1.0,
		MaxMassScale:  100.0,
		HistogramSize: 2000,
	}

	results := []*Results{NewResults(cfg)}
	backend := NewCPUBackend()
	err := backend.Score(context.Background(), batch, idx, cfg, results)
	require.NoError(t, err)

	best, ok := results[0].TopK.Best()
	require.True(t, ok)
	require.Equal(t, uint32(101), best.PSID)
	require.Positive(t, results[0].CPSMs)
	require.Equal(t, results[0].CPSMs, sumSurvival(results[0].Survival))
}

func sumSurvival(survival []int) int {
	total := 0
	for _, v := range survival {
		total += v
	}
	return total
}
