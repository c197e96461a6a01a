package output

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileSinkWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "psms.csv")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.Write(context.Background(), PSMRecord{
		SpectrumID: 42, Precursor: 1234.5, PeptideID: 7,
		Hyperscore: 55.25, SharedIons: 10, TotalIons: 12,
		CPSMs: 9000, EValue: 0.0012,
	}))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, csvHeader, rows[0])
	require.Equal(t, "42", rows[1][0])
	require.Equal(t, "7", rows[1][2])
}

func TestBatchRankPathFormat(t *testing.T) {
	require.Equal(t, "/data/7_2.psm.csv", BatchRankPath("/data", 7, 2))
}
