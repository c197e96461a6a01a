package output

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDatastoreSinkWritesAndPersistsRows(t *testing.T) {
	sink, err := NewDatastoreSink(":memory:")
	require.NoError(t, err)
	defer sink.Close()

	rec := PSMRecord{
		SpectrumID: 100, Precursor: 999.1, PeptideID: 3,
		Hyperscore: 40.0, SharedIons: 6, TotalIons: 8,
		CPSMs: 500, EValue: 0.05,
	}
	require.NoError(t, sink.Write(context.Background(), rec))

	var rows []psmModel
	require.NoError(t, sink.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, rec.SpectrumID, rows[0].SpectrumID)
	require.Equal(t, rec.PeptideID, rows[0].PeptideID)
}
