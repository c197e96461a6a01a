package exchange

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPersistWritesExpectedByteLayout(t *testing.T) {
	dir := t.TempDir()
	r := NewRing(1, 2, 3)
	w := &Writer{Ring: r, DataPath: dir, NodeID: 9}

	slot := r.AcquireSlot(1)
	slot.AddPartial(PartialResult{Min: 1, Max: 2, Max2: 1.5, N: 5, QID: 11})
	slot.AddPartial(PartialResult{Min: 3, Max: 4, Max2: 3.5, N: 6, QID: 12})
	slot.FillSample(0, 0, 7)
	slot.FillSample(1, 2, 9)
	slot.NumSpecs = 2
	slot.CurrPtr = 2 * 3 // numSpecs * xsamples

	require.NoError(t, w.persist(slot))

	data, err := os.ReadFile(filepath.Join(dir, "1_9.dat"))
	require.NoError(t, err)

	wantLen := 2*prWireSize + 2*3*2 // two PartialResult records + 6 uint16 samples
	require.Len(t, data, wantLen)
}
