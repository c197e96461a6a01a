package index

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndFor(t *testing.T) {
	Register("test-loader", func(dbPath string) (*Index, error) {
		return &Index{Buckets: []LengthBucket{{PepLen: 7}}}, nil
	})

	loader, err := For("test-loader")
	require.NoError(t, err)

	idx, err := loader("unused-path")
	require.NoError(t, err)
	require.Len(t, idx.Buckets, 1)
	require.Equal(t, 7, idx.Buckets[0].PepLen)
}

func TestForUnregisteredNameReturnsError(t *testing.T) {
	_, err := For("does-not-exist")
	require.Error(t, err)
	require.Contains(t, err.Error(), "does-not-exist")
}

func TestIonSlot(t *testing.T) {
	const speclen = 4

	peptideID, slot, isB := IonSlot(uint32(3*speclen+1), speclen)
	require.Equal(t, uint32(3), peptideID)
	require.Equal(t, 1, slot)
	require.True(t, isB)

	peptideID, slot, isB = IonSlot(uint32(3*speclen+3), speclen)
	require.Equal(t, uint32(3), peptideID)
	require.Equal(t, 3, slot)
	require.False(t, isB)
}
