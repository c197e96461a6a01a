package searchmanager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pepmatch/psmsearch/internal/conf"
	"github.com/pepmatch/psmsearch/internal/exchange"
)

// stageOneSpectrum runs a Ring+Writer pair just long enough to persist a
// single batch with one spectrum's PartialResult and survival samples,
// mirroring what a real compute worker would have staged.
func stageOneSpectrum(t *testing.T, dir string, rank int, batchNum int64, pr exchange.PartialResult, samples map[int]uint16) {
	t.Helper()

	ring := exchange.NewRing(1, 4, ringSamplesPerSpectrum)
	writer := &exchange.Writer{Ring: ring, DataPath: dir, NodeID: rank}

	done := make(chan error, 1)
	go func() { done <- writer.Run() }()

	slot := ring.AcquireSlot(batchNum)
	slot.AddPartial(pr)
	for bucket, v := range samples {
		slot.FillSample(0, bucket, v)
	}
	ring.Finalize(batchNum)

	path := filepath.Join(dir, fmt.Sprintf("%d_%d.dat", batchNum, rank))
	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 5*time.Millisecond, "writer did not persist the staging file in time")

	ring.Close()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("writer did not exit after Close")
	}
}

func TestMergePhaseReadsStagedFilesAndWritesMergedPSM(t *testing.T) {
	dir := t.TempDir()

	stageOneSpectrum(t, dir, 0, 3, exchange.PartialResult{Min: 2, Max: 30, Max2: 25, N: 5, QID: 0},
		map[int]uint16{0: 2, 1: 2, 2: 1})

	settings := testSettings("", dir)
	settings.Exchange.Rank = 0
	settings.Exchange.NumRanks = 1
	settings.Search.ExpectMax = 1e12

	sink := &recordingSink{}
	sc := &SearchContext{
		Settings: settings,
		Sink:     sink,
		Ring:     exchange.NewRing(1, 4, ringSamplesPerSpectrum),
	}

	require.NoError(t, sc.mergePhase(context.Background()))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.recs, 1)
	require.Equal(t, 5, sink.recs[0].CPSMs)
	require.Equal(t, 30.0, sink.recs[0].Hyperscore)
	require.NotEqual(t, conf.MaxHyperscore, sink.recs[0].EValue, "a populated histogram above min_cpsm must not hit the ceiling sentinel")
}

func TestMergePhaseRequiresTransportWhenMultiRank(t *testing.T) {
	dir := t.TempDir()
	settings := testSettings("", dir)
	settings.Exchange.Rank = 0
	settings.Exchange.NumRanks = 2

	sc := &SearchContext{
		Settings: settings,
		Sink:     &recordingSink{},
		Ring:     exchange.NewRing(1, 4, ringSamplesPerSpectrum),
	}

	err := sc.mergePhase(context.Background())
	require.Error(t, err)
}

func TestMergePhaseNoopWithoutRing(t *testing.T) {
	sc := &SearchContext{Settings: testSettings("", t.TempDir())}
	require.NoError(t, sc.mergePhase(context.Background()))
}
