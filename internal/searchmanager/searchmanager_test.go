package searchmanager

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pepmatch/psmsearch/internal/conf"
	"github.com/pepmatch/psmsearch/internal/index"
	"github.com/pepmatch/psmsearch/internal/output"
	"github.com/pepmatch/psmsearch/internal/query"
	"github.com/pepmatch/psmsearch/internal/specfile"
)

// fakeParser hands out single-spectrum chunks for a fixed per-path
// spectrum count, mirroring the ioworker package's own test double.
type fakeParser struct {
	mu    sync.Mutex
	specs map[string]int
}

func (p *fakeParser) InitQueryFile(path string, fileID int) (int, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.specs[path], p.specs[path], nil
}

func (p *fakeParser) ExtractQueryChunk(qChunk int, batch *query.SpectrumBatch, remaining *int) error {
	batch.Count = 1
	batch.Precursor = append(batch.Precursor, 1000.0)
	batch.Idx = append(batch.Idx, 0, 0)
	batch.FileIndex = append(batch.FileIndex, 0)
	*remaining--
	return nil
}

func (p *fakeParser) DeinitQueryFile() error { return nil }

var _ specfile.Parser = (*fakeParser)(nil)

// recordingSink captures every PSM record written to it.
type recordingSink struct {
	mu   sync.Mutex
	recs []output.PSMRecord
}

func (s *recordingSink) Write(_ context.Context, rec output.PSMRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func testSettings(dataset, workspace string) *conf.Settings {
	var s conf.Settings
	s.Search.Dataset = dataset
	s.Search.Workspace = workspace
	s.Search.Threads = 2
	s.Search.PrepThreads = 2
	s.Search.MinSHP = 1
	s.Search.MinCPSM = 1
	s.Search.TopMatches = 5
	s.Search.DM = 0.1
	s.Search.DF = 0.1
	s.Search.Res = 1.0
	s.Search.MaxZ = 2
	s.Search.ExpectMax = 0.01
	s.BufferPool.Size = 4
	s.BufferPool.LowWatermark = 1
	s.BufferPool.HighWatermark = 3
	return &s
}

func writeDataset(t *testing.T, dir string, names ...string) map[string]int {
	t.Helper()
	specs := make(map[string]int)
	for i, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("placeholder"), 0o644))
		specs[path] = i + 2 // 2, 3, 4, ... spectra per file
	}
	return specs
}

func TestDiscoverPathsFindsSpectrumFilesInDirectory(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "a.mzML", "b.mgf")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	paths, err := discoverPaths(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
}

func TestDiscoverPathsSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mzML")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	paths, err := discoverPaths(path)
	require.NoError(t, err)
	require.Equal(t, []string{path}, paths)
}

func TestBuildInputFilesAssignsMonotoneBatchOffsets(t *testing.T) {
	dir := t.TempDir()
	specs := writeDataset(t, dir, "a.mzML", "b.mzML")
	paths, err := discoverPaths(dir)
	require.NoError(t, err)

	parser := &fakeParser{specs: specs}
	files, err := buildInputFiles(paths, 1, func() specfile.Parser { return parser })
	require.NoError(t, err)
	require.Len(t, files, 2)

	seen := make(map[int64]bool)
	for _, f := range files {
		require.False(t, seen[f.BatchOffset], "batch offset %d reused across files", f.BatchOffset)
		seen[f.BatchOffset] = true
	}
}

func TestRunDrainsAllBatchesWithEmptyIndex(t *testing.T) {
	dir := t.TempDir()
	specs := writeDataset(t, dir, "a.mzML", "b.mzML")

	parser := &fakeParser{specs: specs}
	newParser := func() specfile.Parser { return parser }

	settings := testSettings(dir, t.TempDir())
	idx := &index.Index{} // no buckets: nothing ever matches, exercising the zero-candidate path
	sink := &recordingSink{}

	sc, err := New(settings, idx, newParser, sink, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, sc.Run(ctx))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Empty(t, sink.recs, "an empty index should never produce a candidate PSM")
}
