package ioworker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pepmatch/psmsearch/internal/bufferpool"
	"github.com/pepmatch/psmsearch/internal/query"
	"github.com/pepmatch/psmsearch/internal/scheduler"
	"github.com/pepmatch/psmsearch/internal/specfile"
)

// fakeParser hands out a fixed number of single-spectrum chunks per file
// before reporting the file exhausted.
type fakeParser struct {
	spectraPerFile map[string]int
}

func (p *fakeParser) InitQueryFile(path string, fileID int) (int, int, error) {
	return p.spectraPerFile[path], p.spectraPerFile[path], nil
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

func TestGroupRunDrainsAllFiles(t *testing.T) {
	files := []*query.InputFile{
		{Path: "a.mzML", FileIndex: 0, TotalSpectra: 3, Remaining: 3},
		{Path: "b.mzML", FileIndex: 1, TotalSpectra: 2, Remaining: 2},
	}
	query.AssignBatchOffsets(files, 1)
	q := query.NewFileQueue(files)

	pool := bufferpool.New(4, 1, 4, 1, 3)
	sched := scheduler.New(2)
	sched.SetFileQueueEmptyFunc(q.Empty)

	parser := &fakeParser{spectraPerFile: map[string]int{"a.mzML": 3, "b.mzML": 2}}

	g := &Group{
		Queue:     q,
		Pool:      pool,
		Scheduler: sched,
		NewParser: func() specfile.Parser { return parser },
		QChunk:    1,
	}

	// Drain the ready queue concurrently so IODone never blocks once the
	// pool's ready channel fills.
	var mu sync.Mutex
	var drained int
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			b, ok := pool.GetWorkPtr()
			if !ok {
				return
			}
			mu.Lock()
			drained++
			mu.Unlock()
			pool.Replenish(b)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := g.Run(ctx, 2)
	require.NoError(t, err)

	pool.Close()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 5, drained)
}
