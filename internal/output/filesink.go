package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/pepmatch/psmsearch/internal/errors"
)

// FileSink is the shared-memory-mode output sink: a single writer
// behind a lock, appending CSV rows to one file for the whole run.
type FileSink struct {
	mu  sync.Mutex
	f   *os.File
	w   *csv.Writer
}

var csvHeader = []string{
	"spectrum_id", "precursor", "peptide_id", "hyperscore",
	"shared_ions", "total_ions", "cpsms", "e_value",
	"retention_time", "charge", "file_index",
}

// NewFileSink opens (truncating) path and writes the header row.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryOutputSink).Component("output").
			Context("operation", "open").Context("path", path).Build()
	}
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return nil, errors.New(err).Category(errors.CategoryOutputSink).Component("output").
			Context("operation", "write_header").Build()
	}
	w.Flush()
	return &FileSink{f: f, w: w}, nil
}

// Write implements Sink. Concurrent calls serialize behind mu, matching
// the "single-threaded writer behind a lock" rule.
func (s *FileSink) Write(_ context.Context, rec PSMRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := []string{
		strconv.FormatInt(rec.SpectrumID, 10),
		strconv.FormatFloat(rec.Precursor, 'f', -1, 64),
		strconv.FormatUint(uint64(rec.PeptideID), 10),
		strconv.FormatFloat(rec.Hyperscore, 'f', -1, 64),
		strconv.FormatInt(int64(rec.SharedIons), 10),
		strconv.FormatInt(int64(rec.TotalIons), 10),
		strconv.Itoa(rec.CPSMs),
		strconv.FormatFloat(rec.EValue, 'g', -1, 64),
		strconv.FormatFloat(rec.RetentionTime, 'f', -1, 64),
		strconv.FormatInt(int64(rec.Charge), 10),
		strconv.Itoa(rec.FileIndex),
	}
	if err := s.w.Write(row); err != nil {
		return errors.New(err).Category(errors.CategoryOutputSink).Component("output").
			Context("operation", "write_row").Build()
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return err
	}
	return s.f.Close()
}

// BatchRankPath builds the multi-node "one file per batch per rank"
// staging path the design requires outside shared-memory mode.
func BatchRankPath(dir string, batchNum int64, rank int) string {
	return fmt.Sprintf("%s/%d_%d.psm.csv", dir, batchNum, rank)
}
