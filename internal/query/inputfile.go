package query

import "sync/atomic"

// InputFile is a handle to one MS/MS file on disk. It is mutated only by
// the I/O worker currently holding it, per spec: no two workers touch the
// same InputFile concurrently.
type InputFile struct {
	Path string

	// FileIndex is this file's position in the configured file list,
	// reported on PSMs in the GPU output path.
	FileIndex int

	// TotalSpectra is the spectrum count discovered at startup scan.
	TotalSpectra int
	// Remaining is decremented by ExtractQueryChunk as spectra are read.
	Remaining int
	// CurrChunk is the next batch-number offset to assign within this
	// file; combined with the file's startup batch-offset it gives a
	// globally monotone batch number across every file.
	CurrChunk int

	// BatchOffset is computed at startup so batch numbers never collide
	// across files (invariant I2: batch numbers are globally monotone).
	BatchOffset int64
}

// NextBatchNum returns the next globally unique batch number for this
// file and advances its internal chunk counter.
func (f *InputFile) NextBatchNum() int64 {
	n := f.BatchOffset + int64(f.CurrChunk)
	f.CurrChunk++
	return n
}

// Done reports whether every spectrum in this file has been extracted.
func (f *InputFile) Done() bool {
	return f.Remaining < 1
}

// AssignBatchOffsets assigns monotone batch-number offsets to a list of
// files at startup, one offset per file sized to its own chunk count so
// no two files' batch numbers can ever collide.
func AssignBatchOffsets(files []*InputFile, qChunk int) {
	var offset int64
	for _, f := range files {
		f.BatchOffset = offset
		nchunks := (f.TotalSpectra + qChunk - 1) / qChunk
		if nchunks < 1 {
			nchunks = 1
		}
		offset += int64(nchunks)
	}
}

// globalSpectrumCounter is an optional diagnostic counter for spectra
// scanned across all files; not required by the search itself.
var globalSpectrumCounter int64

// AddScanned records n additional spectra having been scanned for
// diagnostics/metrics purposes.
func AddScanned(n int64) {
	atomic.AddInt64(&globalSpectrumCounter, n)
}

// ScannedCount returns the running total recorded via AddScanned.
func ScannedCount() int64 {
	return atomic.LoadInt64(&globalSpectrumCounter)
}
