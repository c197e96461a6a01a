package searchmanager

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pepmatch/psmsearch/internal/errors"
	"github.com/pepmatch/psmsearch/internal/query"
	"github.com/pepmatch/psmsearch/internal/specfile"
)

// specExtensions lists the file extensions DiscoverFiles treats as
// MS/MS input; the concrete parser dispatched for each is still a
// specfile.Parser collaborator decision.
var specExtensions = map[string]bool{
	".mzml": true,
	".mgf":  true,
}

// discoverPaths walks dataset, which may name a single file or a
// directory, and returns every spectrum file found in deterministic
// (lexical) order so batch-number assignment is reproducible across runs.
func discoverPaths(dataset string) ([]string, error) {
	info, err := os.Stat(dataset)
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryFileIO).Component("searchmanager").
			Context("operation", "stat_dataset").Context("path", dataset).Build()
	}

	if !info.IsDir() {
		return []string{dataset}, nil
	}

	var paths []string
	walkErr := filepath.WalkDir(dataset, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if specExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, errors.New(walkErr).Category(errors.CategoryFileIO).Component("searchmanager").
			Context("operation", "walk_dataset").Context("path", dataset).Build()
	}

	sort.Strings(paths)
	return paths, nil
}

// buildInputFiles scans each discovered path with a throwaway parser
// instance to obtain its spectrum count, per spec.md's startup scan,
// then assigns globally monotone batch-number offsets across the whole
// set before any I/O worker starts draining them.
func buildInputFiles(paths []string, qChunk int, newParser func() specfile.Parser) ([]*query.InputFile, error) {
	files := make([]*query.InputFile, 0, len(paths))
	parser := newParser()

	for i, p := range paths {
		spectrumCount, _, err := parser.InitQueryFile(p, i)
		if err != nil {
			return nil, errors.New(err).Category(errors.CategoryFileParsing).Component("searchmanager").
				Context("operation", "startup_scan").Context("path", p).Build()
		}
		if err := parser.DeinitQueryFile(); err != nil {
			return nil, errors.New(err).Category(errors.CategoryFileParsing).Component("searchmanager").
				Context("operation", "startup_scan_close").Context("path", p).Build()
		}

		files = append(files, &query.InputFile{
			Path:         p,
			FileIndex:    i,
			TotalSpectra: spectrumCount,
			Remaining:    spectrumCount,
		})
	}

	query.AssignBatchOffsets(files, qChunk)
	return files, nil
}
