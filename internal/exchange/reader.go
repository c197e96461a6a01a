package exchange

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/pepmatch/psmsearch/internal/errors"
)

// StagedShard is one staging file's full contents, decoded back into
// per-spectrum PartialResults and survival histograms, in spectrum-index
// order.
type StagedShard struct {
	Partials []PartialResult
	Survival [][]int // Survival[i] has xsamp entries, one per spectrum i
}

// ReadStaged parses a file Writer.persist wrote. numSpecs is never
// stored in the file itself (the persisted-state layout is just the
// PartialResult records followed by the survival samples); it is instead
// recovered from the file size, since every record is prWireSize bytes
// and every spectrum carries exactly xsamp uint16 samples.
func ReadStaged(path string, xsamp int) (StagedShard, error) {
	f, err := os.Open(path)
	if err != nil {
		return StagedShard{}, errors.New(err).Category(errors.CategoryExchange).Component("exchange").
			Context("operation", "read_staged_open").Context("path", path).Build()
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return StagedShard{}, errors.New(err).Category(errors.CategoryExchange).Component("exchange").
			Context("operation", "read_staged_stat").Context("path", path).Build()
	}

	perSpectrum := prWireSize + xsamp*2
	if perSpectrum <= 0 || info.Size()%int64(perSpectrum) != 0 {
		return StagedShard{}, errors.New(fmt.Errorf("staged file %s has size %d, not a multiple of per-spectrum width %d", path, info.Size(), perSpectrum)).
			Category(errors.CategoryExchange).Component("exchange").Context("operation", "read_staged_layout").Build()
	}
	numSpecs := int(info.Size() / int64(perSpectrum))

	shard := StagedShard{
		Partials: make([]PartialResult, numSpecs),
		Survival: make([][]int, numSpecs),
	}

	for i := 0; i < numSpecs; i++ {
		var w prWire
		if err := binary.Read(f, binary.LittleEndian, &w); err != nil {
			return StagedShard{}, errors.New(err).Category(errors.CategoryExchange).Component("exchange").
				Context("operation", "read_staged_partial").Context("index", i).Build()
		}
		shard.Partials[i] = PartialResult{Min: w.Min, Max: w.Max, Max2: w.Max2, N: int(w.N), QID: w.QID}
	}

	samples := make([]uint16, xsamp)
	for i := 0; i < numSpecs; i++ {
		if err := binary.Read(f, binary.LittleEndian, samples); err != nil {
			return StagedShard{}, errors.New(err).Category(errors.CategoryExchange).Component("exchange").
				Context("operation", "read_staged_samples").Context("index", i).Build()
		}
		survival := make([]int, xsamp)
		for b, v := range samples {
			survival[b] = int(v)
		}
		shard.Survival[i] = survival
	}

	return shard, nil
}
