// Package index defines the read-only fragment-ion inverted index contract
// the scoring kernel consumes. Index construction itself is a collaborator
// and lives outside this module; only the shapes it must produce, plus a
// registry a concrete builder plugs into, live here.
package index

import (
	"fmt"
	"sync"
)

// Loader builds or loads an Index from the configured database path,
// including any GPU-resident copy per conf.Settings.Search.NoGPUIndex.
// The NoCache/Reindex options are applied by wrapping a Loader with
// NewCachingLoader, which keeps loaded indexes in memory.
type Loader func(dbPath string) (*Index, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Loader)
)

// Register associates a policy name (e.g. "native", "prebuilt") with a
// Loader, the same plugin seam specfile.Register gives parser builds.
func Register(name string, loader Loader) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = loader
}

// For returns the registered Loader for name, or an error if nothing
// has registered under it.
func For(name string) (Loader, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	loader, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("index: no loader registered for %q", name)
	}
	return loader, nil
}

// PepEntry is one mass-sorted peptide entry within a length chunk.
type PepEntry struct {
	Mass float64
	ID   uint32
}

// Chunk is one internal chunk of a peptide-length bucket: a CSR-style
// fragment-ion index (bA/iA) alongside the mass-sorted peptide table that
// range search walks.
type Chunk struct {
	PepEntries    []PepEntry
	BA            []uint32 // bin-offset prefix sum, length = maxScaledMZ+2
	IA            []uint32 // flattened ion records, packed peptide_id*speclen+ion_slot
	ChunkSize     int
	LastChunkSize int
}

// LengthBucket groups every internal chunk sharing one peptide length.
type LengthBucket struct {
	PepLen      int
	Chunks      []Chunk
	LclTotCnt   int
	SpecLen     int // (PepLen-1) * MaxZ * ISeries
}

// Index is the full fragment-ion inverted index for one search run,
// one bucket per distinct peptide length in [minLen, maxLen].
type Index struct {
	Buckets []LengthBucket
}

// IonSlot decodes a packed iA entry into its peptide id and ion slot,
// and reports whether it is a b-ion (lower half of speclen) or y-ion.
func IonSlot(raw uint32, speclen int) (peptideID uint32, ionSlot int, isBIon bool) {
	peptideID = raw / uint32(speclen)
	ionSlot = int(raw % uint32(speclen))
	isBIon = ionSlot < speclen/2
	return
}
