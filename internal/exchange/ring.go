package exchange

import "sync"

// sentinelSlot is posted to the writer's channel to signal shutdown; it
// is not a valid ring index.
const sentinelSlot = -1

// IBuffer is one ring slot: a batch's PartialResults and flattened
// survival samples, staged for the writer goroutine to persist. Ownership
// toggles strictly by IsDone — compute holds a slot while IsDone is
// false, the writer claims it once compute calls Finalize and IsDone
// flips true.
type IBuffer struct {
	BatchNum int64
	NumSpecs int
	Packs    []PartialResult
	Samples  []uint16 // flattened, NumSpecs * xsamples entries
	CurrPtr  int      // uint16 sample count (NumSpecs * xsamples); the writer persists this many samples

	xsamp  int
	isDone bool
}

// Ring is a fixed set of NIBUFFS IBuffer slots, indexed by batch number
// modulo the ring size, with the producer/consumer isDone handshake.
type Ring struct {
	mu      sync.Mutex
	cond    *sync.Cond
	slots   []*IBuffer
	xsamp   int
	postCh  chan int
	closed  bool
}

// NewRing preallocates n slots, each sized for xsamples survival samples
// per spectrum and capacity spectra.
func NewRing(n, capacitySpectra, xsamples int) *Ring {
	r := &Ring{
		slots:  make([]*IBuffer, n),
		xsamp:  xsamples,
		postCh: make(chan int, n),
	}
	r.cond = sync.NewCond(&r.mu)
	for i := range r.slots {
		r.slots[i] = &IBuffer{
			Packs:   make([]PartialResult, 0, capacitySpectra),
			Samples: make([]uint16, capacitySpectra*xsamples),
			xsamp:   xsamples,
			isDone:  true,
		}
	}
	return r
}

// AcquireSlot blocks until the slot for batchNum (batchNum % len(slots))
// is available (isDone==true from a prior writer pass, or never used),
// marks it in-use, and returns it ready for compute to fill.
func (r *Ring) AcquireSlot(batchNum int64) *IBuffer {
	idx := int(batchNum % int64(len(r.slots)))

	r.mu.Lock()
	defer r.mu.Unlock()
	slot := r.slots[idx]
	for !slot.isDone {
		r.cond.Wait()
	}
	slot.isDone = false
	slot.BatchNum = batchNum
	slot.NumSpecs = 0
	slot.CurrPtr = 0
	slot.Packs = slot.Packs[:0]
	return slot
}

// FillSample writes one survival sample at the flattened offset
// spectrumIdx*xsamples + bucket.
func (s *IBuffer) FillSample(spectrumIdx, bucket int, v uint16) {
	s.Samples[spectrumIdx*s.xsamp+bucket] = v
}

// AddPartial appends one spectrum's PartialResult to the slot.
func (s *IBuffer) AddPartial(pr PartialResult) {
	s.Packs = append(s.Packs, pr)
	s.NumSpecs++
}

// Finalize sets currptr to the number of uint16 survival samples the slot
// holds (NumSpecs * xsamples), which the writer persists without any
// further sizeof scaling, and posts the slot index for the writer
// goroutine.
func (r *Ring) Finalize(batchNum int64) {
	idx := int(batchNum % int64(len(r.slots)))
	r.mu.Lock()
	slot := r.slots[idx]
	slot.CurrPtr = slot.NumSpecs * r.xsamp
	r.mu.Unlock()
	r.postCh <- idx
}

// markDone is called by the writer after persisting a slot, returning
// ownership to compute for a future batch sharing this slot index.
func (r *Ring) markDone(idx int) {
	r.mu.Lock()
	r.slots[idx].isDone = true
	r.cond.Broadcast()
	r.mu.Unlock()
}

// slotAt returns the slot for reading by the writer; callers must only
// call this for an idx received off postCh, after which the slot is
// exclusively owned by the writer until markDone.
func (r *Ring) slotAt(idx int) *IBuffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots[idx]
}

// Close posts the terminal sentinel so the writer goroutine's range loop
// exits after draining whatever was already posted.
func (r *Ring) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()
	r.postCh <- sentinelSlot
}
