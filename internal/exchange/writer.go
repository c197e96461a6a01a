package exchange

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smallnest/ringbuffer"

	"github.com/pepmatch/psmsearch/internal/errors"
)

// Writer is the single goroutine that persists finished IBuffer slots to
// per-batch staging files, one file per (batch, node) pair, in the order
// compute finishes batches rather than in batch-number order.
//
// Each slot is serialized into a byte-oriented ring buffer before being
// drained to disk: this decouples the fixed-width binary encoding step
// from the actual write syscall, the same separation of concerns the
// teacher's own buffer-pool benchmarks measure a ring buffer against.
type Writer struct {
	Ring     *Ring
	DataPath string
	NodeID   int

	stageBytes int // ring buffer capacity; 0 selects a size sufficient for one slot
}

func (w *Writer) stagingBuffer(slot *IBuffer) *ringbuffer.RingBuffer {
	size := w.stageBytes
	if size <= 0 {
		size = len(slot.Packs)*prWireSize + len(slot.Samples)*2
		if size < 64 {
			size = 64
		}
	}
	return ringbuffer.New(size)
}

// Run drains the ring's post channel until it sees the terminal sentinel
// posted by Ring.Close, persisting each slot and returning it to compute
// via markDone.
func (w *Writer) Run() error {
	for idx := range w.Ring.postCh {
		if idx == sentinelSlot {
			return nil
		}
		slot := w.Ring.slotAt(idx)
		if err := w.persist(slot); err != nil {
			return err
		}
		w.Ring.markDone(idx)
	}
	return nil
}

// persist writes numSpecs PartialResult records back-to-back, then
// currptr uint16 survival samples, to {datapath}/{batchNum}_{nodeID}.dat,
// per the persisted-state layout in little-endian host byte order.
func (w *Writer) persist(slot *IBuffer) error {
	path := filepath.Join(w.DataPath, fmt.Sprintf("%d_%d.dat", slot.BatchNum, w.NodeID))
	f, err := os.Create(path)
	if err != nil {
		return errors.New(err).Category(errors.CategoryExchange).Component("exchange").
			Context("operation", "persist").Context("path", path).Build()
	}
	defer f.Close()

	stage := w.stagingBuffer(slot)
	for _, pr := range slot.Packs {
		if err := binary.Write(stage, binary.LittleEndian, prWire{
			Min:  pr.Min,
			Max:  pr.Max,
			Max2: pr.Max2,
			N:    int32(pr.N),
			QID:  pr.QID,
		}); err != nil {
			return errors.New(err).Category(errors.CategoryExchange).Component("exchange").
				Context("operation", "persist_partial").Build()
		}
	}

	sampleCount := slot.CurrPtr
	if sampleCount > len(slot.Samples) {
		sampleCount = len(slot.Samples)
	}
	if err := binary.Write(stage, binary.LittleEndian, slot.Samples[:sampleCount]); err != nil {
		return errors.New(err).Category(errors.CategoryExchange).Component("exchange").
			Context("operation", "persist_samples").Build()
	}

	return w.drain(f, stage)
}

// drain copies every byte currently buffered in stage to f. The ring
// buffer's Read returns ringbuffer.ErrIsEmpty once drained rather than
// io.EOF, so this reads exactly the byte count the buffer reports
// (Length) instead of looping on io.Copy's EOF assumption.
func (w *Writer) drain(f *os.File, stage *ringbuffer.RingBuffer) error {
	remaining := stage.Length()
	buf := make([]byte, remaining)
	n, err := stage.Read(buf)
	if err != nil && n == 0 {
		return errors.New(err).Category(errors.CategoryExchange).Component("exchange").
			Context("operation", "persist_drain").Build()
	}
	if _, err := f.Write(buf[:n]); err != nil {
		return errors.New(err).Category(errors.CategoryExchange).Component("exchange").
			Context("operation", "persist_flush").Build()
	}
	return nil
}

// prWireSize is prWire's encoded byte width: three float64 (8 each) +
// int32 (4) + uint32 (4) = 32.
const prWireSize = 8 + 8 + 8 + 4 + 4

// prWire is PartialResult's fixed-width wire encoding.
type prWire struct {
	Min  float64
	Max  float64
	Max2 float64
	N    int32
	QID  uint32
}
