// conf/consts.go hard coded constants for the search pipeline
package conf

const (
	// QChunk is the number of spectra packed into a single SpectrumBatch.
	QChunk = 20000

	// HistogramSize is the number of buckets in a per-spectrum survival
	// histogram (hyperscore*10, clamped to this range).
	HistogramSize = 2000

	// ISeries is the number of ion series considered per fragmentation
	// site (b and y).
	ISeries = 2

	// DefaultNIBuffs is the ring depth of the multi-node exchange layer.
	DefaultNIBuffs = 4

	// DefaultBufferPoolSize is the default number of preallocated
	// SpectrumBatch slots in the buffer pool.
	DefaultBufferPoolSize = 20

	// DefaultLowWatermark and DefaultHighWatermark are the ready-queue
	// depth thresholds consumed by the scheduler.
	DefaultLowWatermark  = 5
	DefaultHighWatermark = 15

	// MaxHyperscore is the e-value sentinel used when a spectrum does not
	// have enough candidates to attempt a tail-fit.
	MaxHyperscore = 999999.0
)
