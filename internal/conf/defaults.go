package conf

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/viper"
)

// setDefaultConfig seeds viper with default values for every recognized
// option before the config file is read, so a field absent from the file
// (or an empty embedded config.yaml) still resolves to a sane value.
func setDefaultConfig() {
	viper.SetDefault("main.name", "psmsearch-node")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/search.log")
	viper.SetDefault("main.log.rotation", string(RotationDaily))
	viper.SetDefault("main.log.maxsize", int64(100*1024*1024))

	viper.SetDefault("search.threads", defaultComputeThreads())
	viper.SetDefault("search.prepthreads", defaultPrepThreads())
	viper.SetDefault("search.gputhreads", 0)

	viper.SetDefault("search.minlen", 6)
	viper.SetDefault("search.maxlen", 50)
	viper.SetDefault("search.maxz", 3)

	viper.SetDefault("search.res", 0.01)
	viper.SetDefault("search.dm", 10.0)
	viper.SetDefault("search.df", 0.01)

	viper.SetDefault("search.minmass", 200.0)
	viper.SetDefault("search.maxmass", 10000.0)

	viper.SetDefault("search.minshp", 4)
	viper.SetDefault("search.mincpsm", 1)
	viper.SetDefault("search.topmatches", 5)
	viper.SetDefault("search.expectmax", 0.01)

	viper.SetDefault("search.spadmem", 2048)
	viper.SetDefault("search.policy", "cyclic")
	viper.SetDefault("search.indexloader", "native")

	viper.SetDefault("bufferpool.size", DefaultBufferPoolSize)
	viper.SetDefault("bufferpool.lowwatermark", DefaultLowWatermark)
	viper.SetDefault("bufferpool.highwatermark", DefaultHighWatermark)

	viper.SetDefault("exchange.enabled", false)
	viper.SetDefault("exchange.nibuffs", DefaultNIBuffs)
	viper.SetDefault("exchange.rank", 0)
	viper.SetDefault("exchange.numranks", 1)

	viper.SetDefault("output.driver", "file")
	viper.SetDefault("output.path", "results.csv")

	viper.SetDefault("telemetry.enabled", false)
}

// defaultComputeThreads picks a default compute thread count from the
// number of logical CPUs reported by gopsutil, falling back to
// runtime.NumCPU() if the probe fails (e.g. inside restricted containers).
func defaultComputeThreads() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// defaultPrepThreads reserves a quarter of the logical CPUs (minimum 1) for
// I/O workers by default; the scheduler grows this at runtime based on
// measured stall penalty.
func defaultPrepThreads() int {
	n := defaultComputeThreads() / 4
	if n < 1 {
		n = 1
	}
	return n
}
