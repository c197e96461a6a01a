// conf/config.go
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// Settings holds the full, validated configuration tree for a search run.
type Settings struct {
	Debug bool // true to enable debug mode

	Main struct {
		Name string // name of this search node, identifies the shard/rank in logs
		Log  LogConfig
	}

	Search struct {
		DBPath    string // path to the fragment-ion index
		Dataset   string // path to the directory or list of MS/MS input files
		Workspace string // path where per-batch staging and output files are written

		Threads     int // max concurrent compute threads
		PrepThreads int // max concurrent I/O (prep) threads
		GPUThreads  int // max simultaneous GPU offload streams, 0 disables the GPU backend

		MinLen int // minimum peptide length considered
		MaxLen int // maximum peptide length considered
		MaxZ   int // maximum fragment ion charge

		Res float64 // m/z bin width in Da, scale = round(1/Res)
		DM  float64 // precursor mass tolerance window half-width, Da
		DF  float64 // fragment bin tolerance, Da (converted to scaled bins internally)

		MinMass float64 // minimum accepted spectrum precursor mass
		MaxMass float64 // maximum accepted spectrum precursor mass

		MinSHP     int     // minimum shared b+y ion count for PSM candidacy
		MinCPSM    int     // minimum candidates required before tail-fit is attempted
		TopMatches int     // top-K heap size per spectrum
		ExpectMax  float64 // e-value ceiling for reporting a PSM

		SpadMemMB int    // scratch memory budget, MB
		Policy    string // index distribution policy across ranks: cyclic, chunk, zigzag

		IndexLoader string // name of the registered index.Loader to build/load the fragment-ion index with

		Mods []string // variable PTMs, each "AA:MASS:NUM"

		NoGPUIndex  bool // skip building/loading the GPU-resident index copy
		Reindex     bool // force index rebuild before search
		NoCache     bool // bypass the in-memory index cache (index.NewCachingLoader)
		GumbelFit   bool // use the Gumbel tail estimator instead of the default OLS estimator
		MatchCharge bool // require fragment charge match in addition to mass match
		NoProgress  bool // suppress progress reporting
		Verbose     bool // enable verbose (debug level) logging
	}

	BufferPool struct {
		Size          int // number of preallocated SpectrumBatch slots
		LowWatermark  int // ready-queue depth below which the scheduler may add an I/O worker
		HighWatermark int // ready-queue depth above which the scheduler requests preempt
	}

	Exchange struct {
		Enabled  bool // true enables multi-node exchange/merge
		NIBuffs  int  // ring depth of staging buffers
		Rank     int  // this node's rank
		NumRanks int  // total number of ranks participating in the run
	}

	Output struct {
		Driver string // "file" or "sqlite"
		Path   string // output CSV file path (file driver) or database path (sqlite driver)
	}

	Telemetry struct {
		Enabled bool
		DSN     string
	}
}

// LogConfig defines the configuration for a rotated log file.
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // Path to the log file
	Rotation    RotationType // Type of log rotation
	MaxSize     int64        // Max size in bytes for RotationSize
	RotationDay time.Weekday // Day of the week for RotationWeekly
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// buildDate is the time when the binary was built, set via -ldflags.
var buildDate string

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a fresh
// Settings instance, clamps out-of-range values, and stores it as the
// process-wide current settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	clampSettings(settings)

	settingsInstance = settings
	return settings, nil
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	fmt.Printf("psmsearch build date: %s, using config file: %s\n", buildDate, viper.ConfigFileUsed())
	return nil
}

func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading embedded config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance, or nil if none has been loaded.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, loading defaults on first use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// ResetForTest clears the cached singleton so tests can load fresh settings.
// Intended for use only from _test.go files.
func ResetForTest() {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settingsInstance = nil
	once = sync.Once{}
}
