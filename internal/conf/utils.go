package conf

import (
	"os"
	"path/filepath"
	"runtime"
)

// GetDefaultConfigPaths returns, in priority order, the directories viper
// should search for config.yaml: the current directory first, then an
// OS-appropriate user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			paths = append(paths, filepath.Join(appData, "psmsearch"))
		}
	default:
		home, err := os.UserHomeDir()
		if err == nil && home != "" {
			paths = append(paths, filepath.Join(home, ".config", "psmsearch"))
		}
		paths = append(paths, "/etc/psmsearch")
	}

	return paths, nil
}
