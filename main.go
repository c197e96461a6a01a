package main

import (
	"fmt"
	"os"

	"github.com/pepmatch/psmsearch/cmd"
	"github.com/pepmatch/psmsearch/internal/buildinfo"
	"github.com/pepmatch/psmsearch/internal/conf"
)

// version and buildDate are set via -ldflags at build time.
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	systemID, err := os.Hostname()
	if err != nil {
		systemID = buildinfo.UnknownValue
	}
	build := buildinfo.NewContext(version, buildDate, systemID)

	rootCmd := cmd.RootCommand(settings, build)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
