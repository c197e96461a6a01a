// root.go viper root command code
package cmd

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pepmatch/psmsearch/cmd/license"
	"github.com/pepmatch/psmsearch/cmd/search"
	"github.com/pepmatch/psmsearch/cmd/version"
	"github.com/pepmatch/psmsearch/internal/buildinfo"
	"github.com/pepmatch/psmsearch/internal/conf"
	"github.com/pepmatch/psmsearch/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	// Create the root command
	rootCmd := &cobra.Command{
		Use:   "psmsearch",
		Short: "High-throughput peptide-spectrum match search engine",
	}

	// Set up the global flags for the root command.
	err := setupFlags(rootCmd, settings)
	if err != nil {
		log.Printf("error setting up flags: %v\n", err)
	}

	// Add sub-commands to the root command.
	searchCmd := search.Command(settings)
	licenseCmd := license.Command()
	versionCmd := version.Command(build)

	subcommands := []*cobra.Command{
		searchCmd,
		licenseCmd,
		versionCmd,
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Skip setup for license and version commands
		if cmd.Name() != licenseCmd.Name() && cmd.Name() != versionCmd.Name() {
			initialize()
			if settings.Search.Verbose {
				logging.SetLevel(slog.LevelDebug)
			}
		}

		return nil
	}

	return rootCmd
}

// initialize is called before any subcommands are run, but after the context is ready.
// It prepares process-wide state shared by every subcommand that actually runs a search.
func initialize() {
	logging.Init()
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Main.Name, "name", viper.GetString("main.name"), "Name of this search node, identifies the shard/rank in logs")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
