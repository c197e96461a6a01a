package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pepmatch/psmsearch/internal/buildinfo"
)

// Command creates a new cobra.Command to print build information.
func Command(build *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the psmsearch build version",
		Long:  "",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("psmsearch %s (built %s, system %s)\n", build.Version(), build.BuildDate(), build.SystemID())
			return nil
		},
	}

	return cmd
}
