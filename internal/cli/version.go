package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-deploy/internal/config"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of treb-deploy",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "treb-deploy version %s\n", config.VersionString())
		},
	}
}
