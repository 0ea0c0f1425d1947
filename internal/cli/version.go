package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/rollout/internal/config"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rollout",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rollout version %s (commit %s, built %s, %s)\n",
				config.Version, config.Commit, config.Date, runtime.Version())
		},
	}
}
