package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/rollout/internal/cli/render"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "show <deployment>",
		Short: "Show a recorded deployment",
		Long: `Show a recorded deployment and, with --live, the token's current on-chain state.

A deployment is referenced by:
- Contract address: "0x1234..."
- Symbol: "MEME"
- Symbol on a network: "MEME@sepolia"

When several deployments match, an interactive picker is shown.`,
		Example: `  rollout show MEME
  rollout show MEME@sepolia --live
  rollout show 0x1234567890abcdef1234567890abcdef12345678 -n sepolia`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ShowDeployment.Run(cmd.Context(), usecase.ShowDeploymentParams{
				Reference: args[0],
				Live:      live,
			})
			stopProgress(app)
			if err != nil {
				return fmt.Errorf("failed to resolve deployment: %w", err)
			}

			return render.NewDeploymentRenderer(cmd.OutOrStdout(), app.Config.JSON).Render(result)
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "Also read the token's current state from the chain")

	return cmd
}
