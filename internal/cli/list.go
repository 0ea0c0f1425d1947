package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/rollout/internal/cli/render"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var params usecase.ListDeploymentsParams

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded deployments",
		Long: `List the deployments recorded under .rollout/deployments.

With --network only that network is listed, otherwise every network is.`,
		Example: `  # List every deployment
  rollout list

  # List MEME deployments on sepolia that failed verification
  rollout list -n sepolia --symbol MEME --status failed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if app.Config.Network == nil {
				params.AllNetworks = true
			}

			result, err := app.ListDeployments.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			return render.NewDeploymentsRenderer(cmd.OutOrStdout(), app.Config.JSON).Render(result)
		},
	}

	cmd.Flags().BoolVar(&params.AllNetworks, "all", false, "List every network even when --network is set")
	cmd.Flags().StringVar(&params.Symbol, "symbol", "", "Filter by token symbol")
	cmd.Flags().StringVar(&params.Status, "status", "", "Filter by verification status (unverified, pending, verified, failed)")

	return cmd
}
