package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/rollout/internal/cli/render"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// NewNetworksCmd creates the networks command
func NewNetworksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List networks from rollout.toml",
		Long: `List the networks configured in the [networks] section of rollout.toml.

Chain IDs are fetched from the RPC endpoints when the config leaves them out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListNetworks.Run(cmd.Context(), usecase.ListNetworksParams{})
			if err != nil {
				return err
			}

			return render.NewNetworksRenderer(cmd.OutOrStdout(), app.Config.JSON).RenderNetworksList(result)
		},
	}

	return cmd
}
