package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/rollout/internal/cli/render"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var (
		allFlag      bool
		forceFlag    bool
		contractPath string
	)

	cmd := &cobra.Command{
		Use:   "verify [address|symbol]",
		Short: "Verify deployed tokens on the block explorer",
		Long: `Submit a recorded deployment's source to the network's explorer and update
its verification status.

Examples:
  rollout verify MEME -n sepolia           # Verify by symbol
  rollout verify 0x1234... -n sepolia      # Verify by address
  rollout verify --all -n sepolia          # Verify everything unverified or failed
  rollout verify --all --force -n sepolia  # Re-verify including verified
  rollout verify MEME --contract-path "src/MemeToken.sol:MemeToken"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			options := usecase.VerifyOptions{
				Force:        forceFlag,
				ContractPath: contractPath,
			}
			renderer := render.NewVerifyRenderer(cmd.OutOrStdout(), app.Config.JSON)
			ctx := cmd.Context()

			if allFlag {
				result, err := app.VerifyDeployment.VerifyAll(ctx, options)
				stopProgress(app)
				if err != nil {
					return fmt.Errorf("failed to verify deployments: %w", err)
				}
				return renderer.RenderVerifyAllResult(result)
			}

			if len(args) == 0 {
				return fmt.Errorf("please provide a deployment address or symbol, or use --all")
			}

			result, err := app.VerifyDeployment.VerifySpecific(ctx, args[0], options)
			stopProgress(app)
			if err != nil {
				return err
			}
			if err := renderer.RenderVerifyResult(result); err != nil {
				return err
			}
			if !result.Success && result.Skipped == "" {
				return result.Err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&allFlag, "all", false, "Verify all unverified or failed deployments on the network")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Re-verify even if already verified")
	cmd.Flags().StringVar(&contractPath, "contract-path", "", "Contract identifier (e.g., src/MemeToken.sol:MemeToken)")

	return cmd
}
