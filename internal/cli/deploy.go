package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/rollout/internal/app"
	"github.com/trebuchet-org/rollout/internal/cli/render"
	"github.com/trebuchet-org/rollout/internal/config"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/models"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	var (
		paramsFile    string
		force         bool
		skipVerify    bool
		confirmations uint64
		timeout       time.Duration
		verifyDelay   time.Duration
		exportPath    string
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the token with a parameter file",
		Long: `Deploy the token described by a TOML or YAML parameter file.

The parameters are validated before anything is sent. If the same parameters were
already deployed on the network the recorded deployment is returned and nothing is
sent; pass --force to deploy another instance.

A deployment that is sent but not confirmed within the timeout is recorded as
unconfirmed and the command still succeeds. Check it later with "rollout show".`,
		Example: `  # Deploy to sepolia and verify on Etherscan
  rollout deploy --config token.toml --network sepolia

  # Deploy to a local node, wait for 3 confirmations
  rollout deploy --config token.yaml -n localhost --confirmations 3

  # Write the record to a file as well
  rollout deploy --config token.toml -n sepolia --export deployment-info.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			network := app.Config.Network
			if network == nil {
				return domain.NewInvalidConfig("network", "no network selected, pass --network")
			}

			params, err := config.LoadTokenParams(paramsFile, network, app.Config.Routers)
			if err != nil {
				return err
			}

			if force && interactive(app) {
				ok, err := app.Confirm.Confirm(cmd.Context(), fmt.Sprintf("Deploy another %s on %s even if it was already deployed", params.Symbol, network.Name))
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: deploy aborted", domain.ErrCancelled)
				}
			}

			opts := usecase.DeployOptions{
				Network:       network,
				Force:         force,
				SkipVerify:    skipVerify,
				Confirmations: confirmations,
				Timeout:       timeout,
			}
			if cmd.Flags().Changed("verify-delay") {
				opts.VerifyDelay = &verifyDelay
			}

			result, err := app.DeployToken.Run(cmd.Context(), params, opts)
			stopProgress(app)
			if err != nil {
				return err
			}

			if exportPath != "" {
				if err := exportRecord(exportPath, result.Record); err != nil {
					return err
				}
			}

			return render.NewDeployRenderer(cmd.OutOrStdout(), app.Config.JSON).Render(result)
		},
	}

	cmd.Flags().StringVarP(&paramsFile, "config", "c", "", "Token parameter file (.toml, .yaml or .yml)")
	cmd.Flags().BoolVar(&force, "force", false, "Deploy even if identical parameters were already deployed")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Skip explorer source verification")
	cmd.Flags().Uint64Var(&confirmations, "confirmations", 0, "Confirmations to wait for (default from rollout.toml)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "How long to wait for confirmation (default from rollout.toml)")
	cmd.Flags().DurationVar(&verifyDelay, "verify-delay", 0, "Wait before the first verification attempt")
	cmd.Flags().StringVar(&exportPath, "export", "", "Also write the deployment record to this file")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func exportRecord(path string, record *models.DeploymentRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode deployment record: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to export deployment record: %w", err)
	}
	return nil
}

// interactive reports whether prompts may be shown
func interactive(app *app.App) bool {
	return !app.Config.NonInteractive && !app.Config.JSON
}

// stopProgress clears a running spinner before output is rendered
func stopProgress(app *app.App) {
	if s, ok := app.Progress.(interface{ Stop() }); ok {
		s.Stop()
	}
}
