package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/models"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// DeployRenderer renders the outcome of a deploy run
type DeployRenderer struct {
	out  io.Writer
	json bool
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer, json bool) *DeployRenderer {
	return &DeployRenderer{out: out, json: json}
}

type deployJSON struct {
	Status            usecase.DeployStatus     `json:"status"`
	AlreadyDeployed   bool                     `json:"alreadyDeployed"`
	Deployment        *models.DeploymentRecord `json:"deployment"`
	DeployerBalance   string                   `json:"deployerBalance,omitempty"`
	Confirmations     uint64                   `json:"confirmations,omitempty"`
	Condition         string                   `json:"condition,omitempty"`
	VerificationError string                   `json:"verificationError,omitempty"`
	Warnings          []string                 `json:"warnings"`
}

// Render renders the result
func (r *DeployRenderer) Render(result *usecase.DeployResult) error {
	if r.json {
		out := deployJSON{
			Status:          result.Status,
			AlreadyDeployed: result.AlreadyDeployed,
			Deployment:      result.Record,
			Warnings:        result.Warnings,
		}
		if out.Warnings == nil {
			out.Warnings = []string{}
		}
		if result.DeployerBalance != nil {
			out.DeployerBalance = result.DeployerBalance.String()
		}
		if result.Confirmation != nil {
			out.Confirmations = result.Confirmation.Confirmations
		}
		if result.Condition != nil {
			out.Condition = result.Condition.Error()
		}
		if result.VerificationError != nil {
			out.VerificationError = result.VerificationError.Error()
		}
		return WriteJSON(r.out, out)
	}

	record := result.Record
	switch result.Status {
	case usecase.DeployStatusAlreadyDeployed:
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s is already deployed at %s", record.DisplayName(), record.ContractAddress.Hex())))
		if !record.Confirmed() {
			fmt.Fprintln(r.out, FormatWarning("the creation transaction was never confirmed, check "+record.TransactionHash.Hex()+" before using the token"))
		}
		labelStyle.Fprintln(r.out, "Pass --force to deploy a second instance.")
	case usecase.DeployStatusUnconfirmed:
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("%s was sent but not confirmed (%s)", record.DisplayName(), conditionText(result.Condition))))
		field(r.out, "Address", record.ContractAddress.Hex())
		field(r.out, "Transaction", record.TransactionHash.Hex())
		labelStyle.Fprintln(r.out, "The record was saved. Re-check later with `rollout show "+record.ContractAddress.Hex()+" --live`.")
	default:
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Deployed %s", record.DisplayName())))
		field(r.out, "Address", record.ContractAddress.Hex())
		field(r.out, "Transaction", record.TransactionHash.Hex())
		field(r.out, "Block", record.BlockNumber)
		if result.Confirmation != nil {
			field(r.out, "Confirmations", result.Confirmation.Confirmations)
		}
		if result.DeployerBalance != nil {
			field(r.out, "Deployer balance", tokenAmount(result.DeployerBalance, 18)+" (native)")
		}
		field(r.out, "Verification", statusLabel(record.VerificationStatus))
		if record.ExplorerURL != "" {
			field(r.out, "Explorer", record.ExplorerURL)
		}
	}

	if result.VerificationError != nil {
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("verification failed: %v", result.VerificationError)))
		labelStyle.Fprintln(r.out, "Retry with `rollout verify "+record.ContractAddress.Hex()+"`.")
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(r.out, FormatWarning(w))
	}

	if result.Status == usecase.DeployStatusDeployed {
		r.renderNextSteps(record)
	}
	return nil
}

func (r *DeployRenderer) renderNextSteps(record *models.DeploymentRecord) {
	address := record.ContractAddress.Hex()
	fmt.Fprintln(r.out)
	sectionStyle.Fprintln(r.out, "Next steps")
	steps := []string{
		fmt.Sprintf("rollout session describe --address %s", address),
		fmt.Sprintf("rollout session call addLiquidity --address %s --args <tokenAmount>,<ethAmount> --confirm", address),
		fmt.Sprintf("rollout session call enableTrading --address %s --confirm", address),
	}
	for i, step := range steps {
		fmt.Fprintf(r.out, "  %d. %s\n", i+1, hintStyle.Sprint(step))
	}
}

func conditionText(err error) string {
	switch {
	case errors.Is(err, domain.ErrConfirmationTimeout):
		return "confirmation timed out"
	case errors.Is(err, domain.ErrCancelled):
		return "interrupted"
	case err != nil:
		return err.Error()
	default:
		return "unknown"
	}
}
