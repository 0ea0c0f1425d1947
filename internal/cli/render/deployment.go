package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/trebuchet-org/rollout/internal/domain/models"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// defaultDecimals is used for stored parameters; the token is deployed with 18 decimals
const defaultDecimals = 18

// DeploymentRenderer renders detailed information about a single deployment
type DeploymentRenderer struct {
	out  io.Writer
	json bool
}

// NewDeploymentRenderer creates a new deployment renderer
func NewDeploymentRenderer(out io.Writer, json bool) *DeploymentRenderer {
	return &DeploymentRenderer{out: out, json: json}
}

type showJSON struct {
	Deployment *models.DeploymentRecord `json:"deployment"`
	Live       *snapshotJSON            `json:"live,omitempty"`
	LiveError  string                   `json:"liveError,omitempty"`
}

// Render renders the record and, when present, the live token state
func (r *DeploymentRenderer) Render(result *usecase.ShowDeploymentResult) error {
	if r.json {
		out := showJSON{Deployment: result.Record}
		if result.Snapshot != nil {
			out.Live = newSnapshotJSON(result.Snapshot)
		}
		if result.LiveError != nil {
			out.LiveError = result.LiveError.Error()
		}
		return WriteJSON(r.out, out)
	}

	r.RenderRecord(result.Record)
	if result.Snapshot != nil {
		fmt.Fprintln(r.out)
		RenderSnapshot(r.out, result.Snapshot)
	}
	if result.LiveError != nil {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("live state unavailable: %v", result.LiveError)))
	}
	return nil
}

// RenderRecord renders the stored deployment record
func (r *DeploymentRenderer) RenderRecord(record *models.DeploymentRecord) {
	headerStyle.Fprintf(r.out, "Deployment: %s\n", record.DisplayName())
	fmt.Fprintln(r.out, strings.Repeat("=", 80))

	fmt.Fprintln(r.out)
	sectionStyle.Fprintln(r.out, "Contract")
	field(r.out, "Address", record.ContractAddress.Hex())
	field(r.out, "Network", fmt.Sprintf("%s (chain %d)", record.Network, record.ChainID))
	field(r.out, "Deployer", record.Deployer.Hex())
	field(r.out, "Transaction", record.TransactionHash.Hex())
	if record.Confirmed() {
		field(r.out, "Block", record.BlockNumber)
	} else {
		field(r.out, "Block", pendingStyle.Sprint("unconfirmed"))
	}
	field(r.out, "Deployed at", record.DeploymentTime.UTC().Format("2006-01-02 15:04:05 MST"))
	field(r.out, "Config hash", record.ConfigHash.Hex())

	fmt.Fprintln(r.out)
	sectionStyle.Fprintln(r.out, "Verification")
	field(r.out, "Status", statusLabel(record.VerificationStatus))
	if record.VerificationReason != "" {
		field(r.out, "Reason", record.VerificationReason)
	}
	if record.VerifiedAt != nil {
		field(r.out, "Verified at", record.VerifiedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	if record.ExplorerURL != "" {
		field(r.out, "Explorer", record.ExplorerURL)
	}

	if record.Parameters == nil {
		return
	}
	p := record.Parameters.Params()
	fmt.Fprintln(r.out)
	sectionStyle.Fprintln(r.out, "Parameters")
	field(r.out, "Name", p.Name)
	field(r.out, "Symbol", p.Symbol)
	field(r.out, "Total supply", tokenAmount(p.TotalSupply, defaultDecimals))
	field(r.out, "Tax wallet", p.TaxWallet.Hex())
	field(r.out, "Router", p.Router.Hex())
	field(r.out, "Buy tax", models.FormatBps(p.BuyTaxBps))
	field(r.out, "Sell tax", models.FormatBps(p.SellTaxBps))
	field(r.out, "Max transaction", tokenAmount(p.MaxTransactionAmount, defaultDecimals))
	field(r.out, "Max wallet", tokenAmount(p.MaxWalletAmount, defaultDecimals))
	field(r.out, "Daily trading limit", tokenAmount(p.DailyTradingLimit, defaultDecimals))
}
