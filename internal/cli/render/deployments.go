package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/trebuchet-org/rollout/internal/domain/models"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

var (
	networkBg         = color.BgCyan
	networkHeader     = color.New(networkBg, color.FgBlack)
	networkHeaderBold = color.New(networkBg, color.FgBlack, color.Bold)
)

// DeploymentsRenderer renders deployment lists grouped by network
type DeploymentsRenderer struct {
	out  io.Writer
	json bool
}

// NewDeploymentsRenderer creates a new deployments renderer
func NewDeploymentsRenderer(out io.Writer, json bool) *DeploymentsRenderer {
	return &DeploymentsRenderer{out: out, json: json}
}

// Render renders the deployment list
func (r *DeploymentsRenderer) Render(result *usecase.DeploymentListResult) error {
	if r.json {
		return WriteJSON(r.out, listJSON(result))
	}

	if len(result.Deployments) == 0 {
		fmt.Fprintln(r.out, "No deployments found")
		return nil
	}

	groups := lo.GroupBy(result.Deployments, func(d *models.DeploymentRecord) string { return d.Network })
	networks := lo.Keys(groups)
	sort.Strings(networks)

	for i, network := range networks {
		records := groups[network]
		isLast := i == len(networks)-1
		treePrefix, continuation := "├─", "│ "
		if isLast {
			treePrefix, continuation = "└─", "  "
		}

		label := fmt.Sprintf("%-10s", "network:")
		value := fmt.Sprintf("%-30s", fmt.Sprintf("%s (%d)", network, records[0].ChainID))
		fmt.Fprintf(r.out, "%s%s%s\n", treePrefix, networkHeader.Sprintf(" ⛓ %s ", label), networkHeaderBold.Sprint(value))
		fmt.Fprintln(r.out, continuation)
		fmt.Fprintln(r.out, r.table(records, continuation))
		if !isLast {
			fmt.Fprintln(r.out, continuation)
		}
	}

	fmt.Fprintln(r.out)
	r.renderSummary(result.Summary)
	return nil
}

func (r *DeploymentsRenderer) table(records []*models.DeploymentRecord, prefix string) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box = table.BoxStyle{PaddingRight: "   "}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft},
		{Number: 4, Align: text.AlignLeft},
	})

	for _, record := range records {
		status := statusLabel(record.VerificationStatus)
		if !record.Confirmed() {
			status = pendingStyle.Sprint("⏳ unconfirmed")
		}
		t.AppendRow(table.Row{
			prefix + symbolStyle.Sprint(record.DisplayName()),
			addressStyle.Sprint(record.ContractAddress.Hex()),
			status,
			timestampStyle.Sprint(record.DeploymentTime.UTC().Format("2006-01-02 15:04:05")),
		})
	}
	return t.Render()
}

func (r *DeploymentsRenderer) renderSummary(summary usecase.DeploymentSummary) {
	fmt.Fprintf(r.out, "Total deployments: %d", summary.Total)
	if summary.Unconfirmed > 0 {
		fmt.Fprint(r.out, pendingStyle.Sprintf(" (%d unconfirmed, run `rollout show <address> --live` to re-check)", summary.Unconfirmed))
	}
	fmt.Fprintln(r.out)

	statuses := []models.VerificationStatus{
		models.VerificationStatusVerified,
		models.VerificationStatusPending,
		models.VerificationStatusUnverified,
		models.VerificationStatusFailed,
	}
	parts := lo.FilterMap(statuses, func(s models.VerificationStatus, _ int) (string, bool) {
		n := summary.ByStatus[s]
		return fmt.Sprintf("%s %d", statusLabel(s), n), n > 0
	})
	if len(parts) > 0 {
		fmt.Fprintln(r.out, labelStyle.Sprint("Verification: ")+strings.Join(parts, "  "))
	}
}
