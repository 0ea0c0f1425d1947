package render

import (
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/rollout/internal/domain/models"
)

type accountJSON struct {
	Address            string `json:"address"`
	Balance            string `json:"balance"`
	ExcludedFromTax    bool   `json:"excludedFromTax"`
	ExcludedFromLimits bool   `json:"excludedFromLimits"`
}

type snapshotJSON struct {
	Address              string        `json:"address"`
	Network              string        `json:"network"`
	BlockNumber          uint64        `json:"blockNumber"`
	Name                 string        `json:"name"`
	Symbol               string        `json:"symbol"`
	Decimals             uint8         `json:"decimals"`
	TotalSupply          string        `json:"totalSupply"`
	Owner                string        `json:"owner"`
	TaxWallet            string        `json:"taxWallet"`
	BuyTaxRateBps        uint64        `json:"buyTaxRateBps"`
	SellTaxRateBps       uint64        `json:"sellTaxRateBps"`
	TradingEnabled       bool          `json:"tradingEnabled"`
	LimitsEnabled        bool          `json:"limitsEnabled"`
	MaxTransactionAmount string        `json:"maxTransactionAmount"`
	MaxWalletAmount      string        `json:"maxWalletAmount"`
	DailyTradingLimit    string        `json:"dailyTradingLimit"`
	Accounts             []accountJSON `json:"accounts"`
}

func decimal(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newSnapshotJSON(s *models.TokenSnapshot) *snapshotJSON {
	out := &snapshotJSON{
		Address:              s.Address.Hex(),
		Network:              s.Network,
		BlockNumber:          s.BlockNumber,
		Name:                 s.Name,
		Symbol:               s.Symbol,
		Decimals:             s.Decimals,
		TotalSupply:          decimal(s.TotalSupply),
		Owner:                s.Owner.Hex(),
		TaxWallet:            s.TaxWallet.Hex(),
		BuyTaxRateBps:        s.BuyTaxBps,
		SellTaxRateBps:       s.SellTaxBps,
		TradingEnabled:       s.TradingEnabled,
		LimitsEnabled:        s.LimitsEnabled,
		MaxTransactionAmount: decimal(s.MaxTransactionAmount),
		MaxWalletAmount:      decimal(s.MaxWalletAmount),
		DailyTradingLimit:    decimal(s.DailyTradingLimit),
		Accounts:             []accountJSON{},
	}
	for _, a := range s.Accounts {
		out.Accounts = append(out.Accounts, accountJSON{
			Address:            a.Address.Hex(),
			Balance:            decimal(a.Balance),
			ExcludedFromTax:    a.ExcludedFromTax,
			ExcludedFromLimits: a.ExcludedFromLimits,
		})
	}
	return out
}

// RenderSnapshot renders live token state
func RenderSnapshot(out io.Writer, s *models.TokenSnapshot) {
	headerStyle.Fprintf(out, "%s (%s) on %s", s.Name, s.Symbol, s.Network)
	labelStyle.Fprintf(out, " @ block %d\n", s.BlockNumber)

	field(out, "Address", s.Address.Hex())
	field(out, "Total supply", tokenAmount(s.TotalSupply, s.Decimals))
	field(out, "Decimals", s.Decimals)
	field(out, "Owner", s.Owner.Hex())
	field(out, "Tax wallet", s.TaxWallet.Hex())
	field(out, "Buy tax", models.FormatBps(s.BuyTaxBps))
	field(out, "Sell tax", models.FormatBps(s.SellTaxBps))
	field(out, "Trading enabled", yesNo(s.TradingEnabled))
	field(out, "Limits enabled", yesNo(s.LimitsEnabled))
	field(out, "Max transaction", tokenAmount(s.MaxTransactionAmount, s.Decimals))
	field(out, "Max wallet", tokenAmount(s.MaxWalletAmount, s.Decimals))
	field(out, "Daily trading limit", tokenAmount(s.DailyTradingLimit, s.Decimals))

	if len(s.Accounts) == 0 {
		return
	}
	fmt.Fprintln(out)
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.AppendHeader(table.Row{"Account", "Balance", "Tax exempt", "Limit exempt"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	for _, a := range s.Accounts {
		t.AppendRow(table.Row{a.Address.Hex(), tokenAmount(a.Balance, s.Decimals), yesNo(a.ExcludedFromTax), yesNo(a.ExcludedFromLimits)})
	}
	fmt.Fprintln(out, t.Render())
}

// SessionRenderer renders session reads and writes
type SessionRenderer struct {
	out  io.Writer
	json bool
}

// NewSessionRenderer creates a new session renderer
func NewSessionRenderer(out io.Writer, json bool) *SessionRenderer {
	return &SessionRenderer{out: out, json: json}
}

// RenderSnapshot renders the describe output
func (r *SessionRenderer) RenderSnapshot(s *models.TokenSnapshot) error {
	if r.json {
		return WriteJSON(r.out, newSnapshotJSON(s))
	}
	RenderSnapshot(r.out, s)
	return nil
}

// RenderRead renders the result of a view call
func (r *SessionRenderer) RenderRead(method string, value any) error {
	if r.json {
		if v, ok := value.(*big.Int); ok {
			value = decimal(v)
		}
		return WriteJSON(r.out, map[string]any{"method": method, "result": value})
	}
	fmt.Fprintf(r.out, "%s: %v\n", method, value)
	return nil
}

type operationJSON struct {
	Method        string           `json:"method"`
	State         string           `json:"state"`
	DryRun        bool             `json:"dryRun,omitempty"`
	NoOp          bool             `json:"noOp,omitempty"`
	Effect        string           `json:"effect,omitempty"`
	GasEstimate   uint64           `json:"gasEstimate,omitempty"`
	TxHash        string           `json:"txHash,omitempty"`
	BlockNumber   uint64           `json:"blockNumber,omitempty"`
	Prerequisites []*operationJSON `json:"prerequisites,omitempty"`
	Notes         []string         `json:"notes,omitempty"`
	Error         string           `json:"error,omitempty"`
}

func newOperationJSON(op *models.WriteOperation) *operationJSON {
	out := &operationJSON{
		Method:      op.Method,
		State:       string(op.State),
		DryRun:      op.DryRun,
		NoOp:        op.NoOp,
		Effect:      op.Effect,
		GasEstimate: op.GasEstimate,
		BlockNumber: op.BlockNumber,
		Notes:       op.Notes,
	}
	if op.TxHash != (common.Hash{}) {
		out.TxHash = op.TxHash.Hex()
	}
	for _, pre := range op.Prerequisites {
		out.Prerequisites = append(out.Prerequisites, newOperationJSON(pre))
	}
	return out
}

// RenderOperation renders a write and its outcome; err is the error the
// session returned with it, if any
func (r *SessionRenderer) RenderOperation(op *models.WriteOperation, err error) error {
	if r.json {
		out := newOperationJSON(op)
		if err != nil {
			out.Error = err.Error()
		}
		return WriteJSON(r.out, out)
	}

	for _, pre := range op.Prerequisites {
		r.renderOperation(pre, "  ↳ ")
	}
	r.renderOperation(op, "")
	if op.DryRun {
		fmt.Fprintln(r.out, hintStyle.Sprint("Dry run, nothing was sent. Re-run with --confirm to submit."))
	}
	return nil
}

func (r *SessionRenderer) renderOperation(op *models.WriteOperation, indent string) {
	var state string
	switch {
	case op.NoOp:
		state = verifiedStyle.Sprint("✓ nothing to do")
	case op.State == models.OperationConfirmed:
		state = verifiedStyle.Sprint("✓ confirmed")
	case op.State == models.OperationFailed:
		state = failedStyle.Sprint("✗ failed")
	case op.State == models.OperationTimedOut:
		state = pendingStyle.Sprint("⏳ not confirmed in time")
	case op.State == models.OperationSubmitted:
		state = pendingStyle.Sprint("⏳ submitted")
	case op.State == models.OperationValidated:
		state = hintStyle.Sprint("● validated")
	default:
		state = labelStyle.Sprint("○ draft")
	}
	fmt.Fprintf(r.out, "%s%s %s\n", indent, sectionStyle.Sprint(op.Method), state)
	if op.Effect != "" {
		fmt.Fprintf(r.out, "%s  %s\n", indent, op.Effect)
	}
	if op.GasEstimate > 0 {
		fmt.Fprintf(r.out, "%s  %s %s\n", indent, labelStyle.Sprint("gas:"), numbers.Sprintf("%d", op.GasEstimate))
	}
	if op.TxHash != (common.Hash{}) {
		fmt.Fprintf(r.out, "%s  %s %s\n", indent, labelStyle.Sprint("tx:"), op.TxHash.Hex())
	}
	if op.BlockNumber > 0 {
		fmt.Fprintf(r.out, "%s  %s %d\n", indent, labelStyle.Sprint("block:"), op.BlockNumber)
	}
	for _, note := range op.Notes {
		fmt.Fprintf(r.out, "%s  %s\n", indent, pendingStyle.Sprint(note))
	}
}
