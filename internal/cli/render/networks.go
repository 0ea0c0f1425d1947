package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out  io.Writer
	json bool
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer, json bool) *NetworksRenderer {
	return &NetworksRenderer{out: out, json: json}
}

type networkJSON struct {
	Name     string `json:"name"`
	ChainID  uint64 `json:"chainId,omitempty"`
	Public   bool   `json:"public"`
	Explorer string `json:"explorer,omitempty"`
	Router   string `json:"router,omitempty"`
	Current  bool   `json:"current,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RenderNetworksList renders the configured networks
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	if r.json {
		out := make([]networkJSON, 0, len(result.Networks))
		for _, n := range result.Networks {
			entry := networkJSON{
				Name:     n.Name,
				ChainID:  n.ChainID,
				Public:   n.Public,
				Explorer: n.Explorer,
				Current:  n.Name == result.Current,
			}
			if n.Router != (common.Address{}) {
				entry.Router = n.Router.Hex()
			}
			if n.Error != nil {
				entry.Error = n.Error.Error()
			}
			out = append(out, entry)
		}
		return WriteJSON(r.out, out)
	}

	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in rollout.toml [networks]")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.AppendHeader(table.Row{"", "Network", "Chain ID", "Verification", "Router"})
	for _, n := range result.Networks {
		marker := " "
		if n.Name == result.Current {
			marker = "*"
		}
		if n.Error != nil {
			t.AppendRow(table.Row{"❌", n.Name, failedStyle.Sprintf("error: %v", n.Error), "", ""})
			continue
		}
		verification := labelStyle.Sprint("skipped (local)")
		if n.Public {
			verification = verifiedStyle.Sprint(n.Explorer)
		}
		router := labelStyle.Sprint("none")
		if n.Router != (common.Address{}) {
			router = n.Router.Hex()
		}
		t.AppendRow(table.Row{marker, n.Name, n.ChainID, verification, router})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}
