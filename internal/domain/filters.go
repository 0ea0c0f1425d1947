package domain

import "strings"

// DeploymentFilter defines filtering options for deployment records
type DeploymentFilter struct {
	Network string
	ChainID uint64
	Symbol  string
	// Status matches the record verification status (e.g. "VERIFIED")
	Status string
}

// MatchesNetwork reports whether the filter accepts the given network
func (f DeploymentFilter) MatchesNetwork(network string, chainID uint64) bool {
	if f.Network != "" && f.Network != network {
		return false
	}
	if f.ChainID != 0 && f.ChainID != chainID {
		return false
	}
	return true
}

// MatchesSymbol compares symbols case-insensitively
func (f DeploymentFilter) MatchesSymbol(symbol string) bool {
	return f.Symbol == "" || strings.EqualFold(f.Symbol, symbol)
}
