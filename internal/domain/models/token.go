package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenSnapshot is a point-in-time read of a token's public state.
// It is advisory: write paths re-read what they depend on.
type TokenSnapshot struct {
	Address              common.Address
	Network              string
	BlockNumber          uint64
	Name                 string
	Symbol               string
	Decimals             uint8
	TotalSupply          *big.Int
	Owner                common.Address
	TaxWallet            common.Address
	BuyTaxBps            uint64
	SellTaxBps           uint64
	TradingEnabled       bool
	LimitsEnabled        bool
	MaxTransactionAmount *big.Int
	MaxWalletAmount      *big.Int
	DailyTradingLimit    *big.Int
	Accounts             []AccountState
}

// AccountState holds per-address values read alongside a snapshot
type AccountState struct {
	Address            common.Address
	Balance            *big.Int
	ExcludedFromTax    bool
	ExcludedFromLimits bool
}

// Token method names
const (
	MethodTransfer      = "transfer"
	MethodApprove       = "approve"
	MethodSetTaxRates   = "setTaxRates"
	MethodAddLiquidity  = "addLiquidity"
	MethodEnableTrading = "enableTrading"
)

// TokenCall describes one state-changing contract call
type TokenCall struct {
	Method string
	Args   []any
	// Value is the native amount sent with the call (nil for none)
	Value *big.Int
}

func TransferCall(to common.Address, amount *big.Int) TokenCall {
	return TokenCall{Method: MethodTransfer, Args: []any{to, amount}}
}

func ApproveCall(spender common.Address, amount *big.Int) TokenCall {
	return TokenCall{Method: MethodApprove, Args: []any{spender, amount}}
}

func SetTaxRatesCall(buyBps, sellBps uint64) TokenCall {
	return TokenCall{
		Method: MethodSetTaxRates,
		Args:   []any{new(big.Int).SetUint64(buyBps), new(big.Int).SetUint64(sellBps)},
	}
}

// AddLiquidityCall sends ethAmount along with the call
func AddLiquidityCall(tokenAmount, ethAmount, deadline *big.Int) TokenCall {
	return TokenCall{
		Method: MethodAddLiquidity,
		Args:   []any{tokenAmount, ethAmount, deadline},
		Value:  ethAmount,
	}
}

func EnableTradingCall() TokenCall {
	return TokenCall{Method: MethodEnableTrading}
}
