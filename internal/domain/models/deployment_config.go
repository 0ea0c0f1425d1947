package models

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/rollout/internal/domain"
)

// MaxBps is 100% expressed in basis points
const MaxBps = 10000

// Field names used in validation errors and records
const (
	FieldName                 = "name"
	FieldSymbol               = "symbol"
	FieldTotalSupply          = "totalSupply"
	FieldTaxWallet            = "taxWallet"
	FieldRouter               = "routerAddress"
	FieldBuyTax               = "buyTaxRateBps"
	FieldSellTax              = "sellTaxRateBps"
	FieldMaxTransactionAmount = "maxTransactionAmount"
	FieldMaxWalletAmount      = "maxWalletAmount"
	FieldDailyTradingLimit    = "dailyTradingLimit"
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// constructorArguments is the token constructor signature. The order is part of the
// deployment and verification wire format and must not change.
var constructorArguments = abi.Arguments{
	{Name: "name", Type: mustType("string")},
	{Name: "symbol", Type: mustType("string")},
	{Name: "totalSupply", Type: mustType("uint256")},
	{Name: "taxWallet", Type: mustType("address")},
	{Name: "routerAddress", Type: mustType("address")},
	{Name: "buyTaxRate", Type: mustType("uint256")},
	{Name: "sellTaxRate", Type: mustType("uint256")},
	{Name: "maxTransactionAmount", Type: mustType("uint256")},
	{Name: "maxWalletAmount", Type: mustType("uint256")},
	{Name: "dailyTradingLimit", Type: mustType("uint256")},
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// ConstructorArguments returns the token constructor's ABI argument list
func ConstructorArguments() abi.Arguments {
	return constructorArguments
}

// DeploymentParams is the editable input for a token deployment.
// It becomes a DeploymentConfig once validated.
type DeploymentParams struct {
	Name                 string
	Symbol               string
	TotalSupply          *big.Int
	TaxWallet            common.Address
	Router               common.Address
	BuyTaxBps            uint64
	SellTaxBps           uint64
	MaxTransactionAmount *big.Int
	MaxWalletAmount      *big.Int
	DailyTradingLimit    *big.Int
}

// Validate checks the parameters without touching the network.
// The returned error is a *domain.InvalidConfigError naming the first offending field.
func (p DeploymentParams) Validate() error {
	if p.Name == "" {
		return domain.NewInvalidConfig(FieldName, "must not be empty")
	}
	if p.Symbol == "" {
		return domain.NewInvalidConfig(FieldSymbol, "must not be empty")
	}
	if err := checkPositive(FieldTotalSupply, p.TotalSupply); err != nil {
		return err
	}
	if p.TaxWallet == (common.Address{}) {
		return domain.NewInvalidConfig(FieldTaxWallet, "must not be the zero address")
	}
	if p.Router == (common.Address{}) {
		return domain.NewInvalidConfig(FieldRouter, "must not be the zero address")
	}
	if p.BuyTaxBps > MaxBps {
		return domain.NewInvalidConfig(FieldBuyTax, "%d exceeds %d bps", p.BuyTaxBps, MaxBps)
	}
	if p.SellTaxBps > MaxBps {
		return domain.NewInvalidConfig(FieldSellTax, "%d exceeds %d bps", p.SellTaxBps, MaxBps)
	}
	if err := checkPositive(FieldMaxTransactionAmount, p.MaxTransactionAmount); err != nil {
		return err
	}
	if err := checkPositive(FieldMaxWalletAmount, p.MaxWalletAmount); err != nil {
		return err
	}
	if err := checkPositive(FieldDailyTradingLimit, p.DailyTradingLimit); err != nil {
		return err
	}
	if p.MaxWalletAmount.Cmp(p.MaxTransactionAmount) < 0 {
		return domain.NewInvalidConfig(FieldMaxWalletAmount, "must be >= %s (%s)",
			FieldMaxTransactionAmount, p.MaxTransactionAmount)
	}
	return nil
}

func checkPositive(field string, v *big.Int) error {
	switch {
	case v == nil || v.Sign() == 0:
		return domain.NewInvalidConfig(field, "must be greater than zero")
	case v.Sign() < 0:
		return domain.NewInvalidConfig(field, "must not be negative")
	case v.Cmp(maxUint256) > 0:
		return domain.NewInvalidConfig(field, "does not fit in uint256")
	}
	return nil
}

func (p DeploymentParams) clone() DeploymentParams {
	c := p
	c.TotalSupply = cloneInt(p.TotalSupply)
	c.MaxTransactionAmount = cloneInt(p.MaxTransactionAmount)
	c.MaxWalletAmount = cloneInt(p.MaxWalletAmount)
	c.DailyTradingLimit = cloneInt(p.DailyTradingLimit)
	return c
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// DeploymentConfig is a validated, immutable token configuration.
// Use With to derive a changed copy.
type DeploymentConfig struct {
	p DeploymentParams
}

// NewDeploymentConfig validates params and freezes a private copy of them
func NewDeploymentConfig(params DeploymentParams) (*DeploymentConfig, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &DeploymentConfig{p: params.clone()}, nil
}

// Params returns a copy of the parameters; changing it does not affect the config
func (c *DeploymentConfig) Params() DeploymentParams {
	return c.p.clone()
}

// With returns a new validated config with edit applied to a copy of the parameters
func (c *DeploymentConfig) With(edit func(p *DeploymentParams)) (*DeploymentConfig, error) {
	p := c.p.clone()
	edit(&p)
	return NewDeploymentConfig(p)
}

func (c *DeploymentConfig) Name() string { return c.p.Name }
func (c *DeploymentConfig) Symbol() string { return c.p.Symbol }
func (c *DeploymentConfig) TotalSupply() *big.Int { return cloneInt(c.p.TotalSupply) }
func (c *DeploymentConfig) TaxWallet() common.Address { return c.p.TaxWallet }
func (c *DeploymentConfig) Router() common.Address { return c.p.Router }
func (c *DeploymentConfig) BuyTaxBps() uint64 { return c.p.BuyTaxBps }
func (c *DeploymentConfig) SellTaxBps() uint64 { return c.p.SellTaxBps }

// ConstructorArgs returns the constructor values in wire order
func (c *DeploymentConfig) ConstructorArgs() []any {
	p := c.p.clone()
	return []any{
		p.Name,
		p.Symbol,
		p.TotalSupply,
		p.TaxWallet,
		p.Router,
		new(big.Int).SetUint64(p.BuyTaxBps),
		new(big.Int).SetUint64(p.SellTaxBps),
		p.MaxTransactionAmount,
		p.MaxWalletAmount,
		p.DailyTradingLimit,
	}
}

// PackConstructorArgs ABI-encodes the constructor arguments
func (c *DeploymentConfig) PackConstructorArgs() ([]byte, error) {
	packed, err := constructorArguments.Pack(c.ConstructorArgs()...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode constructor arguments: %w", err)
	}
	return packed, nil
}

// Hash derives the idempotence key for deploying this config on network
func (c *DeploymentConfig) Hash(network string) (common.Hash, error) {
	packed, err := c.PackConstructorArgs()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte(network), []byte{0}, packed), nil
}

// parametersJSON is the record file layout; integers are decimal strings
type parametersJSON struct {
	TokenName            string         `json:"tokenName"`
	TokenSymbol          string         `json:"tokenSymbol"`
	TotalSupply          string         `json:"totalSupply"`
	TaxWallet            common.Address `json:"taxWallet"`
	RouterAddress        common.Address `json:"routerAddress"`
	BuyTaxRate           string         `json:"buyTaxRateBps"`
	SellTaxRate          string         `json:"sellTaxRateBps"`
	MaxTransactionAmount string         `json:"maxTransactionAmount"`
	MaxWalletAmount      string         `json:"maxWalletAmount"`
	DailyTradingLimit    string         `json:"dailyTradingLimit"`
}

// MarshalJSON implements json.Marshaler
func (c *DeploymentConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(parametersJSON{
		TokenName:            c.p.Name,
		TokenSymbol:          c.p.Symbol,
		TotalSupply:          c.p.TotalSupply.String(),
		TaxWallet:            c.p.TaxWallet,
		RouterAddress:        c.p.Router,
		BuyTaxRate:           strconv.FormatUint(c.p.BuyTaxBps, 10),
		SellTaxRate:          strconv.FormatUint(c.p.SellTaxBps, 10),
		MaxTransactionAmount: c.p.MaxTransactionAmount.String(),
		MaxWalletAmount:      c.p.MaxWalletAmount.String(),
		DailyTradingLimit:    c.p.DailyTradingLimit.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. The decoded parameters are validated.
func (c *DeploymentConfig) UnmarshalJSON(data []byte) error {
	var raw parametersJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p := DeploymentParams{
		Name:      raw.TokenName,
		Symbol:    raw.TokenSymbol,
		TaxWallet: raw.TaxWallet,
		Router:    raw.RouterAddress,
	}
	var err error
	if p.TotalSupply, err = parseDecimal(FieldTotalSupply, raw.TotalSupply); err != nil {
		return err
	}
	if p.MaxTransactionAmount, err = parseDecimal(FieldMaxTransactionAmount, raw.MaxTransactionAmount); err != nil {
		return err
	}
	if p.MaxWalletAmount, err = parseDecimal(FieldMaxWalletAmount, raw.MaxWalletAmount); err != nil {
		return err
	}
	if p.DailyTradingLimit, err = parseDecimal(FieldDailyTradingLimit, raw.DailyTradingLimit); err != nil {
		return err
	}
	if p.BuyTaxBps, err = strconv.ParseUint(raw.BuyTaxRate, 10, 64); err != nil {
		return domain.NewInvalidConfig(FieldBuyTax, "not a decimal integer: %q", raw.BuyTaxRate)
	}
	if p.SellTaxBps, err = strconv.ParseUint(raw.SellTaxRate, 10, 64); err != nil {
		return domain.NewInvalidConfig(FieldSellTax, "not a decimal integer: %q", raw.SellTaxRate)
	}

	cfg, err := NewDeploymentConfig(p)
	if err != nil {
		return err
	}
	*c = *cfg
	return nil
}

func parseDecimal(field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, domain.NewInvalidConfig(field, "not a decimal integer: %q", s)
	}
	return v, nil
}
