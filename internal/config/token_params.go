package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
	"gopkg.in/yaml.v3"
)

// TokenParamsFile is the on-disk token parameter set. Integer fields take
// numbers or strings, and strings may carry an exponent ("1000000000e18").
type TokenParamsFile struct {
	Name                 string `toml:"name" yaml:"name"`
	Symbol               string `toml:"symbol" yaml:"symbol"`
	TotalSupply          any    `toml:"total_supply" yaml:"total_supply"`
	TaxWallet            string `toml:"tax_wallet" yaml:"tax_wallet"`
	Router               string `toml:"router" yaml:"router"`
	BuyTaxBps            any    `toml:"buy_tax_bps" yaml:"buy_tax_bps"`
	SellTaxBps           any    `toml:"sell_tax_bps" yaml:"sell_tax_bps"`
	MaxTransactionAmount any    `toml:"max_transaction_amount" yaml:"max_transaction_amount"`
	MaxWalletAmount      any    `toml:"max_wallet_amount" yaml:"max_wallet_amount"`
	DailyTradingLimit    any    `toml:"daily_trading_limit" yaml:"daily_trading_limit"`
}

// LoadTokenParams reads a .toml, .yaml or .yml parameter file.
// An empty router is filled from the router book for the network.
// The result is not validated; DeploymentParams.Validate does that.
func LoadTokenParams(path string, network *config.Network, routers *config.RouterBook) (models.DeploymentParams, error) {
	var params models.DeploymentParams

	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("failed to read token parameters: %w", err)
	}

	var file TokenParamsFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &file); err != nil {
			return params, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return params, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return params, fmt.Errorf("unsupported token parameter format %q (use .toml, .yaml or .yml)", ext)
	}

	return file.Params(network, routers)
}

// Params converts the file into deployment parameters
func (f *TokenParamsFile) Params(network *config.Network, routers *config.RouterBook) (models.DeploymentParams, error) {
	var (
		params models.DeploymentParams
		err    error
	)

	params.Name = os.ExpandEnv(f.Name)
	params.Symbol = os.ExpandEnv(f.Symbol)

	if params.TaxWallet, err = addressValue(models.FieldTaxWallet, f.TaxWallet); err != nil {
		return params, err
	}

	router := strings.TrimSpace(os.ExpandEnv(f.Router))
	if router == "" {
		if addr, ok := routers.Lookup(network); ok {
			params.Router = addr
		}
	} else if params.Router, err = addressValue(models.FieldRouter, router); err != nil {
		return params, err
	}

	amounts := []struct {
		field string
		raw   any
		dst   **big.Int
	}{
		{models.FieldTotalSupply, f.TotalSupply, &params.TotalSupply},
		{models.FieldMaxTransactionAmount, f.MaxTransactionAmount, &params.MaxTransactionAmount},
		{models.FieldMaxWalletAmount, f.MaxWalletAmount, &params.MaxWalletAmount},
		{models.FieldDailyTradingLimit, f.DailyTradingLimit, &params.DailyTradingLimit},
	}
	for _, a := range amounts {
		if *a.dst, err = integerValue(a.field, a.raw); err != nil {
			return params, err
		}
	}

	if params.BuyTaxBps, err = bpsValue(models.FieldBuyTax, f.BuyTaxBps); err != nil {
		return params, err
	}
	if params.SellTaxBps, err = bpsValue(models.FieldSellTax, f.SellTaxBps); err != nil {
		return params, err
	}

	return params, nil
}

func addressValue(field, raw string) (common.Address, error) {
	raw = strings.TrimSpace(os.ExpandEnv(raw))
	if raw == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, domain.NewInvalidConfig(field, "%q is not an address", raw)
	}
	return common.HexToAddress(raw), nil
}

// integerValue accepts the number types the toml and yaml decoders produce, or a string
func integerValue(field string, raw any) (*big.Int, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case int:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case float64:
		return nil, domain.NewInvalidConfig(field, "%v is a float; quote large values as strings", v)
	case string:
		n, err := models.ParseAmount(os.ExpandEnv(v))
		if err != nil {
			return nil, domain.NewInvalidConfig(field, "%v", err)
		}
		return n, nil
	default:
		return nil, domain.NewInvalidConfig(field, "unsupported value %v", raw)
	}
}

func bpsValue(field string, raw any) (uint64, error) {
	if s, ok := raw.(string); ok {
		trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "bps"))
		v, err := strconv.ParseUint(trimmed, 10, 64)
		if err != nil {
			return 0, domain.NewInvalidConfig(field, "%q is not a whole number of basis points", s)
		}
		return v, nil
	}
	n, err := integerValue(field, raw)
	if err != nil || n == nil {
		return 0, err
	}
	if n.Sign() < 0 || !n.IsUint64() {
		return 0, domain.NewInvalidConfig(field, "%s out of range", n)
	}
	return n.Uint64(), nil
}
