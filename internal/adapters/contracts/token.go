package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/models"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

var tokenABI = mustParseABI(TokenABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid token ABI: %v", err))
	}
	return parsed
}

// Transactor returns signing options for one transaction
type Transactor func(ctx context.Context) (*bind.TransactOpts, error)

// Token is the go-ethereum binding of the deployed token
type Token struct {
	address  common.Address
	from     common.Address
	backend  bind.ContractBackend
	contract *bind.BoundContract
	transact Transactor
}

// NewToken binds the token at address. from is used for calls and gas
// estimation; transact may be nil for a read-only binding.
func NewToken(address, from common.Address, backend bind.ContractBackend, transact Transactor) *Token {
	return &Token{
		address:  address,
		from:     from,
		backend:  backend,
		contract: bind.NewBoundContract(address, tokenABI, backend, backend, backend),
		transact: transact,
	}
}

func (t *Token) Address() common.Address { return t.address }

func (t *Token) call(ctx context.Context, method string, args ...any) ([]any, error) {
	var out []any
	err := t.contract.Call(&bind.CallOpts{Context: ctx, From: t.from}, &out, method, args...)
	if err != nil {
		return nil, classify(err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no value", method)
	}
	return out, nil
}

func result[T any](out []any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	return *abi.ConvertType(out[0], new(T)).(*T), nil
}

func (t *Token) uint64Result(ctx context.Context, method string) (uint64, error) {
	v, err := result[*big.Int](t.call(ctx, method))
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("%s: %s does not fit in uint64", method, v)
	}
	return v.Uint64(), nil
}

func (t *Token) Name(ctx context.Context) (string, error) {
	return result[string](t.call(ctx, "name"))
}

func (t *Token) Symbol(ctx context.Context) (string, error) {
	return result[string](t.call(ctx, "symbol"))
}

func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	return result[uint8](t.call(ctx, "decimals"))
}

func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	return result[*big.Int](t.call(ctx, "totalSupply"))
}

func (t *Token) Owner(ctx context.Context) (common.Address, error) {
	return result[common.Address](t.call(ctx, "owner"))
}

func (t *Token) TaxWallet(ctx context.Context) (common.Address, error) {
	return result[common.Address](t.call(ctx, "taxWallet"))
}

func (t *Token) BuyTaxRate(ctx context.Context) (uint64, error) {
	return t.uint64Result(ctx, "buyTaxRate")
}

func (t *Token) SellTaxRate(ctx context.Context) (uint64, error) {
	return t.uint64Result(ctx, "sellTaxRate")
}

func (t *Token) TradingEnabled(ctx context.Context) (bool, error) {
	return result[bool](t.call(ctx, "tradingEnabled"))
}

func (t *Token) LimitsEnabled(ctx context.Context) (bool, error) {
	return result[bool](t.call(ctx, "limitsEnabled"))
}

func (t *Token) MaxTransactionAmount(ctx context.Context) (*big.Int, error) {
	return result[*big.Int](t.call(ctx, "maxTransactionAmount"))
}

func (t *Token) MaxWalletAmount(ctx context.Context) (*big.Int, error) {
	return result[*big.Int](t.call(ctx, "maxWalletAmount"))
}

func (t *Token) DailyTradingLimit(ctx context.Context) (*big.Int, error) {
	return result[*big.Int](t.call(ctx, "dailyTradingLimit"))
}

func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return result[*big.Int](t.call(ctx, "balanceOf", account))
}

func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return result[*big.Int](t.call(ctx, "allowance", owner, spender))
}

func (t *Token) IsExcludedFromTax(ctx context.Context, account common.Address) (bool, error) {
	return result[bool](t.call(ctx, "isExcludedFromTax", account))
}

func (t *Token) IsExcludedFromLimits(ctx context.Context, account common.Address) (bool, error) {
	return result[bool](t.call(ctx, "isExcludedFromLimits", account))
}

// EstimateGas simulates call from the bound sender
func (t *Token) EstimateGas(ctx context.Context, call models.TokenCall) (uint64, error) {
	data, err := tokenABI.Pack(call.Method, call.Args...)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", call.Method, err)
	}
	msg := ethereum.CallMsg{From: t.from, To: &t.address, Value: call.Value, Data: data}
	gas, err := t.backend.EstimateGas(ctx, msg)
	if err != nil {
		return 0, classify(err)
	}
	return gas, nil
}

// Send signs and submits call
func (t *Token) Send(ctx context.Context, call models.TokenCall) (common.Hash, error) {
	if t.transact == nil {
		return common.Hash{}, errors.New("no signing key configured")
	}
	opts, err := t.transact(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	opts.Value = call.Value
	tx, err := t.contract.Transact(opts, call.Method, call.Args...)
	if err != nil {
		return common.Hash{}, classify(err)
	}
	return tx.Hash(), nil
}

var unauthorizedErrors = map[[4]byte]string{
	{0x11, 0x8c, 0xda, 0xa7}: "OwnableUnauthorizedAccount",
}

var unauthorizedReasons = []string{
	"caller is not the owner",
	"ownableunauthorizedaccount",
	"only owner",
	"not authorized",
}

// classify turns reverts into readable errors and access-control reverts into domain.ErrUnauthorized
func classify(err error) error {
	var reason string
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if raw, ok := dataErr.ErrorData().(string); ok {
			if data, decErr := hexutil.Decode(raw); decErr == nil && len(data) >= 4 {
				if name, ok := unauthorizedErrors[[4]byte(data[:4])]; ok {
					return fmt.Errorf("%w: %s: %v", domain.ErrUnauthorized, name, err)
				}
				if msg, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					reason = msg
				}
			}
		}
	}

	text := strings.ToLower(reason + " " + err.Error())
	for _, marker := range unauthorizedReasons {
		if strings.Contains(text, marker) {
			return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
	}
	if reason != "" {
		return fmt.Errorf("execution reverted: %s", reason)
	}
	return err
}

var _ usecase.TokenContract = (*Token)(nil)
