package contracts

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/models"
)

var (
	tokenAddress = common.HexToAddress("0x7000000000000000000000000000000000000001")
	sender       = common.HexToAddress("0xD000000000000000000000000000000000000001")
)

// revertError mimics the JSON-RPC error carrying revert data
type revertError struct{ data string }

func (e revertError) Error() string  { return "execution reverted" }
func (e revertError) ErrorData() any { return e.data }

// fakeBackend answers eth_call from a table of method results
type fakeBackend struct {
	bind.ContractBackend

	results  map[string][]any
	calls    []ethereum.CallMsg
	gasErr   error
	gasLimit uint64
}

func (b *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.calls = append(b.calls, msg)
	method, err := tokenABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(b.results[method.Name]...)
}

func (b *fakeBackend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	b.calls = append(b.calls, msg)
	return b.gasLimit, b.gasErr
}

func revertData(t *testing.T, reason string) string {
	t.Helper()
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	require.NoError(t, err)
	return hexutil.Encode(append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...))
}

func TestToken_Reads(t *testing.T) {
	backend := &fakeBackend{results: map[string][]any{
		"name":          {"MemeToken"},
		"decimals":      {uint8(18)},
		"buyTaxRate":    {big.NewInt(500)},
		"owner":         {sender},
		"limitsEnabled": {true},
		"allowance":     {big.NewInt(42)},
	}}
	token := NewToken(tokenAddress, sender, backend, nil)
	ctx := context.Background()

	name, err := token.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "MemeToken", name)

	decimals, err := token.Decimals(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), decimals)

	buy, err := token.BuyTaxRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), buy)

	owner, err := token.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, sender, owner)

	limits, err := token.LimitsEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, limits)

	allowance, err := token.Allowance(ctx, sender, tokenAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(42), allowance.Int64())

	last := backend.calls[len(backend.calls)-1]
	assert.Equal(t, sender, last.From)
	assert.Equal(t, tokenAddress, *last.To)
	args, err := tokenABI.Methods["allowance"].Inputs.Unpack(last.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, []any{sender, tokenAddress}, args)
}

func TestToken_EstimateGas(t *testing.T) {
	ctx := context.Background()
	liquidity := models.AddLiquidityCall(big.NewInt(1000), big.NewInt(7), big.NewInt(1_700_000_000))

	t.Run("carries value and calldata", func(t *testing.T) {
		backend := &fakeBackend{gasLimit: 90_000}
		token := NewToken(tokenAddress, sender, backend, nil)

		gas, err := token.EstimateGas(ctx, liquidity)
		require.NoError(t, err)
		assert.Equal(t, uint64(90_000), gas)
		require.Len(t, backend.calls, 1)
		assert.Equal(t, big.NewInt(7), backend.calls[0].Value)
		assert.Equal(t, tokenABI.Methods["addLiquidity"].ID, backend.calls[0].Data[:4])
	})

	t.Run("bad arguments", func(t *testing.T) {
		token := NewToken(tokenAddress, sender, &fakeBackend{}, nil)
		_, err := token.EstimateGas(ctx, models.TokenCall{Method: models.MethodTransfer, Args: []any{"nope"}})
		assert.Error(t, err)
	})
}

func TestToken_SendWithoutKey(t *testing.T) {
	token := NewToken(tokenAddress, sender, &fakeBackend{}, nil)
	_, err := token.Send(context.Background(), models.EnableTradingCall())
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	ownableV5 := hexutil.Encode(append(common.FromHex("0x118cdaa7"), common.LeftPadBytes(sender.Bytes(), 32)...))

	tests := []struct {
		name             string
		err              error
		wantUnauthorized bool
		wantText         string
	}{
		{name: "ownable custom error", err: revertError{data: ownableV5}, wantUnauthorized: true},
		{name: "ownable revert string", err: revertError{data: revertData(t, "Ownable: caller is not the owner")}, wantUnauthorized: true},
		{name: "node message", err: errors.New("execution reverted: OwnableUnauthorizedAccount(0xD000)"), wantUnauthorized: true},
		{name: "business revert", err: revertError{data: revertData(t, "Trading not enabled")}, wantText: "execution reverted: Trading not enabled"},
		{name: "plain failure", err: errors.New("connection refused"), wantText: "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.Equal(t, tt.wantUnauthorized, errors.Is(got, domain.ErrUnauthorized))
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, got.Error())
			}
		})
	}
}
