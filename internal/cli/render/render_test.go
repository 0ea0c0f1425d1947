package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/models"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

func init() {
	color.NoColor = true
}

const tokenAddr = "0x1111111111111111111111111111111111111111"

func testRecord(t *testing.T, block uint64) *models.DeploymentRecord {
	t.Helper()
	e := func(s string) *big.Int {
		v, err := models.ParseAmount(s)
		require.NoError(t, err)
		return v
	}
	cfg, err := models.NewDeploymentConfig(models.DeploymentParams{
		Name:                 "Meme Token",
		Symbol:               "MEME",
		TotalSupply:          e("1e27"),
		TaxWallet:            common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Router:               common.HexToAddress("0x3333333333333333333333333333333333333333"),
		BuyTaxBps:            300,
		SellTaxBps:           500,
		MaxTransactionAmount: e("1e25"),
		MaxWalletAmount:      e("2e25"),
		DailyTradingLimit:    e("5e25"),
	})
	require.NoError(t, err)
	return &models.DeploymentRecord{
		Network:            "sepolia",
		ChainID:            11155111,
		ContractAddress:    common.HexToAddress(tokenAddr),
		TransactionHash:    common.HexToHash("0xaa"),
		BlockNumber:        block,
		DeploymentTime:     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Parameters:         cfg,
		VerificationStatus: models.VerificationStatusVerified,
		ExplorerURL:        "https://sepolia.etherscan.io/address/" + tokenAddr,
	}
}

func TestDeployRenderer_Text(t *testing.T) {
	t.Run("deployed shows next steps", func(t *testing.T) {
		var out bytes.Buffer
		err := NewDeployRenderer(&out, false).Render(&usecase.DeployResult{
			Status:          usecase.DeployStatusDeployed,
			Record:          testRecord(t, 12),
			DeployerBalance: big.NewInt(1e18),
			Confirmation:    &usecase.Confirmation{BlockNumber: 12, Confirmations: 2},
		})
		require.NoError(t, err)

		text := out.String()
		assert.Contains(t, text, "Deployed MEME@sepolia")
		assert.Contains(t, text, "Next steps")
		assert.Contains(t, text, "session call addLiquidity --address "+common.HexToAddress(tokenAddr).Hex())
		assert.Contains(t, text, "session call enableTrading")
	})

	t.Run("unconfirmed asks for a re-check", func(t *testing.T) {
		var out bytes.Buffer
		err := NewDeployRenderer(&out, false).Render(&usecase.DeployResult{
			Status:    usecase.DeployStatusUnconfirmed,
			Record:    testRecord(t, 0),
			Condition: fmt.Errorf("%w: tx 0xaa", domain.ErrConfirmationTimeout),
		})
		require.NoError(t, err)

		text := out.String()
		assert.Contains(t, text, "confirmation timed out")
		assert.Contains(t, text, "--live")
		assert.NotContains(t, text, "Next steps")
	})

	t.Run("verification failure is a warning", func(t *testing.T) {
		var out bytes.Buffer
		err := NewDeployRenderer(&out, false).Render(&usecase.DeployResult{
			Status:            usecase.DeployStatusDeployed,
			Record:            testRecord(t, 12),
			VerificationError: fmt.Errorf("%w: bytecode mismatch", domain.ErrVerificationFailed),
		})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "verification failed")
		assert.Contains(t, out.String(), "rollout verify")
	})
}

func TestDeployRenderer_JSON(t *testing.T) {
	var out bytes.Buffer
	err := NewDeployRenderer(&out, true).Render(&usecase.DeployResult{
		Status:          usecase.DeployStatusAlreadyDeployed,
		Record:          testRecord(t, 12),
		AlreadyDeployed: true,
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "already_deployed", got["status"])
	assert.Equal(t, true, got["alreadyDeployed"])
	assert.Equal(t, []any{}, got["warnings"])
	deployment, ok := got["deployment"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress(tokenAddr).Hex(), deployment["contractAddress"])
}

func TestVerifyRenderer_All(t *testing.T) {
	verified := testRecord(t, 12)
	unconfirmed := testRecord(t, 0)
	failed := testRecord(t, 13)

	var out bytes.Buffer
	err := NewVerifyRenderer(&out, false).RenderVerifyAllResult(&usecase.VerifyAllResult{
		Results: []*usecase.VerifyResult{
			{Record: verified, Success: true},
			{Record: unconfirmed, Skipped: "creation transaction not confirmed"},
			{Record: failed, Err: errors.New("bytecode mismatch")},
		},
		SuccessCount: 1,
		SkippedCount: 1,
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "creation transaction not confirmed")
	assert.Contains(t, text, "bytecode mismatch")
	assert.Contains(t, text, "Verification complete: 1/2 successful, 1 skipped")
}

func TestNetworksRenderer_JSON(t *testing.T) {
	var out bytes.Buffer
	err := NewNetworksRenderer(&out, true).RenderNetworksList(&usecase.ListNetworksResult{
		Networks: []usecase.NetworkStatus{
			{Name: "localhost", ChainID: 31337},
			{Name: "sepolia", ChainID: 11155111, Public: true, Explorer: "https://sepolia.etherscan.io"},
			{Name: "broken", Error: errors.New("dial tcp: connection refused")},
		},
		Current: "sepolia",
	})
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, false, got[0]["public"])
	assert.Equal(t, true, got[1]["current"])
	assert.Equal(t, "dial tcp: connection refused", got[2]["error"])
	assert.NotContains(t, got[0], "router")
}

func TestSessionRenderer_Operation(t *testing.T) {
	approve := models.NewWriteOperation(models.ApproveCall(common.HexToAddress(tokenAddr), big.NewInt(1000)))
	require.NoError(t, approve.Transition(models.OperationValidated))
	approve.DryRun = true

	op := models.NewWriteOperation(models.AddLiquidityCall(big.NewInt(1000), big.NewInt(7), big.NewInt(1_700_000_000)))
	require.NoError(t, op.Transition(models.OperationValidated))
	op.DryRun = true
	op.Effect = "add 1000 tokens and 7 wei of liquidity"
	op.Prerequisites = append(op.Prerequisites, approve)

	var out bytes.Buffer
	require.NoError(t, NewSessionRenderer(&out, false).RenderOperation(op, nil))
	text := out.String()
	assert.Contains(t, text, "  ↳ approve ● validated")
	assert.Contains(t, text, "addLiquidity ● validated")
	assert.Contains(t, text, "--confirm")

	out.Reset()
	require.NoError(t, NewSessionRenderer(&out, true).RenderOperation(op, nil))
	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "addLiquidity", got["method"])
	assert.Equal(t, "VALIDATED", got["state"])
	assert.Len(t, got["prerequisites"], 1)

	t.Run("nothing to do", func(t *testing.T) {
		noop := models.NewWriteOperation(models.EnableTradingCall())
		require.NoError(t, noop.Transition(models.OperationValidated))
		noop.NoOp = true
		noop.Effect = "trading is already enabled"

		var out bytes.Buffer
		require.NoError(t, NewSessionRenderer(&out, false).RenderOperation(noop, nil))
		assert.Contains(t, out.String(), "✓ nothing to do")
		assert.NotContains(t, out.String(), "--confirm")
	})
}
