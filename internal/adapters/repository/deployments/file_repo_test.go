package deployments

import (
	"context"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
)

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func newRecord(t *testing.T, network, address, symbol string, at time.Time) *models.DeploymentRecord {
	t.Helper()
	cfg, err := models.NewDeploymentConfig(models.DeploymentParams{
		Name:                 symbol + " Token",
		Symbol:               symbol,
		TotalSupply:          tokens(1_000_000),
		TaxWallet:            common.HexToAddress("0xABCD000000000000000000000000000000000001"),
		Router:               common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
		BuyTaxBps:            300,
		SellTaxBps:           300,
		MaxTransactionAmount: tokens(10_000),
		MaxWalletAmount:      tokens(20_000),
		DailyTradingLimit:    tokens(20_000),
	})
	require.NoError(t, err)
	hash, err := cfg.Hash(network)
	require.NoError(t, err)

	return &models.DeploymentRecord{
		Network:            network,
		ChainID:            11155111,
		ContractAddress:    common.HexToAddress(address),
		Deployer:           common.HexToAddress("0xD000000000000000000000000000000000000001"),
		TransactionHash:    common.HexToHash("0xfeed"),
		BlockNumber:        42,
		DeploymentTime:     at,
		ConfigHash:         hash,
		Parameters:         cfg,
		VerificationStatus: models.VerificationStatusUnverified,
	}
}

func newRepo(t *testing.T) (*FileRepository, string) {
	t.Helper()
	dataDir := filepath.Join(t.TempDir(), ".rollout")
	repo, err := NewFileRepository(&config.RuntimeConfig{DataDir: dataDir})
	require.NoError(t, err)
	return repo, dataDir
}

func TestFileRepository_SaveAndGet(t *testing.T) {
	repo, dataDir := newRepo(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	record := newRecord(t, "sepolia", "0x1111111111111111111111111111111111111111", "MEME", at)

	require.NoError(t, repo.Save(ctx, record))

	path := filepath.Join(dataDir, "deployments", "sepolia", "0x1111111111111111111111111111111111111111.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "UNVERIFIED", raw["verificationStatus"])
	assert.Equal(t, "MEME", raw["parameters"].(map[string]any)["tokenSymbol"])

	got, err := repo.GetByAddress(ctx, "sepolia", record.ContractAddress)
	require.NoError(t, err)
	assert.Equal(t, record.ConfigHash, got.ConfigHash)
	assert.Equal(t, "MEME", got.Parameters.Symbol())
	assert.True(t, got.DeploymentTime.Equal(at))

	verified := got.WithVerification(models.VerificationStatusVerified, "", at.Add(time.Minute))
	require.NoError(t, repo.Save(ctx, verified))
	got, err = repo.GetByAddress(ctx, "sepolia", record.ContractAddress)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusVerified, got.VerificationStatus)
	require.NotNil(t, got.VerifiedAt)

	leftovers, err := filepath.Glob(filepath.Join(dataDir, "deployments", "sepolia", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	_, err = repo.GetByAddress(ctx, "mainnet", record.ContractAddress)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileRepository_FindByConfigHash(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	later := newRecord(t, "sepolia", "0x2222222222222222222222222222222222222222", "MEME", at.Add(time.Hour))
	earlier := newRecord(t, "sepolia", "0x1111111111111111111111111111111111111111", "MEME", at)
	other := newRecord(t, "mainnet", "0x3333333333333333333333333333333333333333", "MEME", at.Add(-time.Hour))
	for _, r := range []*models.DeploymentRecord{later, earlier, other} {
		require.NoError(t, repo.Save(ctx, r))
	}

	found, err := repo.FindByConfigHash(ctx, "sepolia", earlier.ConfigHash)
	require.NoError(t, err)
	assert.Equal(t, earlier.ContractAddress, found.ContractAddress)

	// the same parameters hash differently on another network
	_, err = repo.FindByConfigHash(ctx, "mainnet", earlier.ConfigHash)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileRepository_List(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	meme := newRecord(t, "sepolia", "0x1111111111111111111111111111111111111111", "MEME", at)
	pepe := newRecord(t, "sepolia", "0x2222222222222222222222222222222222222222", "PEPE", at)
	pepe = pepe.WithVerification(models.VerificationStatusVerified, "", at)
	local := newRecord(t, "anvil", "0x3333333333333333333333333333333333333333", "MEME", at)
	local.ChainID = 31337
	for _, r := range []*models.DeploymentRecord{meme, pepe, local} {
		require.NoError(t, repo.Save(ctx, r))
	}

	tests := []struct {
		name   string
		filter domain.DeploymentFilter
		want   int
	}{
		{name: "all", filter: domain.DeploymentFilter{}, want: 3},
		{name: "network", filter: domain.DeploymentFilter{Network: "sepolia"}, want: 2},
		{name: "chain id", filter: domain.DeploymentFilter{ChainID: 31337}, want: 1},
		{name: "symbol ignores case", filter: domain.DeploymentFilter{Symbol: "meme"}, want: 2},
		{name: "status", filter: domain.DeploymentFilter{Status: "verified"}, want: 1},
		{name: "unknown network", filter: domain.DeploymentFilter{Network: "base"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestFileRepository_CorruptRecord(t *testing.T) {
	repo, dataDir := newRepo(t)
	dir := filepath.Join(dataDir, "deployments", "sepolia")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0xbad.json"), []byte("{"), 0644))

	_, err := repo.List(context.Background(), domain.DeploymentFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt deployment record")
}

func TestFileRepository_Lock(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	unlock, err := repo.Lock(ctx, "sepolia-abc")
	require.NoError(t, err)

	t.Run("other keys are independent", func(t *testing.T) {
		other, err := repo.Lock(ctx, "sepolia-def")
		require.NoError(t, err)
		other()
	})

	t.Run("held key waits for ctx", func(t *testing.T) {
		waitCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
		defer cancel()
		_, err := repo.Lock(waitCtx, "sepolia-abc")
		assert.ErrorIs(t, err, domain.ErrCancelled)
	})

	var wg sync.WaitGroup
	acquired := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		again, err := repo.Lock(ctx, "sepolia-abc")
		if err == nil {
			close(acquired)
			again()
		}
	}()

	unlock()
	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("lock was not released")
	}
	wg.Wait()
}
