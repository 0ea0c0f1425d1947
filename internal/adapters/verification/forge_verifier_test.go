package verification

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
)

func request() *models.VerificationRequest {
	return &models.VerificationRequest{
		Network:         "sepolia",
		ChainID:         11155111,
		ExplorerAPIKey:  "KEY",
		Address:         common.HexToAddress("0x1111111111111111111111111111111111111111"),
		ContractPath:    "src/MemeToken.sol:MemeToken",
		CompilerVersion: "0.8.20",
		ConstructorArgs: []byte{0xab, 0xcd},
	}
}

func TestForgeVerifier_Args(t *testing.T) {
	var gotDir, gotName string
	var gotArgs []string
	v := NewForgeVerifier(&config.RuntimeConfig{ProjectRoot: "/project"}).WithRunner(
		func(_ context.Context, dir, name string, args ...string) ([]byte, error) {
			gotDir, gotName, gotArgs = dir, name, args
			return []byte("Submitted contract for verification:\nContract successfully verified\n"), nil
		})

	require.NoError(t, v.Verify(context.Background(), request()))
	assert.Equal(t, "/project", gotDir)
	assert.Equal(t, "forge", gotName)
	assert.Equal(t, []string{
		"verify-contract",
		"0x1111111111111111111111111111111111111111",
		"src/MemeToken.sol:MemeToken",
		"--chain-id", "11155111",
		"--watch",
		"--etherscan-api-key", "KEY",
		"--compiler-version", "0.8.20",
		"--constructor-args", "abcd",
	}, gotArgs)
	assert.Contains(t, v.Command(request()), "forge verify-contract 0x1111111111111111111111111111111111111111")
}

func TestForgeVerifier_Outcomes(t *testing.T) {
	exitErr := errors.New("exit status 1")

	tests := []struct {
		name          string
		output        string
		err           error
		wantErr       bool
		wantTransient bool
	}{
		{name: "verified", output: "Contract successfully verified"},
		{name: "already verified", output: "Contract source code already verified", err: exitErr},
		{name: "not indexed yet", output: "Error: Unable to locate ContractCode at 0x1111", err: exitErr, wantErr: true, wantTransient: true},
		{name: "rate limited", output: "Max rate limit reached", err: exitErr, wantErr: true, wantTransient: true},
		{name: "bytecode mismatch", output: "Error: Fail - Unable to verify. Compiled contract deployment bytecode does NOT match", err: exitErr, wantErr: true},
		{name: "unclear", output: "Submitted contract for verification", wantErr: true, wantTransient: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewForgeVerifier(&config.RuntimeConfig{}).WithRunner(
				func(context.Context, string, string, ...string) ([]byte, error) {
					return []byte(tt.output), tt.err
				})

			err := v.Verify(context.Background(), request())
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantTransient, errors.Is(err, domain.ErrTransient))
		})
	}
}

func TestForgeVerifier_MissingContractPath(t *testing.T) {
	req := request()
	req.ContractPath = ""
	called := false
	v := NewForgeVerifier(&config.RuntimeConfig{}).WithRunner(
		func(context.Context, string, string, ...string) ([]byte, error) {
			called = true
			return nil, nil
		})

	assert.Error(t, v.Verify(context.Background(), req))
	assert.False(t, called)
}
