package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeploymentRecord_FileLayout(t *testing.T) {
	cfg, err := NewDeploymentConfig(memeParams())
	require.NoError(t, err)

	record := &DeploymentRecord{
		Network:            "testnet",
		ChainID:            11155111,
		ContractAddress:    common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		Deployer:           common.HexToAddress("0x00000000000000000000000000000000000000bb"),
		DeploymentTime:     time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
		Parameters:         cfg,
		VerificationStatus: VerificationStatusUnverified,
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"network", "contractAddress", "deployer", "deploymentTime", "parameters", "verificationStatus"} {
		assert.Contains(t, fields, key)
	}
	assert.Equal(t, "2026-10-15T12:00:00Z", fields["deploymentTime"])
	assert.Equal(t, "UNVERIFIED", fields["verificationStatus"])

	params := fields["parameters"].(map[string]any)
	assert.Equal(t, "10000000000000000000000000", params["maxTransactionAmount"])

	var decoded DeploymentRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, record.ID(), decoded.ID())
	assert.Equal(t, "MEME", decoded.Parameters.Symbol())
	assert.Equal(t, "testnet/0x00000000000000000000000000000000000000aa", decoded.ID())
}

func TestDeploymentRecord_WithVerification(t *testing.T) {
	record := &DeploymentRecord{Network: "testnet", VerificationStatus: VerificationStatusPending}
	now := time.Now()

	failed := record.WithVerification(VerificationStatusFailed, "bytecode mismatch", now)
	assert.Equal(t, VerificationStatusFailed, failed.VerificationStatus)
	assert.Equal(t, "bytecode mismatch", failed.VerificationReason)
	assert.Equal(t, VerificationStatusPending, record.VerificationStatus, "original is untouched")

	verified := failed.WithVerification(VerificationStatusVerified, "", now)
	require.NotNil(t, verified.VerifiedAt)
	assert.Empty(t, verified.VerificationReason)
}

func TestParseVerificationStatus(t *testing.T) {
	status, err := ParseVerificationStatus("verified")
	require.NoError(t, err)
	assert.Equal(t, VerificationStatusVerified, status)

	_, err = ParseVerificationStatus("partial")
	assert.Error(t, err)
}
