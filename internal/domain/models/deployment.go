package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// VerificationStatus represents the explorer verification status of a deployment
type VerificationStatus string

const (
	VerificationStatusUnverified VerificationStatus = "UNVERIFIED"
	VerificationStatusPending    VerificationStatus = "PENDING"
	VerificationStatusVerified   VerificationStatus = "VERIFIED"
	VerificationStatusFailed     VerificationStatus = "FAILED"
)

// ParseVerificationStatus parses a status name case-insensitively
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	switch status := VerificationStatus(strings.ToUpper(strings.TrimSpace(s))); status {
	case VerificationStatusUnverified, VerificationStatusPending, VerificationStatusVerified, VerificationStatusFailed:
		return status, nil
	default:
		return "", fmt.Errorf("unknown verification status %q", s)
	}
}

// DeploymentRecord is the durable record of one token deployment.
// After creation only the verification fields change.
type DeploymentRecord struct {
	Network         string            `json:"network"`
	ChainID         uint64            `json:"chainId"`
	ContractAddress common.Address    `json:"contractAddress"`
	Deployer        common.Address    `json:"deployer"`
	TransactionHash common.Hash       `json:"transactionHash"`
	BlockNumber     uint64            `json:"blockNumber,omitempty"`
	DeploymentTime  time.Time         `json:"deploymentTime"`
	ConfigHash      common.Hash       `json:"configHash"`
	Parameters      *DeploymentConfig `json:"parameters"`

	VerificationStatus VerificationStatus `json:"verificationStatus"`
	VerificationReason string             `json:"verificationReason,omitempty"`
	ExplorerURL        string             `json:"explorerUrl,omitempty"`
	VerifiedAt         *time.Time         `json:"verifiedAt,omitempty"`
}

// ID returns the storage key of the record: "<network>/<address>"
func (r *DeploymentRecord) ID() string {
	return RecordID(r.Network, r.ContractAddress)
}

// RecordID builds the storage key for a network and contract address
func RecordID(network string, address common.Address) string {
	return fmt.Sprintf("%s/%s", network, strings.ToLower(address.Hex()))
}

// Confirmed reports whether the creation transaction was seen included in a block
func (r *DeploymentRecord) Confirmed() bool {
	return r.BlockNumber > 0
}

// DisplayName returns "SYMBOL@network"
func (r *DeploymentRecord) DisplayName() string {
	if r.Parameters == nil {
		return r.ID()
	}
	return fmt.Sprintf("%s@%s", r.Parameters.Symbol(), r.Network)
}

// WithVerification returns a copy with updated verification fields
func (r *DeploymentRecord) WithVerification(status VerificationStatus, reason string, at time.Time) *DeploymentRecord {
	clone := *r
	clone.VerificationStatus = status
	clone.VerificationReason = reason
	if status == VerificationStatusVerified {
		verifiedAt := at.UTC()
		clone.VerifiedAt = &verifiedAt
		clone.VerificationReason = ""
	}
	return &clone
}

// VerificationRequest carries what an explorer needs to match deployed bytecode to source
type VerificationRequest struct {
	Network         string
	ChainID         uint64
	VerifierURL     string
	ExplorerAPIKey  string
	Address         common.Address
	ContractPath    string // e.g. "src/MemeToken.sol:MemeToken"
	CompilerVersion string
	// ConstructorArgs is the ABI encoding of the constructor arguments
	ConstructorArgs []byte
}
