package config

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Network is the selected network, nil if none was requested
	Network *Network

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool
	Timeout        time.Duration

	// Resolved project settings
	Project      *ProjectConfig
	Artifact     ArtifactConfig
	Sender       SenderConfig
	Confirmation ConfirmationPolicy
	Verification VerificationPolicy
	Routers      *RouterBook
}

// Network represents a resolved network
type Network struct {
	Name        string `json:"name"`
	ChainID     uint64 `json:"chainId"`
	RPCURL      string `json:"rpcUrl"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
	// VerifierURL is the explorer API endpoint, empty to let forge pick one by chain id
	VerifierURL    string         `json:"verifierUrl,omitempty"`
	ExplorerAPIKey string         `json:"-"`
	Public         bool           `json:"public"`
	Router         common.Address `json:"router,omitempty"`
}

// ArtifactConfig points at the compiled token contract
type ArtifactConfig struct {
	// Path is the compiler output JSON (Foundry or Hardhat layout)
	Path string
	// ContractPath is the "<source>:<name>" identifier used for verification
	ContractPath    string
	CompilerVersion string
}

// SenderConfig holds the deployer signing key
type SenderConfig struct {
	PrivateKey string
}

// ConfirmationPolicy controls how long and how often a submitted transaction is polled
type ConfirmationPolicy struct {
	Confirmations  uint64
	Timeout        time.Duration
	PollInitial    time.Duration
	PollMultiplier float64
	PollMax        time.Duration
}

// VerificationPolicy controls explorer source verification
type VerificationPolicy struct {
	Enabled     bool
	Delay       time.Duration
	Interval    time.Duration
	MaxAttempts int
}

// DefaultConfirmationPolicy returns 1 confirmation, 10m timeout and 2s/x1.5/30s polling
func DefaultConfirmationPolicy() ConfirmationPolicy {
	return ConfirmationPolicy{
		Confirmations:  1,
		Timeout:        10 * time.Minute,
		PollInitial:    2 * time.Second,
		PollMultiplier: 1.5,
		PollMax:        30 * time.Second,
	}
}

// DefaultVerificationPolicy returns the default verification settings
func DefaultVerificationPolicy() VerificationPolicy {
	return VerificationPolicy{
		Enabled:     true,
		Delay:       30 * time.Second,
		Interval:    15 * time.Second,
		MaxAttempts: 5,
	}
}
