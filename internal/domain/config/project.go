package config

// ProjectConfig is the raw rollout.toml file
type ProjectConfig struct {
	Artifact     ArtifactSection           `toml:"artifact"`
	Sender       SenderSection             `toml:"sender"`
	Confirmation ConfirmationSection       `toml:"confirmation"`
	Verification VerificationSection       `toml:"verification"`
	Networks     map[string]NetworkSection `toml:"networks"`

	// Routers is keyed by chain id ("56") or network name ("testnet")
	Routers map[string]string `toml:"routers"`
}

type ArtifactSection struct {
	Path            string `toml:"path"`
	Contract        string `toml:"contract"`
	CompilerVersion string `toml:"compiler_version"`
}

type SenderSection struct {
	PrivateKey string `toml:"private_key"`
}

type ConfirmationSection struct {
	Confirmations *uint64 `toml:"confirmations"`
	Timeout       string  `toml:"timeout"`
	PollInitial   string  `toml:"poll_initial"`
	PollMax       string  `toml:"poll_max"`
}

type VerificationSection struct {
	Enabled     *bool  `toml:"enabled"`
	Delay       string `toml:"delay"`
	Interval    string `toml:"interval"`
	MaxAttempts int    `toml:"max_attempts"`
}

// NetworkSection configures one named network
type NetworkSection struct {
	RPCURL         string `toml:"rpc_url"`
	ChainID        uint64 `toml:"chain_id"`
	ExplorerURL    string `toml:"explorer_url"`
	VerifierURL    string `toml:"verifier_url"`
	ExplorerAPIKey string `toml:"explorer_api_key"`
	// Public enables explorer verification; inferred when unset
	Public *bool  `toml:"public"`
	Router string `toml:"router"`
}
