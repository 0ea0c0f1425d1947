package usecase

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
)

// ChainConnector opens a client for a resolved network
type ChainConnector interface {
	Connect(ctx context.Context, network *config.Network) (ChainClient, error)
}

// ChainClient is the RPC surface the use cases need, bound to one network and sender
type ChainClient interface {
	ChainID() uint64
	// Sender is the address transactions are signed for
	Sender() common.Address
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address) ([]byte, error)
	BlockNumber(ctx context.Context) (uint64, error)
	// TransactionReceipt returns domain.ErrNotFound while the transaction is pending
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	// DeployContract signs and sends a creation transaction carrying code
	DeployContract(ctx context.Context, code []byte) (common.Address, common.Hash, error)
	Token(address common.Address) (TokenContract, error)
	Close()
}

// TokenContract binds the token's external entry points
type TokenContract interface {
	Address() common.Address

	Name(ctx context.Context) (string, error)
	Symbol(ctx context.Context) (string, error)
	Decimals(ctx context.Context) (uint8, error)
	TotalSupply(ctx context.Context) (*big.Int, error)
	Owner(ctx context.Context) (common.Address, error)
	TaxWallet(ctx context.Context) (common.Address, error)
	BuyTaxRate(ctx context.Context) (uint64, error)
	SellTaxRate(ctx context.Context) (uint64, error)
	TradingEnabled(ctx context.Context) (bool, error)
	LimitsEnabled(ctx context.Context) (bool, error)
	MaxTransactionAmount(ctx context.Context) (*big.Int, error)
	MaxWalletAmount(ctx context.Context) (*big.Int, error)
	DailyTradingLimit(ctx context.Context) (*big.Int, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	IsExcludedFromTax(ctx context.Context, account common.Address) (bool, error)
	IsExcludedFromLimits(ctx context.Context, account common.Address) (bool, error)

	// EstimateGas simulates the call from the sender; access control
	// reverts come back as domain.ErrUnauthorized
	EstimateGas(ctx context.Context, call models.TokenCall) (uint64, error)
	// Send signs and submits the call
	Send(ctx context.Context, call models.TokenCall) (common.Hash, error)
}

// DeploymentRepository persists deployment records
type DeploymentRepository interface {
	FindByConfigHash(ctx context.Context, network string, hash common.Hash) (*models.DeploymentRecord, error)
	GetByAddress(ctx context.Context, network string, address common.Address) (*models.DeploymentRecord, error)
	List(ctx context.Context, filter domain.DeploymentFilter) ([]*models.DeploymentRecord, error)
	Save(ctx context.Context, record *models.DeploymentRecord) error
	// Lock takes an exclusive cross-process lock on key until the returned func is called
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// SourceVerifier submits source code to a block explorer.
// Failures worth retrying wrap domain.ErrTransient.
type SourceVerifier interface {
	Verify(ctx context.Context, req *models.VerificationRequest) error
}

// ArtifactLoader reads compiled contract output
type ArtifactLoader interface {
	Load(ctx context.Context, path string) (*models.Artifact, error)
}

// NetworkResolver handles network configuration resolution
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, networkName string) (*config.Network, error)
}

// DeploymentSelector handles interactive selection of deployments
type DeploymentSelector interface {
	SelectDeployment(ctx context.Context, records []*models.DeploymentRecord, prompt string) (*models.DeploymentRecord, error)
}

// Confirmer asks the operator a yes/no question
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Clock abstracts time so waits can be tested without sleeping
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in that case
	Sleep(ctx context.Context, d time.Duration) error
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata any
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
