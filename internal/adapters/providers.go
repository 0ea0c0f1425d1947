package adapters

import (
	"os"

	"github.com/google/wire"
	"github.com/trebuchet-org/rollout/internal/adapters/artifacts"
	"github.com/trebuchet-org/rollout/internal/adapters/blockchain"
	"github.com/trebuchet-org/rollout/internal/adapters/clock"
	internalconfig "github.com/trebuchet-org/rollout/internal/adapters/config"
	"github.com/trebuchet-org/rollout/internal/adapters/interactive"
	"github.com/trebuchet-org/rollout/internal/adapters/progress"
	"github.com/trebuchet-org/rollout/internal/adapters/repository/deployments"
	"github.com/trebuchet-org/rollout/internal/adapters/verification"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// ProvideProgressSink picks a spinner for terminals, plain lines when
// non-interactive and nothing for JSON output
func ProvideProgressSink(cfg *config.RuntimeConfig) usecase.ProgressSink {
	switch {
	case cfg.JSON:
		return progress.NewNopSink()
	case cfg.NonInteractive || cfg.Debug:
		return progress.NewLineSink(os.Stderr)
	default:
		return progress.NewSpinnerSink()
	}
}

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	deployments.NewFileRepository,
	wire.Bind(new(usecase.DeploymentRepository), new(*deployments.FileRepository)),

	artifacts.NewLoader,
	wire.Bind(new(usecase.ArtifactLoader), new(*artifacts.Loader)),
)

// BlockchainSet provides RPC-backed implementations
var BlockchainSet = wire.NewSet(
	blockchain.NewConnector,
	wire.Bind(new(usecase.ChainConnector), new(*blockchain.Connector)),

	clock.NewSystem,
	wire.Bind(new(usecase.Clock), new(clock.System)),
)

// VerificationSet provides explorer verification
var VerificationSet = wire.NewSet(
	verification.NewForgeVerifier,
	wire.Bind(new(usecase.SourceVerifier), new(*verification.ForgeVerifier)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.DeploymentSelector), new(*interactive.SelectorAdapter)),
	wire.Bind(new(usecase.Confirmer), new(*interactive.SelectorAdapter)),
	ProvideProgressSink,
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	internalconfig.NewNetworkResolverAdapter,
	wire.Bind(new(usecase.NetworkResolver), new(*internalconfig.NetworkResolverAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	BlockchainSet,
	VerificationSet,
	InteractiveSet,
	ConfigSet,
)
