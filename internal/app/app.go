package app

import (
	"log/slog"

	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Shared dependencies
	Selector usecase.DeploymentSelector
	Confirm  usecase.Confirmer
	Progress usecase.ProgressSink
	Log      *slog.Logger

	// Use cases
	DeployToken      *usecase.DeployToken
	AttachSession    *usecase.AttachSession
	ListDeployments  *usecase.ListDeployments
	ShowDeployment   *usecase.ShowDeployment
	ListNetworks     *usecase.ListNetworks
	VerifyDeployment *usecase.VerifyDeployment
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	selector usecase.DeploymentSelector,
	confirm usecase.Confirmer,
	sink usecase.ProgressSink,
	log *slog.Logger,
	deployToken *usecase.DeployToken,
	attachSession *usecase.AttachSession,
	listDeployments *usecase.ListDeployments,
	showDeployment *usecase.ShowDeployment,
	listNetworks *usecase.ListNetworks,
	verifyDeployment *usecase.VerifyDeployment,
) *App {
	return &App{
		Config:           cfg,
		Selector:         selector,
		Confirm:          confirm,
		Progress:         sink,
		Log:              log,
		DeployToken:      deployToken,
		AttachSession:    attachSession,
		ListDeployments:  listDeployments,
		ShowDeployment:   showDeployment,
		ListNetworks:     listNetworks,
		VerifyDeployment: verifyDeployment,
	}
}
