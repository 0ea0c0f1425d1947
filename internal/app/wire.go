//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/rollout/internal/adapters"
	"github.com/trebuchet-org/rollout/internal/config"
	"github.com/trebuchet-org/rollout/internal/logging"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		config.ProvideNetworkResolver,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewDeployToken,
		usecase.NewAttachSession,
		usecase.NewListDeployments,
		usecase.NewShowDeployment,
		usecase.NewListNetworks,
		usecase.NewVerifyDeployment,

		// App
		NewApp,
	)
	return nil, nil
}
