//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-deploy/internal/adapters"
	"github.com/trebuchet-org/treb-deploy/internal/config"
	"github.com/trebuchet-org/treb-deploy/internal/logging"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, func(), error) {
	wire.Build(
		// Configuration
		config.Provider,

		// Logging
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewDeployContract,

		// App
		NewApp,
	)
	return nil, nil, nil
}
