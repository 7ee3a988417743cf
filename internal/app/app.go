package app

import (
	"log/slog"

	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// App is the application container for a single deployment run
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Shared dependencies
	Log      *slog.Logger
	Progress usecase.ProgressSink

	// Use cases
	DeployContract *usecase.DeployContract
}

// NewApp creates a new application instance
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	progress usecase.ProgressSink,
	deployContract *usecase.DeployContract,
) *App {
	return &App{
		Config:         cfg,
		Log:            log,
		Progress:       progress,
		DeployContract: deployContract,
	}
}
