// Package providers contains dependency injection providers for the LocalCircle server.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/localcircle/localcircle-server/internal/config"
	"github.com/localcircle/localcircle-server/internal/logger"
)

// Version is reported in the OpenAPI document. Set by main at build time.
var Version = "dev"

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig(os.Args[1:])
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting LocalCircle server",
		"version", Version,
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
	)

	return log, nil
}
