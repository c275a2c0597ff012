// Package main provides the entry point for the LocalCircle server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/localcircle/localcircle-server/internal/di"
	"github.com/localcircle/localcircle-server/internal/di/providers"
	"github.com/localcircle/localcircle-server/internal/logger"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	providers.Version = version

	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// Shutdown runs in reverse dependency order: the HTTP server drains
	// first, then the search index, store and SSE manager close.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	log.Info("Server stopped")
}
