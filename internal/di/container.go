// Package di provides dependency injection configuration for the LocalCircle server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/localcircle/localcircle-server/internal/auth"
	"github.com/localcircle/localcircle-server/internal/config"
	"github.com/localcircle/localcircle-server/internal/di/providers"
	"github.com/localcircle/localcircle-server/internal/feed"
	"github.com/localcircle/localcircle-server/internal/logger"
	"github.com/localcircle/localcircle-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideTokenService)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Business services
	do.Provide(injector, providers.ProvideFeedSearcher)
	do.Provide(injector, providers.ProvidePostService)
	do.Provide(injector, providers.ProvideFeedService)
	do.Provide(injector, providers.ProvideLedgerService)
	do.Provide(injector, providers.ProvideCollectionService)
	do.Provide(injector, providers.ProvideCommentService)
	do.Provide(injector, providers.ProvideAlertService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)

	_ = do.MustInvoke[*feed.Searcher](injector)
	_ = do.MustInvoke[*service.PostService](injector)
	_ = do.MustInvoke[*service.FeedService](injector)
	_ = do.MustInvoke[*service.LedgerService](injector)
	_ = do.MustInvoke[*service.CollectionService](injector)
	_ = do.MustInvoke[*service.CommentService](injector)
	_ = do.MustInvoke[*service.AlertService](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
