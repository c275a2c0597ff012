package providers

import (
	"github.com/samber/do/v2"

	"github.com/localcircle/localcircle-server/internal/config"
	"github.com/localcircle/localcircle-server/internal/feed"
	"github.com/localcircle/localcircle-server/internal/logger"
	"github.com/localcircle/localcircle-server/internal/service"
	"github.com/localcircle/localcircle-server/internal/validation"
)

// ProvideFeedSearcher provides the geohash proximity searcher.
func ProvideFeedSearcher(i do.Injector) (*feed.Searcher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return feed.NewSearcher(storeHandle.Store, cfg.Feed.MaxRadiusMeters), nil
}

// ProvidePostService provides the post service.
func ProvidePostService(i do.Injector) (*service.PostService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPostService(storeHandle.Store, indexHandle.SearchIndex, validation.New(), log.Logger), nil
}

// ProvideFeedService provides the neighborhood feed service.
func ProvideFeedService(i do.Injector) (*service.FeedService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searcher := do.MustInvoke[*feed.Searcher](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFeedService(storeHandle.Store, searcher, cfg.Feed.GlobalLimit, cfg.Feed.DefaultRadiusMeters, log.Logger), nil
}

// ProvideLedgerService provides the social interaction ledger.
func ProvideLedgerService(i do.Injector) (*service.LedgerService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLedgerService(storeHandle.Store, log.Logger), nil
}

// ProvideCollectionService provides the save folder service.
func ProvideCollectionService(i do.Injector) (*service.CollectionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCollectionService(storeHandle.Store, log.Logger), nil
}

// ProvideCommentService provides the comment thread reader.
func ProvideCommentService(i do.Injector) (*service.CommentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCommentService(storeHandle.Store, log.Logger), nil
}

// ProvideAlertService provides the alert inbox service.
func ProvideAlertService(i do.Injector) (*service.AlertService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAlertService(storeHandle.Store, log.Logger), nil
}
