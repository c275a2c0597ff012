package service

import (
	"context"
	"log/slog"

	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/feed"
	"github.com/localcircle/localcircle-server/internal/location"
	"github.com/localcircle/localcircle-server/internal/store"
)

// FeedRequest describes one viewer's neighborhood feed.
type FeedRequest struct {
	ViewerID string
	Source   location.Source
	// RadiusMeters <= 0 uses the service default.
	RadiusMeters float64
	Query        string
}

// FeedService builds neighborhood feeds.
type FeedService struct {
	store         *store.Store
	searcher      *feed.Searcher
	globalLimit   int
	defaultRadius float64
	logger        *slog.Logger
}

// NewFeedService creates a new feed service.
func NewFeedService(store *store.Store, searcher *feed.Searcher, globalLimit int, defaultRadius float64, logger *slog.Logger) *FeedService {
	return &FeedService{
		store:         store,
		searcher:      searcher,
		globalLimit:   globalLimit,
		defaultRadius: defaultRadius,
		logger:        logger,
	}
}

// Nearby returns the posts around the viewer's current position, refreshed
// from the global recent feed, annotated and filtered. A position that cannot
// be obtained is reported as LOCATION_UNAVAILABLE, never as an empty feed.
func (s *FeedService) Nearby(ctx context.Context, req FeedRequest) ([]domain.FeedPost, error) {
	nearby, err := s.nearby(ctx, req)
	if err != nil {
		return nil, err
	}

	live, err := s.store.RecentPosts(ctx, s.globalLimit)
	if err != nil {
		return nil, readError(err, "recent posts")
	}

	var liked, saved domain.IDSet
	if req.ViewerID != "" {
		if liked, err = s.store.LikedPostIDs(ctx, req.ViewerID); err != nil {
			return nil, readError(err, "liked posts")
		}
		if saved, err = s.store.SavedPostIDs(ctx, req.ViewerID); err != nil {
			return nil, readError(err, "saved posts")
		}
	}

	return feed.Filter(feed.Reconcile(live, nearby, liked, saved), req.Query), nil
}

// Global returns the newest posts from everywhere, annotated for viewerID.
func (s *FeedService) Global(ctx context.Context, viewerID string) ([]domain.FeedPost, error) {
	posts, err := s.store.RecentPosts(ctx, s.globalLimit)
	if err != nil {
		return nil, readError(err, "recent posts")
	}
	return annotate(ctx, s.store, viewerID, posts)
}

// Stream runs a live feed session for req, sending a freshly rendered feed
// to out whenever the global recent feed, the viewer's likes or saves, or
// the query (from queries, which may be nil) change. The nearby set is
// searched once at the start. Stream blocks until ctx is done and does not
// close out.
func (s *FeedService) Stream(ctx context.Context, req FeedRequest, queries <-chan string, out chan<- []domain.FeedPost) error {
	nearby, err := s.nearby(ctx, req)
	if err != nil {
		return err
	}

	streams := feed.Streams{
		Live:  s.store.WatchRecentPosts(ctx, s.globalLimit),
		Query: queries,
	}
	if req.ViewerID != "" {
		streams.Liked = s.store.WatchLikedPostIDs(ctx, req.ViewerID)
		streams.Saved = s.store.WatchSavedPostIDs(ctx, req.ViewerID)
	}

	s.logger.Debug("feed session started", "user_id", req.ViewerID, "nearby", len(nearby))
	defer s.logger.Debug("feed session ended", "user_id", req.ViewerID)

	return feed.NewSession(nearby, req.Query).Run(ctx, streams, out)
}

func (s *FeedService) nearby(ctx context.Context, req FeedRequest) ([]*domain.Post, error) {
	center, err := location.Resolve(ctx, req.Source)
	if err != nil {
		return nil, err
	}

	radius := req.RadiusMeters
	if radius <= 0 {
		radius = s.defaultRadius
	}
	posts, err := s.searcher.FindNearby(ctx, center, radius)
	if err != nil {
		return nil, readError(err, "nearby posts")
	}
	return posts, nil
}
