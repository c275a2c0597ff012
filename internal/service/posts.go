package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/errors"
	"github.com/localcircle/localcircle-server/internal/feed"
	"github.com/localcircle/localcircle-server/internal/id"
	"github.com/localcircle/localcircle-server/internal/location"
	"github.com/localcircle/localcircle-server/internal/search"
	"github.com/localcircle/localcircle-server/internal/sse"
	"github.com/localcircle/localcircle-server/internal/store"
	"github.com/localcircle/localcircle-server/internal/validation"
)

// PostSearcher runs full-text queries over posts.
type PostSearcher interface {
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
}

// CreatePostInput is the author-supplied part of a new post.
type CreatePostInput struct {
	Title    string          `json:"title" validate:"notblank,max=80"`
	Body     string          `json:"body" validate:"notblank,max=280"`
	Category domain.Category `json:"category" validate:"category"`
}

// PostService handles post creation and post reads.
type PostService struct {
	store     *store.Store
	searcher  PostSearcher
	validator *validation.Validator
	logger    *slog.Logger
}

// NewPostService creates a new post service. searcher may be nil, in which
// case Search reports an internal error.
func NewPostService(store *store.Store, searcher PostSearcher, validator *validation.Validator, logger *slog.Logger) *PostService {
	return &PostService{
		store:     store,
		searcher:  searcher,
		validator: validator,
		logger:    logger,
	}
}

// Create publishes a post at the author's current position. A post cannot
// be created without a location; the geohash is derived from it here and is
// never taken from the client.
func (s *PostService) Create(ctx context.Context, actor domain.Actor, input CreatePostInput, src location.Source) (*domain.Post, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Body = strings.TrimSpace(input.Body)
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	at, err := location.Resolve(ctx, src)
	if err != nil {
		return nil, err
	}

	postID, err := id.Generate(id.PrefixPost)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate post ID")
	}

	post := &domain.Post{
		ID:         postID,
		AuthorID:   actor.UserID,
		AuthorName: actor.Name,
		Title:      input.Title,
		Body:       input.Body,
		Category:   input.Category,
		Locality:   actor.Locality,
	}
	post.SetLocation(at)

	err = s.store.Batch(ctx, func(b *store.Batch) error {
		post.CreatedAt = b.Now()
		if err := b.PutPost(post); err != nil {
			return err
		}
		b.Emit(sse.NewPostCreatedEvent(post))
		return nil
	})
	if err != nil {
		return nil, writeError(err, "create post")
	}

	s.logger.Info("post created",
		"post_id", post.ID,
		"author_id", actor.UserID,
		"category", post.Category,
		"geohash", post.Geohash,
	)
	return post, nil
}

// Get returns one post annotated for viewerID.
func (s *PostService) Get(ctx context.Context, viewerID, postID string) (domain.FeedPost, error) {
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return domain.FeedPost{}, readError(err, "post")
	}
	annotated, err := annotate(ctx, s.store, viewerID, []*domain.Post{p})
	if err != nil {
		return domain.FeedPost{}, err
	}
	return annotated[0], nil
}

// Recent returns the newest limit posts from everywhere, annotated for
// viewerID.
func (s *PostService) Recent(ctx context.Context, viewerID string, limit int) ([]domain.FeedPost, error) {
	posts, err := s.store.RecentPosts(ctx, limit)
	if err != nil {
		return nil, readError(err, "recent posts")
	}
	return annotate(ctx, s.store, viewerID, posts)
}

// ByAuthor returns authorID's posts, newest first, annotated for viewerID.
func (s *PostService) ByAuthor(ctx context.Context, viewerID, authorID string, limit int) ([]domain.FeedPost, error) {
	posts, err := s.store.PostsByAuthor(ctx, authorID, limit)
	if err != nil {
		return nil, readError(err, "author posts")
	}
	return annotate(ctx, s.store, viewerID, posts)
}

// SearchResult pairs the index response with the matching posts as they are
// stored now.
type SearchResult struct {
	*search.SearchResult
	Posts []domain.FeedPost `json:"posts"`
}

// Search runs a full-text query and loads the hits from the store in hit
// order. The index holds no counters, so every post is read fresh; hits whose
// post has since been deleted are dropped.
func (s *PostService) Search(ctx context.Context, viewerID string, params search.SearchParams) (*SearchResult, error) {
	if s.searcher == nil {
		return nil, errors.Internal("search is not configured")
	}

	res, err := s.searcher.Search(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "search posts")
	}

	posts := make([]*domain.Post, 0, len(res.Hits))
	for _, postID := range res.IDs() {
		p, err := s.store.GetPost(ctx, postID)
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("search hit without post", "post_id", postID)
			continue
		}
		if err != nil {
			return nil, readError(err, "post")
		}
		posts = append(posts, p)
	}

	annotated, err := annotate(ctx, s.store, viewerID, posts)
	if err != nil {
		return nil, err
	}
	return &SearchResult{SearchResult: res, Posts: annotated}, nil
}

// annotate marks posts with viewerID's like and save state. An anonymous
// viewer gets every flag false.
func annotate(ctx context.Context, st *store.Store, viewerID string, posts []*domain.Post) ([]domain.FeedPost, error) {
	var liked, saved domain.IDSet
	if viewerID != "" {
		var err error
		if liked, err = st.LikedPostIDs(ctx, viewerID); err != nil {
			return nil, readError(err, "liked posts")
		}
		if saved, err = st.SavedPostIDs(ctx, viewerID); err != nil {
			return nil, readError(err, "saved posts")
		}
	}
	return feed.Reconcile(nil, posts, liked, saved), nil
}
