package service

import (
	"context"
	"log/slog"

	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/store"
)

// CommentThreads is a post's discussion as shown to one viewer.
type CommentThreads struct {
	Threads []domain.Thread `json:"threads"`
	// LikedCommentIDs lists the comments in Threads the viewer likes.
	LikedCommentIDs []string `json:"liked_comment_ids"`
}

// CommentService reads comment threads. Comments are written through
// LedgerService.AddComment.
type CommentService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(store *store.Store, logger *slog.Logger) *CommentService {
	return &CommentService{
		store:  store,
		logger: logger,
	}
}

// List returns a post's comments, oldest first.
func (s *CommentService) List(ctx context.Context, postID string) ([]*domain.Comment, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, readError(err, "post")
	}
	comments, err := s.store.CommentsByPost(ctx, postID)
	if err != nil {
		return nil, readError(err, "comments")
	}
	return comments, nil
}

// Threads groups a post's comments into two-level threads and reports which
// of them viewerID likes.
func (s *CommentService) Threads(ctx context.Context, viewerID, postID string) (*CommentThreads, error) {
	comments, err := s.List(ctx, postID)
	if err != nil {
		return nil, err
	}

	result := &CommentThreads{
		Threads:         domain.BuildThreads(comments),
		LikedCommentIDs: []string{},
	}
	if viewerID == "" {
		return result, nil
	}

	liked, err := s.store.LikedCommentIDs(ctx, viewerID)
	if err != nil {
		return nil, readError(err, "liked comments")
	}
	for _, c := range comments {
		if liked.Has(c.ID) {
			result.LikedCommentIDs = append(result.LikedCommentIDs, c.ID)
		}
	}
	return result, nil
}
