package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/localcircle/localcircle-server/internal/domain"
)

// GetComment retrieves a comment by ID.
func (s *Store) GetComment(ctx context.Context, commentID string) (*domain.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var c domain.Comment
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, commentKey(commentID), &c)
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CommentsByPost returns a post's comments, roots and replies together,
// oldest first.
func (s *Store) CommentsByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	comments := make([]*domain.Comment, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		for _, k := range scanKeys(txn, commentPostPrefix(postID)) {
			var c domain.Comment
			err := getJSON(txn, commentKey(lastSegment(k)), &c)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			comments = append(comments, &c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}
