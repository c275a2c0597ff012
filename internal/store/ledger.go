package store

import (
	"context"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/localcircle/localcircle-server/internal/domain"
)

// LikedPostIDs returns the IDs of every post userID likes.
func (s *Store) LikedPostIDs(ctx context.Context, userID string) (domain.IDSet, error) {
	return s.idSet(ctx, likeUserPrefix(userID))
}

// LikedCommentIDs returns the IDs of every comment userID likes.
func (s *Store) LikedCommentIDs(ctx context.Context, userID string) (domain.IDSet, error) {
	return s.idSet(ctx, commentLikeUserPrefix(userID))
}

// SavedPostIDs returns the IDs of every post userID has saved in any folder.
func (s *Store) SavedPostIDs(ctx context.Context, userID string) (domain.IDSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := savedUserPrefix(userID)
	set := domain.IDSet{}
	err := s.db.View(func(txn *badger.Txn) error {
		for _, k := range scanKeys(txn, prefix) {
			// {postID}:{folderID}
			rest := string(k[len(prefix):])
			if i := strings.LastIndexByte(rest, ':'); i > 0 {
				set[rest[:i]] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// GetLike returns the like record for (postID, userID), or ErrNotFound.
func (s *Store) GetLike(ctx context.Context, likeID string) (*domain.Like, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var l domain.Like
	if err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, likeKey(likeID), &l)
	}); err != nil {
		return nil, err
	}
	return &l, nil
}

// idSet collects the final key segment of every key under prefix.
func (s *Store) idSet(ctx context.Context, prefix string) (domain.IDSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	set := domain.IDSet{}
	err := s.db.View(func(txn *badger.Txn) error {
		for _, k := range scanKeys(txn, prefix) {
			set[lastSegment(k)] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}
