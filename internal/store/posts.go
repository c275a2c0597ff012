package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/localcircle/localcircle-server/internal/domain"
)

// CreatePost stores a new post. The post must already carry its derived
// geohash (see domain.Post.SetLocation). A zero CreatedAt is set to the
// commit time.
func (s *Store) CreatePost(ctx context.Context, p *domain.Post) error {
	return s.Batch(ctx, func(b *Batch) error {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = b.Now()
		}
		if _, err := b.Post(p.ID); err == nil {
			return ErrAlreadyExists.WithMessage("post " + p.ID + " already exists")
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		return b.PutPost(p)
	})
}

// GetPost retrieves a post by ID.
func (s *Store) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p domain.Post
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, postKey(postID), &p)
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PostsInGeohashRange returns posts whose geohash lies in [start, end],
// ordered by geohash ascending. It relies on every indexed geohash having the
// same length so that key order matches geohash order.
func (s *Store) PostsInGeohashRange(ctx context.Context, start, end string) ([]*domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var posts []*domain.Post
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(postIdxGeoPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(postIdxGeoPrefix + start)); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			rest := string(it.Item().Key()[len(postIdxGeoPrefix):])
			hash, postID, ok := strings.Cut(rest, ":")
			if !ok {
				continue
			}
			if hash > end {
				break
			}
			if hash < start {
				continue
			}

			p, err := loadPost(txn, postID)
			if err != nil {
				return err
			}
			if p != nil {
				posts = append(posts, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("geohash range [%s,%s]: %w", start, end, err)
	}
	return posts, nil
}

// RecentPosts returns the newest limit posts, newest first.
func (s *Store) RecentPosts(ctx context.Context, limit int) ([]*domain.Post, error) {
	return s.postsFromIndex(ctx, postIdxTimePrefix, limit)
}

// PostsByAuthor returns up to limit of authorID's posts, newest first.
// A limit <= 0 returns all of them.
func (s *Store) PostsByAuthor(ctx context.Context, authorID string, limit int) ([]*domain.Post, error) {
	return s.postsFromIndex(ctx, postAuthorPrefix(authorID), limit)
}

// AllPosts iterates every stored post in ID order. Used to rebuild the
// search index.
func (s *Store) AllPosts(ctx context.Context) iter.Seq2[*domain.Post, error] {
	return func(yield func(*domain.Post, error) bool) {
		_ = s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(postPrefix)

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return err
				}
				if strings.HasPrefix(string(it.Item().Key()[len(postPrefix):]), "idx:") {
					continue
				}

				var p domain.Post
				if err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &p)
				}); err != nil {
					yield(nil, err)
					return err
				}
				if !yield(&p, nil) {
					return nil
				}
			}
			return nil
		})
	}
}

// postsFromIndex walks an index whose keys end in a post ID and loads the
// referenced posts in key order, skipping index entries whose post is gone.
func (s *Store) postsFromIndex(ctx context.Context, prefix string, limit int) ([]*domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	posts := make([]*domain.Post, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if limit > 0 && len(posts) >= limit {
				break
			}
			p, err := loadPost(txn, lastSegment(it.Item().Key()))
			if err != nil {
				return err
			}
			if p != nil {
				posts = append(posts, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// loadPost returns nil without error when the post no longer exists.
func loadPost(txn *badger.Txn, postID string) (*domain.Post, error) {
	var p domain.Post
	err := getJSON(txn, postKey(postID), &p)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
