package store

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/id"
)

// GetFolder retrieves a folder by ID.
func (s *Store) GetFolder(ctx context.Context, folderID string) (*domain.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var f domain.Folder
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, folderKey(folderID), &f)
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrFolderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FoldersByOwner returns userID's folders, oldest first.
func (s *Store) FoldersByOwner(ctx context.Context, userID string) ([]*domain.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	folders := make([]*domain.Folder, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		for _, k := range scanKeys(txn, folderOwnerPrefix(userID)) {
			var f domain.Folder
			err := getJSON(txn, folderKey(lastSegment(k)), &f)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			folders = append(folders, &f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// SavedItemsByUser returns every saved record userID holds.
func (s *Store) SavedItemsByUser(ctx context.Context, userID string) ([]*domain.SavedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := savedUserPrefix(userID)
	items := make([]*domain.SavedItem, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		for _, k := range scanKeys(txn, prefix) {
			item, err := loadSavedFromUserKey(txn, userID, string(k[len(prefix):]))
			if err != nil {
				return err
			}
			if item != nil {
				items = append(items, item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FolderPosts returns the posts userID saved into folderID, most recently
// saved first. domain.AllItemsFolderID returns every saved post once.
// Saved records whose post has been deleted are skipped.
func (s *Store) FolderPosts(ctx context.Context, userID, folderID string) ([]*domain.Post, error) {
	items, err := s.SavedItemsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*domain.SavedItem)
	for _, item := range items {
		if folderID != domain.AllItemsFolderID && item.FolderID != folderID {
			continue
		}
		if cur, ok := latest[item.PostID]; !ok || item.SavedAt.After(cur.SavedAt) {
			latest[item.PostID] = item
		}
	}

	ordered := make([]*domain.SavedItem, 0, len(latest))
	for _, item := range latest {
		ordered = append(ordered, item)
	}
	sortSavedNewestFirst(ordered)

	posts := make([]*domain.Post, 0, len(ordered))
	err = s.db.View(func(txn *badger.Txn) error {
		for _, item := range ordered {
			p, err := loadPost(txn, item.PostID)
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

// loadSavedFromUserKey resolves the "{postID}:{folderID}" tail of a user
// index key to its saved record.
func loadSavedFromUserKey(txn *badger.Txn, userID, tail string) (*domain.SavedItem, error) {
	i := strings.LastIndexByte(tail, ':')
	if i <= 0 {
		return nil, nil
	}
	postID, folderID := tail[:i], tail[i+1:]
	var item domain.SavedItem
	err := getJSON(txn, savedKey(id.Compose(postID, userID, folderID)), &item)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func sortSavedNewestFirst(items []*domain.SavedItem) {
	slices.SortFunc(items, func(a, b *domain.SavedItem) int {
		if c := b.SavedAt.Compare(a.SavedAt); c != 0 {
			return c
		}
		return strings.Compare(a.PostID, b.PostID)
	})
}
