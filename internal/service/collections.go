package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/errors"
	"github.com/localcircle/localcircle-server/internal/id"
	"github.com/localcircle/localcircle-server/internal/sse"
	"github.com/localcircle/localcircle-server/internal/store"
)

// MaxFolderNameRunes bounds folder names.
const MaxFolderNameRunes = 40

// FolderSummary is a folder as listed to its owner.
type FolderSummary struct {
	*domain.Folder
	Virtual bool `json:"virtual,omitempty"`
}

// CollectionService manages a user's save folders. Filing posts into folders
// goes through LedgerService.ToggleSave.
type CollectionService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCollectionService creates a new collection service.
func NewCollectionService(store *store.Store, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		store:  store,
		logger: logger,
	}
}

// CreateFolder creates an empty folder owned by userID.
func (s *CollectionService) CreateFolder(ctx context.Context, userID, name string) (*domain.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("folder name is required")
	}
	if utf8.RuneCountInString(name) > MaxFolderNameRunes {
		return nil, errors.Validationf("folder name must not exceed %d characters", MaxFolderNameRunes)
	}

	folderID, err := id.Generate(id.PrefixFolder)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate folder ID")
	}

	folder := &domain.Folder{ID: folderID, OwnerID: userID, Name: name}
	err = s.store.Batch(ctx, func(b *store.Batch) error {
		folder.CreatedAt = b.Now()
		if err := b.PutFolder(folder); err != nil {
			return err
		}
		b.Emit(sse.NewFolderCreatedEvent(folder))
		return nil
	})
	if err != nil {
		return nil, writeError(err, "create folder")
	}

	s.logger.Info("folder created", "folder_id", folder.ID, "owner_id", userID)
	return folder, nil
}

// ListFolders returns the virtual All Items folder followed by userID's own
// folders, oldest first.
func (s *CollectionService) ListFolders(ctx context.Context, userID string) ([]FolderSummary, error) {
	folders, err := s.store.FoldersByOwner(ctx, userID)
	if err != nil {
		return nil, readError(err, "folders")
	}

	out := make([]FolderSummary, 0, len(folders)+1)
	out = append(out, FolderSummary{
		Folder:  &domain.Folder{ID: domain.AllItemsFolderID, OwnerID: userID, Name: "All Items"},
		Virtual: true,
	})
	for _, f := range folders {
		out = append(out, FolderSummary{Folder: f})
	}
	return out, nil
}

// FolderPosts returns the posts userID filed in folderID, most recently saved
// first. A folder owned by someone else reads as not found.
func (s *CollectionService) FolderPosts(ctx context.Context, userID, folderID string) ([]domain.FeedPost, error) {
	if folderID == "" {
		folderID = domain.AllItemsFolderID
	}
	if folderID != domain.AllItemsFolderID {
		folder, err := s.store.GetFolder(ctx, folderID)
		if err != nil {
			return nil, readError(err, "folder")
		}
		if !folder.IsOwnedBy(userID) {
			return nil, errors.NotFound("folder not found")
		}
	}

	posts, err := s.store.FolderPosts(ctx, userID, folderID)
	if err != nil {
		return nil, readError(err, "folder posts")
	}
	return annotate(ctx, s.store, userID, posts)
}
