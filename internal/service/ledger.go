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

// LedgerService applies social interactions: likes, comments, saves and
// deletions. Every operation is a single store batch, so a record, the
// counter that mirrors it and any alert it triggers are committed together
// or not at all. The existence check runs inside the same batch; two
// identical toggles racing each other make one of them fail with CONFLICT
// rather than both applying.
type LedgerService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(store *store.Store, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		logger: logger,
	}
}

// ToggleLike likes postID for actor, or removes the like if one exists.
// Returns whether the post is liked afterwards.
func (s *LedgerService) ToggleLike(ctx context.Context, actor domain.Actor, postID string) (bool, error) {
	var liked bool
	err := s.store.Batch(ctx, func(b *store.Batch) error {
		post, err := b.Post(postID)
		if err != nil {
			return err
		}
		has, err := b.HasLike(postID, actor.UserID)
		if err != nil {
			return err
		}

		if has {
			if err := b.DeleteLike(postID, actor.UserID); err != nil {
				return err
			}
			updated, err := b.AdjustPostCounters(postID, -1, 0)
			if err != nil {
				return err
			}
			liked = false
			b.Emit(sse.NewPostCountersEvent(updated))
			return nil
		}

		if err := b.PutLike(&domain.Like{CreatedAt: b.Now(), PostID: postID, UserID: actor.UserID}); err != nil {
			return err
		}
		updated, err := b.AdjustPostCounters(postID, 1, 0)
		if err != nil {
			return err
		}
		liked = true
		b.Emit(sse.NewPostCountersEvent(updated))

		if post.IsAuthor(actor.UserID) {
			return nil
		}
		if err := putAlert(b, &domain.Alert{
			Type:        domain.AlertLike,
			RecipientID: post.AuthorID,
			PostID:      post.ID,
			PostTitle:   post.Title,
		}, actor); err != nil {
			return err
		}
		if crossed, milestone := domain.CrossedLikeMilestone(post.Likes, updated.Likes); crossed {
			return putAlert(b, &domain.Alert{
				Type:           domain.AlertMilestone,
				RecipientID:    post.AuthorID,
				PostID:         post.ID,
				PostTitle:      post.Title,
				MilestoneValue: milestone,
			}, actor)
		}
		return nil
	})
	if err != nil {
		return false, writeError(err, "toggle like")
	}

	s.logger.Debug("post like toggled", "post_id", postID, "user_id", actor.UserID, "liked", liked)
	return liked, nil
}

// ToggleCommentLike likes or unlikes a comment. Comment likes never alert.
func (s *LedgerService) ToggleCommentLike(ctx context.Context, actor domain.Actor, commentID string) (bool, error) {
	var liked bool
	err := s.store.Batch(ctx, func(b *store.Batch) error {
		comment, err := b.Comment(commentID)
		if err != nil {
			return err
		}
		has, err := b.HasCommentLike(commentID, actor.UserID)
		if err != nil {
			return err
		}

		if has {
			if err := b.DeleteCommentLike(commentID, actor.UserID); err != nil {
				return err
			}
			_, err := b.AdjustCommentLikes(commentID, -1)
			return err
		}

		if err := b.PutCommentLike(&domain.CommentLike{
			CreatedAt: b.Now(),
			CommentID: commentID,
			PostID:    comment.PostID,
			UserID:    actor.UserID,
		}); err != nil {
			return err
		}
		liked = true
		_, err = b.AdjustCommentLikes(commentID, 1)
		return err
	})
	if err != nil {
		return false, writeError(err, "toggle comment like")
	}
	return liked, nil
}

// AddComment adds a root comment, or a reply when parentID is set. A reply's
// parent must be a root comment on the same post. The post author is alerted
// for a root comment and the parent's author for a reply, unless they are
// the actor.
func (s *LedgerService) AddComment(ctx context.Context, actor domain.Actor, postID, text, parentID string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.Validation("comment text is required")
	}
	if n := utf8.RuneCountInString(text); n > domain.MaxCommentRunes {
		return nil, errors.Validationf("comment is %d characters, limit is %d", n, domain.MaxCommentRunes)
	}

	commentID, err := id.Generate(id.PrefixComment)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate comment ID")
	}

	var comment *domain.Comment
	err = s.store.Batch(ctx, func(b *store.Batch) error {
		post, err := b.Post(postID)
		if err != nil {
			return err
		}

		recipient, alertType := post.AuthorID, domain.AlertComment
		if parentID != "" {
			parent, err := b.Comment(parentID)
			if errors.Is(err, store.ErrNotFound) {
				return errors.Validationf("parent comment %s does not exist", parentID)
			}
			if err != nil {
				return err
			}
			if !parent.IsRoot() || parent.PostID != postID {
				return errors.Validation("replies must target a root comment on the same post")
			}
			recipient, alertType = parent.AuthorID, domain.AlertReply
		}

		comment = &domain.Comment{
			CreatedAt:  b.Now(),
			ID:         commentID,
			PostID:     postID,
			AuthorID:   actor.UserID,
			AuthorName: actor.Name,
			Text:       text,
			ParentID:   parentID,
		}
		if err := b.PutComment(comment); err != nil {
			return err
		}
		updated, err := b.AdjustPostCounters(postID, 0, 1)
		if err != nil {
			return err
		}
		b.Emit(sse.NewCommentCreatedEvent(comment))
		b.Emit(sse.NewPostCountersEvent(updated))

		if recipient == actor.UserID {
			return nil
		}
		return putAlert(b, &domain.Alert{
			Type:        alertType,
			RecipientID: recipient,
			PostID:      post.ID,
			PostTitle:   post.Title,
			CommentID:   comment.ID,
		}, actor)
	})
	if err != nil {
		return nil, writeError(err, "add comment")
	}

	s.logger.Info("comment added",
		"comment_id", comment.ID,
		"post_id", postID,
		"author_id", actor.UserID,
		"reply", parentID != "",
	)
	return comment, nil
}

// ToggleSave files or unfiles postID in folderID. For the virtual All Items
// folder ("all" or empty) an existing save in any folder is removed
// everywhere; otherwise the post is saved into All Items. Returns whether the
// post is saved in the requested folder afterwards.
func (s *LedgerService) ToggleSave(ctx context.Context, userID, postID, folderID string) (bool, error) {
	if folderID == "" {
		folderID = domain.AllItemsFolderID
	}

	var saved, savedAnywhere bool
	err := s.store.Batch(ctx, func(b *store.Batch) error {
		items, err := b.SavedItems(postID, userID)
		if err != nil {
			return err
		}

		if folderID == domain.AllItemsFolderID && len(items) > 0 {
			for _, item := range items {
				if err := b.DeleteSavedItem(item); err != nil {
					return err
				}
			}
			saved, savedAnywhere = false, false
			b.Emit(sse.NewSavesChangedEvent(userID, postID, false))
			return nil
		}

		if folderID != domain.AllItemsFolderID {
			folder, err := b.Folder(folderID)
			if err != nil {
				return err
			}
			if !folder.IsOwnedBy(userID) {
				return errors.NotFound("folder not found")
			}
			has, err := b.HasSavedItem(postID, userID, folderID)
			if err != nil {
				return err
			}
			if has {
				if err := b.DeleteSavedItem(&domain.SavedItem{PostID: postID, UserID: userID, FolderID: folderID}); err != nil {
					return err
				}
				saved, savedAnywhere = false, len(items) > 1
				b.Emit(sse.NewSavesChangedEvent(userID, postID, savedAnywhere))
				return nil
			}
		}

		// Saving requires a live post; unsaving does not.
		if _, err := b.Post(postID); err != nil {
			return err
		}
		if err := b.PutSavedItem(&domain.SavedItem{
			SavedAt:  b.Now(),
			PostID:   postID,
			UserID:   userID,
			FolderID: folderID,
		}); err != nil {
			return err
		}
		saved, savedAnywhere = true, true
		b.Emit(sse.NewSavesChangedEvent(userID, postID, true))
		return nil
	})
	if err != nil {
		return false, writeError(err, "toggle save")
	}

	s.logger.Debug("save toggled", "post_id", postID, "user_id", userID, "folder_id", folderID, "saved", saved, "saved_anywhere", savedAnywhere)
	return saved, nil
}

// UnsaveAll removes every saved record userID holds for postID, in any
// folder, and returns how many were removed.
func (s *LedgerService) UnsaveAll(ctx context.Context, userID, postID string) (int, error) {
	removed := 0
	err := s.store.Batch(ctx, func(b *store.Batch) error {
		items, err := b.SavedItems(postID, userID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := b.DeleteSavedItem(item); err != nil {
				return err
			}
		}
		removed = len(items)
		if removed > 0 {
			b.Emit(sse.NewSavesChangedEvent(userID, postID, false))
		}
		return nil
	})
	if err != nil {
		return 0, writeError(err, "unsave")
	}
	return removed, nil
}

// DeleteFolder removes a folder and every saved item filed in it, in one
// batch. Only the owner may delete a folder. Returns the number of saved
// items removed with it.
func (s *LedgerService) DeleteFolder(ctx context.Context, userID, folderID string) (int, error) {
	if folderID == domain.AllItemsFolderID {
		return 0, errors.Validation("the All Items folder cannot be deleted")
	}

	removed := 0
	err := s.store.Batch(ctx, func(b *store.Batch) error {
		folder, err := b.Folder(folderID)
		if err != nil {
			return err
		}
		if !folder.IsOwnedBy(userID) {
			return errors.Forbidden("folder belongs to another user")
		}
		if removed, err = b.DeleteFolder(folder); err != nil {
			return err
		}
		b.Emit(sse.NewFolderDeletedEvent(folder, removed))
		return nil
	})
	if err != nil {
		return 0, writeError(err, "delete folder")
	}

	s.logger.Info("folder deleted", "folder_id", folderID, "owner_id", userID, "removed_saves", removed)
	return removed, nil
}

// DeletePost deletes postID when userID is its author. For anyone else, or
// for a post that no longer exists, it does nothing and reports false.
//
// This check is a courtesy for well-behaved clients. It trusts the userID it
// is given, so it only protects data when the caller's identity has been
// verified upstream.
func (s *LedgerService) DeletePost(ctx context.Context, userID, postID string) (bool, error) {
	deleted := false
	err := s.store.Batch(ctx, func(b *store.Batch) error {
		post, err := b.Post(postID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !post.IsAuthor(userID) {
			return nil
		}
		if err := b.DeletePost(post); err != nil {
			return err
		}
		deleted = true
		b.Emit(sse.NewPostDeletedEvent(postID))
		return nil
	})
	if err != nil {
		return false, writeError(err, "delete post")
	}

	if deleted {
		s.logger.Info("post deleted", "post_id", postID, "author_id", userID)
	} else {
		s.logger.Debug("post delete ignored", "post_id", postID, "user_id", userID)
	}
	return deleted, nil
}

// putAlert fills in the common alert fields and writes it in b. The caller
// has already excluded self-alerts.
func putAlert(b *store.Batch, a *domain.Alert, actor domain.Actor) error {
	alertID, err := id.Generate(id.PrefixAlert)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "generate alert ID")
	}
	a.ID = alertID
	a.CreatedAt = b.Now()
	a.TriggeredByID = actor.UserID
	a.TriggeredByName = actor.Name
	if err := b.PutAlert(a); err != nil {
		return err
	}
	b.Emit(sse.NewAlertCreatedEvent(a))
	return nil
}
