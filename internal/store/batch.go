package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/id"
)

// Batch is one all-or-nothing unit of writes. Reads made through a Batch see
// its own pending writes and are covered by badger's conflict detection: if
// another commit changed a key this batch read, the whole batch is rejected
// with ErrWriteConflict.
type Batch struct {
	txn   *badger.Txn
	now   time.Time
	dirty [][]byte

	events    []any
	indexed   []*domain.Post
	unindexed []string
}

// Batch runs fn inside a single read-write transaction and commits it.
// Events queued with Emit are published, and search updates applied, only
// after a successful commit.
func (s *Store) Batch(ctx context.Context, fn func(b *Batch) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b *Batch
	err := s.db.Update(func(txn *badger.Txn) error {
		b = &Batch{txn: txn, now: time.Now()}
		return fn(b)
	})
	if err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return ErrWriteConflict.WithCause(err)
		}
		return err
	}

	s.debug("batch committed", "keys", len(b.dirty), "events", len(b.events))
	s.afterCommit(ctx, b)
	return nil
}

func (s *Store) afterCommit(ctx context.Context, b *Batch) {
	s.changes.publish(b.dirty)

	for _, p := range b.indexed {
		if err := s.searchIndexer.IndexPost(ctx, p); err != nil {
			s.warn("search index update failed", "post_id", p.ID, "error", err)
		}
	}
	for _, postID := range b.unindexed {
		if err := s.searchIndexer.DeletePost(ctx, postID); err != nil {
			s.warn("search index delete failed", "post_id", postID, "error", err)
		}
	}
	for _, ev := range b.events {
		s.eventEmitter.Emit(ev)
	}
}

// Now is the commit timestamp shared by every record the batch creates.
func (b *Batch) Now() time.Time { return b.now }

// Emit queues event for publication after commit.
func (b *Batch) Emit(event any) {
	b.events = append(b.events, event)
}

func (b *Batch) set(key []byte, value any) error {
	var data []byte
	if value != nil {
		var err error
		if data, err = json.Marshal(value); err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
	}
	if err := b.txn.Set(key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	b.dirty = append(b.dirty, key)
	return nil
}

func (b *Batch) delete(key []byte) error {
	if err := b.txn.Delete(key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	b.dirty = append(b.dirty, key)
	return nil
}

// Posts

// Post reads a post inside the batch.
func (b *Batch) Post(postID string) (*domain.Post, error) {
	var p domain.Post
	if err := getJSON(b.txn, postKey(postID), &p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &p, nil
}

// PutPost writes a new post with its geo, time and author indexes.
func (b *Batch) PutPost(p *domain.Post) error {
	if err := b.set(postKey(p.ID), p); err != nil {
		return err
	}
	if p.HasLocation() {
		if err := b.set(postGeoKey(p.Geohash, p.ID), nil); err != nil {
			return err
		}
	}
	if err := b.set(postTimeKey(p.CreatedAt, p.ID), nil); err != nil {
		return err
	}
	if err := b.set(postAuthorKey(p.AuthorID, p.CreatedAt, p.ID), nil); err != nil {
		return err
	}
	b.indexed = append(b.indexed, p)
	return nil
}

// DeletePost removes a post and its indexes. Likes, saves and comments that
// reference it are left behind; readers skip them.
func (b *Batch) DeletePost(p *domain.Post) error {
	keys := [][]byte{
		postKey(p.ID),
		postTimeKey(p.CreatedAt, p.ID),
		postAuthorKey(p.AuthorID, p.CreatedAt, p.ID),
	}
	if p.HasLocation() {
		keys = append(keys, postGeoKey(p.Geohash, p.ID))
	}
	for _, k := range keys {
		if err := b.delete(k); err != nil {
			return err
		}
	}
	b.unindexed = append(b.unindexed, p.ID)
	return nil
}

// AdjustPostCounters applies deltas to a post's like and comment counters
// and returns the updated post. Counters never drop below zero.
func (b *Batch) AdjustPostCounters(postID string, likesDelta, commentsDelta int) (*domain.Post, error) {
	p, err := b.Post(postID)
	if err != nil {
		return nil, err
	}
	p.Likes = max(0, p.Likes+likesDelta)
	p.Comments = max(0, p.Comments+commentsDelta)
	if err := b.set(postKey(p.ID), p); err != nil {
		return nil, err
	}
	return p, nil
}

// Post likes

// HasLike reports whether userID currently likes postID.
func (b *Batch) HasLike(postID, userID string) (bool, error) {
	return exists(b.txn, likeKey(id.Compose(postID, userID)))
}

// PutLike records a like. The record ID is always id.Compose(PostID, UserID).
func (b *Batch) PutLike(l *domain.Like) error {
	l.ID = id.Compose(l.PostID, l.UserID)
	if err := b.set(likeKey(l.ID), l); err != nil {
		return err
	}
	return b.set(likeUserKey(l.UserID, l.PostID), nil)
}

// DeleteLike removes the like record for (postID, userID).
func (b *Batch) DeleteLike(postID, userID string) error {
	if err := b.delete(likeKey(id.Compose(postID, userID))); err != nil {
		return err
	}
	return b.delete(likeUserKey(userID, postID))
}

// Comment likes

// HasCommentLike reports whether userID currently likes commentID.
func (b *Batch) HasCommentLike(commentID, userID string) (bool, error) {
	return exists(b.txn, commentLikeKey(id.Compose(commentID, userID)))
}

// PutCommentLike records a comment like.
func (b *Batch) PutCommentLike(l *domain.CommentLike) error {
	l.ID = id.Compose(l.CommentID, l.UserID)
	if err := b.set(commentLikeKey(l.ID), l); err != nil {
		return err
	}
	return b.set(commentLikeUserKey(l.UserID, l.CommentID), nil)
}

// DeleteCommentLike removes the like record for (commentID, userID).
func (b *Batch) DeleteCommentLike(commentID, userID string) error {
	if err := b.delete(commentLikeKey(id.Compose(commentID, userID))); err != nil {
		return err
	}
	return b.delete(commentLikeUserKey(userID, commentID))
}

// Comments

// Comment reads a comment inside the batch.
func (b *Batch) Comment(commentID string) (*domain.Comment, error) {
	var c domain.Comment
	if err := getJSON(b.txn, commentKey(commentID), &c); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &c, nil
}

// PutComment writes a comment and its per-post index entry. Rewriting the
// index entry on every update lets post-scoped watchers see counter changes.
func (b *Batch) PutComment(c *domain.Comment) error {
	if err := b.set(commentKey(c.ID), c); err != nil {
		return err
	}
	return b.set(commentPostKey(c.PostID, c.CreatedAt, c.ID), nil)
}

// AdjustCommentLikes applies delta to a comment's like counter.
func (b *Batch) AdjustCommentLikes(commentID string, delta int) (*domain.Comment, error) {
	c, err := b.Comment(commentID)
	if err != nil {
		return nil, err
	}
	c.LikesCount = max(0, c.LikesCount+delta)
	if err := b.PutComment(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Folders and saved items

// Folder reads a folder inside the batch.
func (b *Batch) Folder(folderID string) (*domain.Folder, error) {
	var f domain.Folder
	if err := getJSON(b.txn, folderKey(folderID), &f); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrFolderNotFound
		}
		return nil, err
	}
	return &f, nil
}

// PutFolder writes a folder and its owner index entry.
func (b *Batch) PutFolder(f *domain.Folder) error {
	if err := b.set(folderKey(f.ID), f); err != nil {
		return err
	}
	return b.set(folderOwnerKey(f.OwnerID, f.CreatedAt, f.ID), nil)
}

// DeleteFolder removes a folder and every saved item filed in it. Returns
// the number of saved items removed.
func (b *Batch) DeleteFolder(f *domain.Folder) (int, error) {
	removed := 0
	for _, k := range scanKeys(b.txn, savedFolderPrefix(f.ID)) {
		var item domain.SavedItem
		err := getJSON(b.txn, savedKey(lastSegment(k)), &item)
		if errors.Is(err, ErrNotFound) {
			if err := b.delete(k); err != nil {
				return removed, err
			}
			continue
		}
		if err != nil {
			return removed, err
		}
		if err := b.DeleteSavedItem(&item); err != nil {
			return removed, err
		}
		removed++
	}

	if err := b.delete(folderKey(f.ID)); err != nil {
		return removed, err
	}
	if err := b.delete(folderOwnerKey(f.OwnerID, f.CreatedAt, f.ID)); err != nil {
		return removed, err
	}
	return removed, nil
}

// SavedItems returns every saved record userID holds for postID, across all
// folders.
func (b *Batch) SavedItems(postID, userID string) ([]*domain.SavedItem, error) {
	var items []*domain.SavedItem
	for _, k := range scanKeys(b.txn, savedUserPostPrefix(userID, postID)) {
		folderID := lastSegment(k)
		var item domain.SavedItem
		err := getJSON(b.txn, savedKey(id.Compose(postID, userID, folderID)), &item)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, nil
}

// HasSavedItem reports whether postID is saved into folderID by userID.
func (b *Batch) HasSavedItem(postID, userID, folderID string) (bool, error) {
	return exists(b.txn, savedKey(id.Compose(postID, userID, folderID)))
}

// PutSavedItem files a post into a folder.
func (b *Batch) PutSavedItem(item *domain.SavedItem) error {
	item.ID = id.Compose(item.PostID, item.UserID, item.FolderID)
	if err := b.set(savedKey(item.ID), item); err != nil {
		return err
	}
	if err := b.set(savedUserKey(item.UserID, item.PostID, item.FolderID), nil); err != nil {
		return err
	}
	return b.set(savedFolderKey(item.FolderID, item.ID), nil)
}

// DeleteSavedItem removes one saved record and its indexes.
func (b *Batch) DeleteSavedItem(item *domain.SavedItem) error {
	savedID := id.Compose(item.PostID, item.UserID, item.FolderID)
	for _, k := range [][]byte{
		savedKey(savedID),
		savedUserKey(item.UserID, item.PostID, item.FolderID),
		savedFolderKey(item.FolderID, savedID),
	} {
		if err := b.delete(k); err != nil {
			return err
		}
	}
	return nil
}

// Alerts

// PutAlert writes an alert and its recipient index entry.
func (b *Batch) PutAlert(a *domain.Alert) error {
	if err := b.set(alertKey(a.ID), a); err != nil {
		return err
	}
	return b.set(alertRecipientKey(a.RecipientID, a.CreatedAt, a.ID), nil)
}

// MarkAlertsRead flags every unread alert for recipientID as read and
// returns how many changed.
func (b *Batch) MarkAlertsRead(recipientID string) (int, error) {
	changed := 0
	for _, k := range scanKeys(b.txn, alertRecipientPrefix(recipientID)) {
		var a domain.Alert
		err := getJSON(b.txn, alertKey(lastSegment(k)), &a)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return changed, err
		}
		if a.IsRead {
			continue
		}
		a.IsRead = true
		if err := b.PutAlert(&a); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}
