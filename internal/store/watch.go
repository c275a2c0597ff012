package store

import (
	"bytes"
	"context"
	"sync"

	"github.com/localcircle/localcircle-server/internal/domain"
)

// changeHub fans committed key changes out to prefix subscribers. A
// subscriber is registered before its first snapshot is read, so no commit
// can slip between the snapshot and the subscription.
type changeHub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscriber
	closed bool
}

type subscriber struct {
	prefixes [][]byte
	notify   chan struct{}
}

func newChangeHub() *changeHub {
	return &changeHub{subs: make(map[uint64]*subscriber)}
}

// subscribe registers interest in prefixes. The returned channel receives a
// signal (coalesced, never blocking the publisher) after any matching commit
// and is closed when the hub shuts down.
func (h *changeHub) subscribe(prefixes []string) (<-chan struct{}, func()) {
	sub := &subscriber{notify: make(chan struct{}, 1)}
	for _, p := range prefixes {
		sub.prefixes = append(sub.prefixes, []byte(p))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.notify)
		return sub.notify, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = sub

	return sub.notify, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if s, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(s.notify)
		}
	}
}

func (h *changeHub) publish(keys [][]byte) {
	if len(keys) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if !sub.matches(keys) {
			continue
		}
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}

func (h *changeHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, sub := range h.subs {
		close(sub.notify)
		delete(h.subs, id)
	}
}

func (s *subscriber) matches(keys [][]byte) bool {
	for _, k := range keys {
		for _, p := range s.prefixes {
			if bytes.HasPrefix(k, p) {
				return true
			}
		}
	}
	return false
}

// watch delivers load's result now and again after every commit touching
// prefixes, until ctx is done. Deliveries on one stream are in commit order;
// a reader that falls behind sees only the newest snapshot. The channel is
// closed when ctx ends or the store closes.
func watch[T any](ctx context.Context, s *Store, prefixes []string, load func(context.Context) (T, error)) <-chan T {
	out := make(chan T, 1)
	notify, unsubscribe := s.changes.subscribe(prefixes)

	deliver := func() {
		v, err := load(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.warn("watch reload failed", "prefixes", prefixes, "error", err)
			}
			return
		}
		// Replace an undelivered, older snapshot.
		select {
		case <-out:
		default:
		}
		out <- v
	}

	go func() {
		defer close(out)
		defer unsubscribe()

		deliver()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-notify:
				if !ok {
					return
				}
				deliver()
			}
		}
	}()

	return out
}

// WatchRecentPosts streams the global feed: the newest limit posts, with
// current counters, re-delivered after every post write.
func (s *Store) WatchRecentPosts(ctx context.Context, limit int) <-chan []*domain.Post {
	return watch(ctx, s, []string{postPrefix}, func(ctx context.Context) ([]*domain.Post, error) {
		return s.RecentPosts(ctx, limit)
	})
}

// WatchLikedPostIDs streams the set of posts userID likes.
func (s *Store) WatchLikedPostIDs(ctx context.Context, userID string) <-chan domain.IDSet {
	return watch(ctx, s, []string{likeUserPrefix(userID)}, func(ctx context.Context) (domain.IDSet, error) {
		return s.LikedPostIDs(ctx, userID)
	})
}

// WatchSavedPostIDs streams the set of posts userID has saved anywhere.
func (s *Store) WatchSavedPostIDs(ctx context.Context, userID string) <-chan domain.IDSet {
	return watch(ctx, s, []string{savedUserPrefix(userID)}, func(ctx context.Context) (domain.IDSet, error) {
		return s.SavedPostIDs(ctx, userID)
	})
}

// WatchFolders streams userID's folders.
func (s *Store) WatchFolders(ctx context.Context, userID string) <-chan []*domain.Folder {
	return watch(ctx, s, []string{folderOwnerPrefix(userID)}, func(ctx context.Context) ([]*domain.Folder, error) {
		return s.FoldersByOwner(ctx, userID)
	})
}

// WatchComments streams a post's comments, oldest first.
func (s *Store) WatchComments(ctx context.Context, postID string) <-chan []*domain.Comment {
	return watch(ctx, s, []string{commentPostPrefix(postID)}, func(ctx context.Context) ([]*domain.Comment, error) {
		return s.CommentsByPost(ctx, postID)
	})
}

// WatchLikedCommentIDs streams the set of comments userID likes.
func (s *Store) WatchLikedCommentIDs(ctx context.Context, userID string) <-chan domain.IDSet {
	return watch(ctx, s, []string{commentLikeUserPrefix(userID)}, func(ctx context.Context) (domain.IDSet, error) {
		return s.LikedCommentIDs(ctx, userID)
	})
}

// WatchAlerts streams userID's alert inbox.
func (s *Store) WatchAlerts(ctx context.Context, userID string) <-chan domain.AlertInbox {
	return watch(ctx, s, []string{alertRecipientPrefix(userID)}, func(ctx context.Context) (domain.AlertInbox, error) {
		return s.AlertInbox(ctx, userID)
	})
}
