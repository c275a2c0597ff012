package store

import (
	"context"
	"testing"
	"time"

	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func next[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "stream closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}

func TestWatchRecentPosts_RedeliversOnCounterChange(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mustCreatePost(t, s, newPost("post-1", "user-v", nyc, 0))

	stream := s.WatchRecentPosts(ctx, 10)
	initial := next(t, stream)
	require.Len(t, initial, 1)
	assert.Zero(t, initial[0].Likes)

	require.NoError(t, s.Batch(ctx, func(b *Batch) error {
		_, err := b.AdjustPostCounters("post-1", 1, 0)
		return err
	}))

	updated := next(t, stream)
	require.Len(t, updated, 1)
	assert.Equal(t, 1, updated[0].Likes)
}

func TestWatchLikedPostIDs_ScopedToUser(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := s.WatchLikedPostIDs(ctx, "user-u")
	assert.Empty(t, next(t, stream))

	// Another user's like does not wake this stream.
	require.NoError(t, s.Batch(ctx, func(b *Batch) error {
		return b.PutLike(&domain.Like{PostID: "post-1", UserID: "user-w"})
	}))
	require.NoError(t, s.Batch(ctx, func(b *Batch) error {
		return b.PutLike(&domain.Like{PostID: "post-2", UserID: "user-u"})
	}))

	set := next(t, stream)
	assert.True(t, set.Has("post-2"))
	assert.False(t, set.Has("post-1"))
}

func TestWatchSavedPostIDs(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := s.WatchSavedPostIDs(ctx, "user-u")
	assert.Empty(t, next(t, stream))

	save(t, s, "post-1", "user-u", domain.AllItemsFolderID, 0)
	assert.True(t, next(t, stream).Has("post-1"))
}

func TestWatchAlerts(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := s.WatchAlerts(ctx, "user-v")
	assert.Zero(t, next(t, stream).UnreadCount)

	require.NoError(t, s.Batch(ctx, func(b *Batch) error {
		return b.PutAlert(&domain.Alert{ID: "alrt-1", RecipientID: "user-v", CreatedAt: baseTime})
	}))
	assert.Equal(t, 1, next(t, stream).UnreadCount)

	require.NoError(t, s.Batch(ctx, func(b *Batch) error {
		_, err := b.MarkAlertsRead("user-v")
		return err
	}))
	assert.Zero(t, next(t, stream).UnreadCount)
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := context.WithCancel(context.Background())

	stream := s.WatchFolders(ctx, "user-u")
	next(t, stream)
	cancel()

	select {
	case _, ok := <-stream:
		if ok {
			// A final snapshot may race the cancellation; the close follows.
			_, ok = <-stream
		}
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed after cancel")
	}
}

func TestWatch_ClosesOnStoreClose(t *testing.T) {
	s, err := NewInMemory(nil, nil)
	require.NoError(t, err)

	stream := s.WatchComments(context.Background(), "post-1")
	next(t, stream)
	require.NoError(t, s.Close())

	select {
	case _, ok := <-stream:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed after store close")
	}
}

func TestChangeHub_CoalescesSignals(t *testing.T) {
	h := newChangeHub()
	notify, unsubscribe := h.subscribe([]string{"like:idx:user:u:"})
	defer unsubscribe()

	for range 5 {
		h.publish([][]byte{[]byte("like:idx:user:u:post-1")})
	}
	h.publish([][]byte{[]byte("like:idx:user:uu:post-1")})

	assert.Len(t, notify, 1)
}
