package service

import (
	"context"
	"testing"
	"time"

	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/errors"
	"github.com/localcircle/localcircle-server/internal/feed"
	"github.com/localcircle/localcircle-server/internal/geo"
	"github.com/localcircle/localcircle-server/internal/location"
	"github.com/localcircle/localcircle-server/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeedService(f *fixture) *FeedService {
	return NewFeedService(f.store, feed.NewSearcher(f.store, 50000), 50, 10000, logger.Discard())
}

func feedIDs(posts []domain.FeedPost) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestFeedNearby(t *testing.T) {
	f := setup(t)
	svc := newFeedService(f)
	ctx := context.Background()

	near := f.post(t, alice, "Espresso cart", nyc)
	across := f.post(t, bob, "Dog park meetup", brooklyn) // ~6.5 km from nyc
	f.post(t, carol, "Pub quiz", london)

	_, err := f.ledger.ToggleLike(ctx, bob, near.ID)
	require.NoError(t, err)
	_, err = f.ledger.ToggleSave(ctx, bob.UserID, across.ID, "")
	require.NoError(t, err)

	posts, err := svc.Nearby(ctx, FeedRequest{ViewerID: bob.UserID, Source: location.Fixed(nyc)})
	require.NoError(t, err)
	assert.Equal(t, []string{across.ID, near.ID}, feedIDs(posts), "newest first, London excluded")

	byID := map[string]domain.FeedPost{}
	for _, p := range posts {
		byID[p.ID] = p
	}
	assert.True(t, byID[near.ID].IsLiked)
	assert.Equal(t, 1, byID[near.ID].Likes)
	assert.False(t, byID[near.ID].IsSaved)
	assert.True(t, byID[across.ID].IsSaved)

	small, err := svc.Nearby(ctx, FeedRequest{Source: location.Fixed(nyc), RadiusMeters: 3000})
	require.NoError(t, err)
	assert.Equal(t, []string{near.ID}, feedIDs(small))

	filtered, err := svc.Nearby(ctx, FeedRequest{Source: location.Fixed(nyc), Query: "DOG"})
	require.NoError(t, err)
	assert.Equal(t, []string{across.ID}, feedIDs(filtered))
}

func TestFeedNearby_LocationUnavailable(t *testing.T) {
	f := setup(t)
	svc := newFeedService(f)
	f.post(t, alice, "Espresso cart", nyc)

	_, err := svc.Nearby(context.Background(), FeedRequest{Source: location.Reported{Lat: "north"}})
	assert.True(t, errors.Is(err, errors.ErrLocationUnavailable))
}

func TestFeedNearby_RadiusTooLarge(t *testing.T) {
	f := setup(t)
	svc := newFeedService(f)

	_, err := svc.Nearby(context.Background(), FeedRequest{Source: location.Fixed(nyc), RadiusMeters: 80000})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestFeedGlobal(t *testing.T) {
	f := setup(t)
	svc := newFeedService(f)
	a := f.post(t, alice, "Espresso cart", nyc)
	b := f.post(t, carol, "Pub quiz", london)

	posts, err := svc.Global(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, feedIDs(posts))
}

// awaitFeed reads renders until one satisfies ok.
func awaitFeed(t *testing.T, out <-chan []domain.FeedPost, ok func([]domain.FeedPost) bool) []domain.FeedPost {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case posts := <-out:
			if ok(posts) {
				return posts
			}
		case <-deadline:
			t.Fatal("feed never reached the expected state")
			return nil
		}
	}
}

func TestFeedStream_FollowsLiveChanges(t *testing.T) {
	f := setup(t)
	svc := newFeedService(f)
	p := f.post(t, alice, "Espresso cart", nyc)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan []domain.FeedPost)
	queries := make(chan string)
	done := make(chan error, 1)
	go func() {
		done <- svc.Stream(ctx, FeedRequest{ViewerID: bob.UserID, Source: location.Fixed(nyc)}, queries, out)
	}()

	awaitFeed(t, out, func(posts []domain.FeedPost) bool {
		return len(posts) == 1 && !posts[0].IsLiked
	})

	_, err := f.ledger.ToggleLike(context.Background(), bob, p.ID)
	require.NoError(t, err)
	awaitFeed(t, out, func(posts []domain.FeedPost) bool {
		return len(posts) == 1 && posts[0].IsLiked && posts[0].Likes == 1
	})

	_, err = f.ledger.ToggleSave(context.Background(), bob.UserID, p.ID, "")
	require.NoError(t, err)
	awaitFeed(t, out, func(posts []domain.FeedPost) bool {
		return len(posts) == 1 && posts[0].IsSaved
	})

	go func() { queries <- "bakery" }()
	awaitFeed(t, out, func(posts []domain.FeedPost) bool { return len(posts) == 0 })

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop")
	}
}

func TestFeedStream_NearbySetIsFixed(t *testing.T) {
	f := setup(t)
	svc := newFeedService(f)
	f.post(t, alice, "Espresso cart", nyc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan []domain.FeedPost)
	go func() {
		_ = svc.Stream(ctx, FeedRequest{Source: location.Fixed(nyc)}, nil, out)
	}()
	awaitFeed(t, out, func(posts []domain.FeedPost) bool { return len(posts) == 1 })

	// A post created after the session started reaches the global feed but
	// not this session's nearby set.
	f.post(t, bob, "Bagels", geo.Point{Lat: nyc.Lat + 0.001, Lng: nyc.Lng})
	posts := awaitFeed(t, out, func([]domain.FeedPost) bool { return true })
	assert.Len(t, posts, 1)
}

func TestFeedStream_LocationUnavailable(t *testing.T) {
	f := setup(t)
	svc := newFeedService(f)

	err := svc.Stream(context.Background(), FeedRequest{}, nil, make(chan []domain.FeedPost))
	assert.True(t, errors.Is(err, errors.ErrLocationUnavailable))
}
