package store

import (
	"context"
	"testing"
	"time"

	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	nyc    = geo.Point{Lat: 40.7, Lng: -74.0}
	london = geo.Point{Lat: 51.5074, Lng: -0.1278}
)

func TestCreatePost_RoundTrip(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	p := newPost("post-1", "user-v", nyc, 0)
	mustCreatePost(t, s, p)

	got, err := s.GetPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, p.Title, got.Title)
	assert.Equal(t, geo.Encode(nyc), got.Geohash)
	require.NotNil(t, got.Location)
	assert.Equal(t, nyc, *got.Location)
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))
}

func TestCreatePost_Duplicate(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	p := newPost("post-1", "user-v", nyc, 0)
	mustCreatePost(t, s, p)

	err := s.CreatePost(context.Background(), p)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetPost_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetPost(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostsInGeohashRange(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	mustCreatePost(t, s, newPost("post-nyc", "u", nyc, 0))
	mustCreatePost(t, s, newPost("post-nyc2", "u", geo.Point{Lat: 40.701, Lng: -74.001}, time.Minute))
	mustCreatePost(t, s, newPost("post-london", "u", london, 0))

	prefix := geo.EncodeWithPrecision(nyc, 4)
	posts, err := s.PostsInGeohashRange(ctx, prefix, prefix+"~")
	require.NoError(t, err)

	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"post-nyc", "post-nyc2"}, ids)

	// Ordered by geohash ascending.
	for i := 1; i < len(posts); i++ {
		assert.LessOrEqual(t, posts[i-1].Geohash, posts[i].Geohash)
	}
}

func TestPostsInGeohashRange_InclusiveBounds(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	p := newPost("post-1", "u", nyc, 0)
	mustCreatePost(t, s, p)

	posts, err := s.PostsInGeohashRange(ctx, p.Geohash, p.Geohash)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	posts, err = s.PostsInGeohashRange(ctx, p.Geohash+"0", p.Geohash+"~")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostsInGeohashRange_SkipsUnlocatedPosts(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	unlocated := &domain.Post{ID: "post-x", AuthorID: "u", CreatedAt: baseTime}
	mustCreatePost(t, s, unlocated)

	posts, err := s.PostsInGeohashRange(context.Background(), "0", "~")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestRecentPosts_NewestFirstWithLimit(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for i, id := range []string{"post-a", "post-b", "post-c"} {
		mustCreatePost(t, s, newPost(id, "u", nyc, time.Duration(i)*time.Minute))
	}

	posts, err := s.RecentPosts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "post-c", posts[0].ID)
	assert.Equal(t, "post-b", posts[1].ID)
}

func TestPostsByAuthor(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	mustCreatePost(t, s, newPost("post-1", "user-u", nyc, 0))
	mustCreatePost(t, s, newPost("post-2", "user-v", nyc, time.Minute))
	mustCreatePost(t, s, newPost("post-3", "user-u", nyc, 2*time.Minute))

	posts, err := s.PostsByAuthor(ctx, "user-u", 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "post-3", posts[0].ID)
	assert.Equal(t, "post-1", posts[1].ID)
}

func TestDeletePost_RemovesIndexes(t *testing.T) {
	idx := &recordingIndexer{}
	s, cleanup := setupTestStore(t)
	defer cleanup()
	s.SetSearchIndexer(idx)
	ctx := context.Background()

	p := newPost("post-1", "u", nyc, 0)
	mustCreatePost(t, s, p)

	require.NoError(t, s.Batch(ctx, func(b *Batch) error {
		return b.DeletePost(p)
	}))

	_, err := s.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	recent, err := s.RecentPosts(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)

	inRange, err := s.PostsInGeohashRange(ctx, "0", "~")
	require.NoError(t, err)
	assert.Empty(t, inRange)

	assert.Equal(t, []string{"post-1"}, idx.indexed)
	assert.Equal(t, []string{"post-1"}, idx.deleted)
}

func TestAllPosts(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	mustCreatePost(t, s, newPost("post-1", "u", nyc, 0))
	mustCreatePost(t, s, newPost("post-2", "u", london, 0))

	var ids []string
	for p, err := range s.AllPosts(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"post-1", "post-2"}, ids)
}
