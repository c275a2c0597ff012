package search

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	index, err := NewSearchIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func testPost(id, title, body string, category domain.Category, at geo.Point, age time.Duration) *domain.Post {
	p := &domain.Post{
		ID:         id,
		Title:      title,
		Body:       body,
		AuthorName: "maya",
		Category:   category,
		CreatedAt:  t0.Add(-age),
	}
	p.SetLocation(at)
	return p
}

var (
	nyc    = geo.Point{Lat: 40.7, Lng: -74.0}
	london = geo.Point{Lat: 51.5074, Lng: -0.1278}
)

func seed(t *testing.T, index *SearchIndex) {
	t.Helper()
	ctx := context.Background()
	for _, p := range []*domain.Post{
		testPost("post-1", "New espresso bar", "Opened today on Main street", domain.CategoryCoffee, nyc, time.Hour),
		testPost("post-2", "Lost dog near the park", "Brown lab answering to Biscuit", domain.CategorySafety, nyc, 2*time.Hour),
		testPost("post-3", "Espresso machine repair", "Fixing espresso machines for cheap", domain.CategoryServices, london, 0),
	} {
		require.NoError(t, index.IndexPost(ctx, p))
	}
}

func search(t *testing.T, index *SearchIndex, params SearchParams) *SearchResult {
	t.Helper()
	res, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	return res
}

func TestNewSearchIndex_Empty(t *testing.T) {
	index := setupTestIndex(t)
	assert.True(t, index.Created())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewSearchIndex_ReopensExisting(t *testing.T) {
	dir := t.TempDir()
	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexPost(context.Background(), testPost("post-1", "Bakery", "", domain.CategoryFood, nyc, 0)))
	require.NoError(t, index.Close())

	reopened, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	assert.False(t, reopened.Created())
	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestNewSearchIndex_RebuildsOnVersionChange(t *testing.T) {
	dir := t.TempDir()
	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexPost(context.Background(), testPost("post-1", "Bakery", "", domain.CategoryFood, nyc, 0)))
	require.NoError(t, index.Close())

	require.NoError(t, writeFile(filepath.Join(dir, "posts.version"), "old"))

	rebuilt, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer rebuilt.Close()

	assert.True(t, rebuilt.Created())
	count, err := rebuilt.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSearch_MatchesTitleAndBody(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res := search(t, index, SearchParams{Query: "espresso", Limit: 10})
	assert.ElementsMatch(t, []string{"post-1", "post-3"}, res.IDs())

	res = search(t, index, SearchParams{Query: "biscuit", Limit: 10})
	assert.Equal(t, []string{"post-2"}, res.IDs())
}

func TestSearch_CategoryFilter(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res := search(t, index, SearchParams{Query: "espresso", Category: "Services", Limit: 10})
	assert.Equal(t, []string{"post-3"}, res.IDs())
}

func TestSearch_NearFilter(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res := search(t, index, SearchParams{Query: "espresso", Near: &nyc, RadiusMeters: 10000, Limit: 10})
	assert.Equal(t, []string{"post-1"}, res.IDs())
}

func TestSearch_RecentOrderAndFacets(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res := search(t, index, SearchParams{SortBy: "recent", IncludeFacets: true, Limit: 10})
	assert.Equal(t, []string{"post-3", "post-1", "post-2"}, res.IDs())
	assert.Equal(t, uint64(3), res.Total)
	assert.Len(t, res.Facets, 3)
}

func TestSearch_StoredFields(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res := search(t, index, SearchParams{Query: "lost dog", Limit: 1, Highlight: true})
	require.Len(t, res.Hits, 1)
	hit := res.Hits[0]
	assert.Equal(t, "Lost dog near the park", hit.Title)
	assert.Equal(t, "maya", hit.AuthorName)
	assert.Equal(t, "Safety", hit.Category)
	assert.NotEmpty(t, hit.Highlights)
}

func TestDeletePost(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	require.NoError(t, index.DeletePost(context.Background(), "post-1"))
	res := search(t, index, SearchParams{Query: "espresso", Limit: 10})
	assert.Equal(t, []string{"post-3"}, res.IDs())
}

func postSeq(posts []*domain.Post, failAt int) iter.Seq2[*domain.Post, error] {
	return func(yield func(*domain.Post, error) bool) {
		for i, p := range posts {
			if i == failAt {
				yield(nil, errors.New("disk on fire"))
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}

func TestReindex(t *testing.T) {
	index, err := NewInMemory()
	require.NoError(t, err)
	defer index.Close()

	posts := make([]*domain.Post, 0, batchSize+5)
	for i := range batchSize + 5 {
		posts = append(posts, testPost(
			fmt.Sprintf("post-%04d", i), "Garage sale", "Everything must go", domain.CategoryServices, nyc, time.Duration(i)*time.Minute))
	}

	n, err := index.Reindex(context.Background(), postSeq(posts, -1))
	require.NoError(t, err)
	assert.Equal(t, len(posts), n)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(posts)), count)
}

func TestReindex_PropagatesReadErrors(t *testing.T) {
	index, err := NewInMemory()
	require.NoError(t, err)
	defer index.Close()

	posts := []*domain.Post{
		testPost("post-1", "a", "", domain.CategoryFood, nyc, 0),
		testPost("post-2", "b", "", domain.CategoryFood, nyc, 0),
	}
	n, err := index.Reindex(context.Background(), postSeq(posts, 1))
	assert.ErrorContains(t, err, "disk on fire")
	assert.Equal(t, 1, n)
}

func TestRebuild(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	require.NoError(t, index.Rebuild())
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewPostDocument_WithoutLocation(t *testing.T) {
	doc := NewPostDocument(&domain.Post{ID: "post-1", Title: "t", CreatedAt: t0})
	m := doc.ToMap()
	assert.NotContains(t, m, "location")
	assert.Equal(t, t0.UnixMilli(), m["created_at"])
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
