package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/geo"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a store in a temp directory.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "localcircle-test-*")
	require.NoError(t, err)

	s, err := New(filepath.Join(tmpDir, "test.db"), nil, NewNoopEmitter())
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}
	return s, cleanup
}

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []any
}

func (r *recordingEmitter) Emit(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) all() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.events...)
}

// recordingIndexer captures search index calls.
type recordingIndexer struct {
	mu      sync.Mutex
	indexed []string
	deleted []string
}

func (r *recordingIndexer) IndexPost(_ context.Context, p *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, p.ID)
	return nil
}

func (r *recordingIndexer) DeletePost(_ context.Context, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, postID)
	return nil
}

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newPost builds a located post created offset after baseTime.
func newPost(id, author string, at geo.Point, offset time.Duration) *domain.Post {
	p := &domain.Post{
		ID:         id,
		AuthorID:   author,
		AuthorName: author,
		Title:      "title " + id,
		Body:       "body " + id,
		Category:   domain.CategoryCoffee,
		CreatedAt:  baseTime.Add(offset),
	}
	p.SetLocation(at)
	return p
}

func mustCreatePost(t *testing.T, s *Store, p *domain.Post) {
	t.Helper()
	require.NoError(t, s.CreatePost(context.Background(), p))
}
