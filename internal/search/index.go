package search

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/localcircle/localcircle-server/internal/domain"
)

// SearchIndex wraps a Bleve index of posts. It implements store.SearchIndexer
// so the store keeps it in step with committed batches.
//
// All public methods are safe for concurrent use. The mutex keeps searches
// and writes out of the way of a rebuild.
type SearchIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex

	// created is set when the index was built empty on open, so the caller
	// knows to backfill it.
	created bool
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (uses discard if nil)
}

// mappingVersion is incremented whenever the index mapping changes.
// This triggers an automatic rebuild on startup when the version doesn't match.
const mappingVersion = "1"

// batchSize bounds documents per Bleve batch during a reindex.
const batchSize = 500

// NewSearchIndex creates or opens a search index.
// If the existing index is corrupted or has an outdated mapping, it's removed and recreated.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(opts.DataPath, 0o750); err != nil {
		return nil, fmt.Errorf("create search dir: %w", err)
	}

	indexPath := filepath.Join(opts.DataPath, "posts.bleve")
	versionPath := filepath.Join(opts.DataPath, "posts.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath) //#nosec G304 -- derived from configured data path
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, will rebuild", "new_version", mappingVersion)
			needsRebuild = true
		case string(existingVersion) != mappingVersion:
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	created := false
	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o600); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		created = true
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &SearchIndex{
		index:   index,
		path:    indexPath,
		logger:  logger,
		created: created,
	}, nil
}

// NewInMemory creates an index that lives only in memory. Used by tests.
func NewInMemory() (*SearchIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create in-memory index: %w", err)
	}
	return &SearchIndex{index: index, logger: slog.New(slog.DiscardHandler), created: true}, nil
}

// Created reports whether the index was created empty when opened.
func (s *SearchIndex) Created() bool {
	return s.created
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexPost adds or replaces the document for p.
func (s *SearchIndex) IndexPost(_ context.Context, p *domain.Post) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(p.ID, NewPostDocument(p).ToMap())
}

// DeletePost removes a post from the index.
func (s *SearchIndex) DeletePost(_ context.Context, postID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(postID)
}

// Reindex indexes every post yielded by posts in batches and returns how
// many were indexed. Existing documents are replaced, not cleared.
func (s *SearchIndex) Reindex(ctx context.Context, posts iter.Seq2[*domain.Post, error]) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	batch := s.index.NewBatch()
	flush := func() error {
		if batch.Size() == 0 {
			return nil
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch at %d: %w", total, err)
		}
		batch.Reset()
		return nil
	}

	for p, err := range posts {
		if err != nil {
			return total, fmt.Errorf("read posts: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
		if err := batch.Index(p.ID, NewPostDocument(p).ToMap()); err != nil {
			return total, fmt.Errorf("batch index %s: %w", p.ID, err)
		}
		total++
		if batch.Size() >= batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}

	s.logger.Info("search index rebuilt from store", "posts", total)
	return total, nil
}

// DocumentCount returns the total number of indexed documents.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the existing on-disk index and creates an empty one.
// It blocks every other operation while it runs.
func (s *SearchIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return fmt.Errorf("rebuild: in-memory index")
	}

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)

	return nil
}
