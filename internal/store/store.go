package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/localcircle/localcircle-server/internal/domain"
)

// EventEmitter is the interface for emitting SSE events.
// Store uses this to broadcast committed changes without depending on SSE
// implementation details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// SearchIndexer keeps the full-text index in step with stored posts.
// Failures are logged and never fail the write that triggered them.
type SearchIndexer interface {
	IndexPost(ctx context.Context, post *domain.Post) error
	DeletePost(ctx context.Context, postID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexPost is a no-op.
func (NoopSearchIndexer) IndexPost(context.Context, *domain.Post) error { return nil }

// DeletePost is a no-op.
func (NoopSearchIndexer) DeletePost(context.Context, string) error { return nil }

// Store is the badger-backed document store for posts and the records that
// hang off them.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	eventEmitter EventEmitter

	// Set via SetSearchIndexer after construction; the index is built from
	// the store on first open.
	searchIndexer SearchIndexer

	changes *changeHub
}

// New opens (or creates) the database at path.
func New(path string, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	return open(opts, logger, emitter)
}

// NewInMemory opens a store that lives only in memory. Used by cmd/seed dry
// runs and tests that do not care about persistence.
func NewInMemory(logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger, emitter)
}

func open(opts badger.Options, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	if emitter == nil {
		emitter = NoopEmitter{}
	}

	s := &Store{
		db:            db,
		logger:        logger,
		eventEmitter:  emitter,
		searchIndexer: NoopSearchIndexer{},
		changes:       newChangeHub(),
	}

	if logger != nil {
		logger.Info("badger database opened", "path", opts.Dir, "in_memory", opts.InMemory)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("closing database")
	}
	s.changes.closeAll()
	return s.db.Close()
}

// SetSearchIndexer sets the search indexer for keeping search in sync.
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	if indexer == nil {
		indexer = NoopSearchIndexer{}
	}
	s.searchIndexer = indexer
}

// getJSON decodes the value at key into dest, returning ErrNotFound for a
// missing key.
func getJSON(txn *badger.Txn, key []byte, dest any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// scanKeys returns copies of every key under prefix, in key order. Values are
// not fetched.
func scanKeys(txn *badger.Txn, prefix string) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

func (s *Store) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Store) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
