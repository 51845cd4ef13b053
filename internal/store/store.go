// Package store provides the authoritative persistence layer for boards,
// columns, and tasks on top of Badger. All multi-entity mutations (moves,
// timer transitions, cascading deletes) run inside a single transaction, and
// every committed write bumps the entity's monotonic version counter.
package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	apperrors "github.com/flowdeckapp/flowdeck-server/internal/errors"
)

// Key prefixes. Index keys append ":<entity id>" so one index value can map
// to many entities (all tasks of a board, all boards of a workspace).
const (
	boardPrefix            = "board:"
	boardByWorkspacePrefix = "board:idx:workspace:"

	columnPrefix        = "column:"
	columnByBoardPrefix = "column:idx:board:"

	taskPrefix         = "task:"
	taskByBoardPrefix  = "task:idx:board:"
	taskByColumnPrefix = "task:idx:column:"
)

// EventEmitter is the interface for emitting SSE events.
// Store consumers use this to broadcast changes without depending on SSE
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

// SearchIndexer is the interface for updating the task search index.
// Store consumers use this to keep search in sync without depending on the
// search implementation.
type SearchIndexer interface {
	IndexTask(ctx context.Context, task *domain.Task) error
	DeleteTask(ctx context.Context, taskID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexTask is a no-op.
func (NoopSearchIndexer) IndexTask(context.Context, *domain.Task) error { return nil }

// DeleteTask is a no-op.
func (NoopSearchIndexer) DeleteTask(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// SSE event emitter, consumed by services after successful writes.
	eventEmitter EventEmitter

	// Search indexer for keeping task title search in sync with writes.
	// Set via SetSearchIndexer after store creation to avoid circular dependencies.
	searchIndexer SearchIndexer

	// Generic entities
	Shares *Entity[ShareRecord]
}

// New creates a new Store instance with the given database path and event emitter.
// The emitter is required and used by services to broadcast store changes via SSE.
func New(path string, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:            db,
		logger:        logger,
		eventEmitter:  emitter,
		searchIndexer: NewNoopSearchIndexer(),
	}

	store.initShares()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// DB exposes the underlying Badger handle for backup and inspection tooling.
func (s *Store) DB() *badger.DB {
	return s.db
}

// Emitter returns the event emitter the store was created with.
func (s *Store) Emitter() EventEmitter {
	return s.eventEmitter
}

// SetSearchIndexer sets the search indexer for keeping search in sync.
// This is set after store creation to avoid circular dependencies
// (store needs to exist before the search service can be created).
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	s.searchIndexer = indexer
}

// Ping runs an empty read transaction to verify the database is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// Indexer returns the current search indexer.
func (s *Store) Indexer() SearchIndexer {
	return s.searchIndexer
}

// Backup streams a full badger backup to w and returns the version the
// backup is consistent up to.
func (s *Store) Backup(ctx context.Context, w io.Writer) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.db.Backup(w, 0)
}

// Restore loads a badger backup stream into the database. When drop is true
// all existing data is removed first; otherwise the stream is merged and
// existing keys are overwritten by the backup's values.
func (s *Store) Restore(ctx context.Context, r io.Reader, drop bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if drop {
		if err := s.db.DropAll(); err != nil {
			return fmt.Errorf("drop existing data: %w", err)
		}
	}
	if err := s.db.Load(r, 16); err != nil {
		return fmt.Errorf("load backup stream: %w", err)
	}
	return nil
}

// CountEntities returns the number of primary records per entity kind,
// used for backup manifests and inspection tooling.
func (s *Store) CountEntities(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefixes := map[string]string{
		"boards":  boardPrefix,
		"columns": columnPrefix,
		"tasks":   taskPrefix,
		"shares":  "share:",
	}

	counts := make(map[string]int, len(prefixes))
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for name, prefix := range prefixes {
			n := 0
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				if hasPrefixSkippingIndex(string(it.Item().Key()), prefix) {
					n++
				}
			}
			counts[name] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// update runs fn in a read-write transaction. Badger detects conflicting
// concurrent transactions at commit; those surface as transient errors so
// callers can retry explicitly.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	err := s.db.Update(fn)
	if errors.Is(err, badger.ErrConflict) {
		return apperrors.Transient("store write conflicted, retry").WithCause(err)
	}
	return err
}

// Transaction helpers.

// getJSON reads key into dest. Returns badger.ErrKeyNotFound untouched so
// callers can translate it per entity.
func getJSON(txn *badger.Txn, key string, dest any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

// unmarshalValue decodes a raw badger value into dest.
func unmarshalValue(val []byte, dest any) error {
	return json.Unmarshal(val, dest)
}

// setJSON marshals v and writes it at key.
func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

// iterateIDs walks the ids stored under an index prefix.
func iterateIDs(txn *badger.Txn, prefix string, fn func(id string) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = true

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		var id string
		err := it.Item().Value(func(val []byte) error {
			id = string(val)
			return nil
		})
		if err != nil {
			return err
		}
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

// collectIDs gathers the ids stored under an index prefix into a slice,
// closing the iterator before the caller mutates anything.
func collectIDs(txn *badger.Txn, prefix string) ([]string, error) {
	var ids []string
	err := iterateIDs(txn, prefix, func(id string) error {
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// indexEntry builds a non-unique index key: prefix + value + ":" + id.
func indexEntry(prefix, value, id string) string {
	return prefix + value + ":" + id
}

// notFoundAs translates badger's key-not-found into a domain not-found error.
func notFoundAs(err error, msg string) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return apperrors.NotFound(msg)
	}
	return err
}

// hasPrefixSkippingIndex reports whether key is a primary entity key under
// prefix (index keys embed "idx:" after the prefix and are skipped).
func hasPrefixSkippingIndex(key, prefix string) bool {
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	return !strings.HasPrefix(key[len(prefix):], "idx:")
}
