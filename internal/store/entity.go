package store

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/dgraph-io/badger/v4"

	apperrors "github.com/flowdeckapp/flowdeck-server/internal/errors"
)

// Entity provides generic CRUD operations for a domain type stored under a
// key prefix. Secondary indexes registered here are unique: creating or
// updating an entity whose index value collides with another entity fails
// with an already-exists error.
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []entityIndex[T]
}

type entityIndex[T any] struct {
	name            string
	keyGen          func(*T) []string
	lookupTransform func(string) string // optional, applied to lookup values
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{
		store:  s,
		prefix: prefix,
	}
}

// WithIndex adds a unique secondary index to the entity.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, entityIndex[T]{name: name, keyGen: keyGen})
	return e
}

// WithIndexTransform adds a unique secondary index with a lookup
// transformation, enabling case-insensitive or otherwise normalized lookups.
func (e *Entity[T]) WithIndexTransform(name string, keyGen func(*T) []string, lookupTransform func(string) string) *Entity[T] {
	e.indexes = append(e.indexes, entityIndex[T]{
		name:            name,
		keyGen:          keyGen,
		lookupTransform: lookupTransform,
	})
	return e
}

func (e *Entity[T]) indexKey(name, value string) string {
	return e.prefix + "idx:" + name + ":" + value
}

// Create creates a new entity with the given ID.
// Returns an already-exists error if the ID or any index value is taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := e.prefix + id
	return e.store.update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err == nil {
			return apperrors.AlreadyExists(e.prefix + id + " already exists")
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check existing key: %w", err)
		}

		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(entity) {
				if _, err := txn.Get([]byte(e.indexKey(idx.name, value))); err == nil {
					return apperrors.AlreadyExists(fmt.Sprintf("index %s conflict on %s", idx.name, value))
				} else if !errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("check index key: %w", err)
				}
			}
		}

		if err := setJSON(txn, key, entity); err != nil {
			return err
		}
		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(entity) {
				if err := txn.Set([]byte(e.indexKey(idx.name, value)), []byte(id)); err != nil {
					return fmt.Errorf("set index key: %w", err)
				}
			}
		}
		return nil
	})
}

// Get retrieves an entity by ID.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity T
	err := e.store.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, e.prefix+id, &entity)
	})
	if err != nil {
		return nil, notFoundAs(err, e.prefix+id+" not found")
	}
	return &entity, nil
}

// GetByIndex retrieves an entity by secondary index value.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, idx := range e.indexes {
		if idx.name == indexName && idx.lookupTransform != nil {
			value = idx.lookupTransform(value)
			break
		}
	}

	var id string
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(e.indexKey(indexName, value)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, notFoundAs(err, indexName+" "+value+" not found")
	}
	return e.Get(ctx, id)
}

// Update replaces an existing entity, rewriting index keys as needed.
func (e *Entity[T]) Update(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := e.prefix + id
	return e.store.update(func(txn *badger.Txn) error {
		var old T
		if err := getJSON(txn, key, &old); err != nil {
			return notFoundAs(err, key+" not found")
		}

		for _, idx := range e.indexes {
			oldValues := make(map[string]bool)
			for _, value := range idx.keyGen(&old) {
				oldValues[value] = true
				if err := txn.Delete([]byte(e.indexKey(idx.name, value))); err != nil {
					return fmt.Errorf("delete old index key: %w", err)
				}
			}

			for _, value := range idx.keyGen(entity) {
				if oldValues[value] {
					continue
				}
				if _, err := txn.Get([]byte(e.indexKey(idx.name, value))); err == nil {
					return apperrors.AlreadyExists(fmt.Sprintf("index %s conflict on %s", idx.name, value))
				} else if !errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("check index key: %w", err)
				}
			}
		}

		if err := setJSON(txn, key, entity); err != nil {
			return err
		}
		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(entity) {
				if err := txn.Set([]byte(e.indexKey(idx.name, value)), []byte(id)); err != nil {
					return fmt.Errorf("set index key: %w", err)
				}
			}
		}
		return nil
	})
}

// Delete deletes an entity by ID.
// Idempotent: deleting a missing entity is not an error.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := e.prefix + id
	return e.store.update(func(txn *badger.Txn) error {
		var entity T
		if err := getJSON(txn, key, &entity); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(&entity) {
				if err := txn.Delete([]byte(e.indexKey(idx.name, value))); err != nil {
					return fmt.Errorf("delete index key: %w", err)
				}
			}
		}
		return txn.Delete([]byte(key))
	})
}

// List returns an iterator over all entities under the prefix.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		//nolint:errcheck // iteration errors are delivered through yield
		e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
				if ctx.Err() != nil {
					yield(nil, ctx.Err())
					return ctx.Err()
				}

				if !hasPrefixSkippingIndex(string(it.Item().Key()), e.prefix) {
					continue
				}

				var entity T
				err := it.Item().Value(func(val []byte) error {
					return unmarshalValue(val, &entity)
				})
				if err != nil {
					yield(nil, err)
					return err
				}

				if !yield(&entity, nil) {
					return nil // consumer stopped early
				}
			}
			return nil
		})
	}
}
