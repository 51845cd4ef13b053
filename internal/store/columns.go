package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	apperrors "github.com/flowdeckapp/flowdeck-server/internal/errors"
	"github.com/flowdeckapp/flowdeck-server/internal/position"
)

// CreateColumn persists a new column appended at the end of its board.
// Fails with not-found if the board does not exist.
func (s *Store) CreateColumn(ctx context.Context, column *domain.Column) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		var board domain.Board
		if err := getJSON(txn, boardPrefix+column.BoardID, &board); err != nil {
			return notFoundAs(err, "board "+column.BoardID+" not found")
		}

		key := columnPrefix + column.ID
		if _, err := txn.Get([]byte(key)); err == nil {
			return apperrors.AlreadyExists("column " + column.ID + " already exists")
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check existing column: %w", err)
		}

		existing, err := loadBoardColumns(txn, column.BoardID)
		if err != nil {
			return err
		}
		column.Order = len(existing)
		column.WorkspaceID = board.WorkspaceID
		column.InitTimestamps()
		column.BumpVersion()

		if err := setJSON(txn, key, column); err != nil {
			return err
		}
		idx := indexEntry(columnByBoardPrefix, column.BoardID, column.ID)
		return txn.Set([]byte(idx), []byte(column.ID))
	})
}

// GetColumn retrieves a column by ID.
func (s *Store) GetColumn(ctx context.Context, id string) (*domain.Column, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var column domain.Column
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, columnPrefix+id, &column)
	})
	if err != nil {
		return nil, notFoundAs(err, "column "+id+" not found")
	}
	return &column, nil
}

// ListColumns returns a board's columns sorted by order.
func (s *Store) ListColumns(ctx context.Context, boardID string) ([]*domain.Column, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var columns []*domain.Column
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		columns, err = loadBoardColumns(txn, boardID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return columns, nil
}

// UpdateColumn replaces a column's title and color. Order changes go through
// ReorderColumns only.
func (s *Store) UpdateColumn(ctx context.Context, column *domain.Column) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		var old domain.Column
		if err := getJSON(txn, columnPrefix+column.ID, &old); err != nil {
			return notFoundAs(err, "column "+column.ID+" not found")
		}

		column.BoardID = old.BoardID
		column.WorkspaceID = old.WorkspaceID
		column.Order = old.Order
		column.CreatedAt = old.CreatedAt
		column.Version = old.Version
		column.Touch()
		column.BumpVersion()

		return setJSON(txn, columnPrefix+column.ID, column)
	})
}

// DeleteColumn removes a column and all of its tasks, then closes the order
// gap among the board's remaining columns. Idempotent.
func (s *Store) DeleteColumn(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		var column domain.Column
		if err := getJSON(txn, columnPrefix+id, &column); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		// 1. Delete the column's tasks with both index entries.
		taskIdx := indexEntry(taskByColumnPrefix, id, "")
		taskIDs, err := collectIDs(txn, taskIdx)
		if err != nil {
			return err
		}
		for _, taskID := range taskIDs {
			if err := txn.Delete([]byte(indexEntry(taskByBoardPrefix, column.BoardID, taskID))); err != nil {
				return err
			}
			if err := txn.Delete([]byte(taskPrefix + taskID)); err != nil {
				return err
			}
		}
		if err := deletePrefix(txn, taskIdx); err != nil {
			return err
		}

		// 2. Delete the column and its board index entry.
		if err := txn.Delete([]byte(indexEntry(columnByBoardPrefix, column.BoardID, id))); err != nil {
			return err
		}
		if err := txn.Delete([]byte(columnPrefix + id)); err != nil {
			return err
		}

		// 3. Close the order gap.
		remaining, err := loadBoardColumns(txn, column.BoardID)
		if err != nil {
			return err
		}
		now := time.Now()
		for i, col := range remaining {
			if col.Order == i {
				continue
			}
			col.Order = i
			col.UpdatedAt = now
			col.BumpVersion()
			if err := setJSON(txn, columnPrefix+col.ID, col); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReorderColumns rewrites the board's column order to match orderedIDs, which
// must name exactly the board's columns. Returns every column after the
// reorder, already sorted. Columns whose order did not change are not
// rewritten and keep their version.
func (s *Store) ReorderColumns(ctx context.Context, boardID string, orderedIDs []string) ([]*domain.Column, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var columns []*domain.Column
	err := s.update(func(txn *badger.Txn) error {
		var err error
		columns, err = loadBoardColumns(txn, boardID)
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			if _, berr := txn.Get([]byte(boardPrefix + boardID)); berr != nil {
				return notFoundAs(berr, "board "+boardID+" not found")
			}
		}

		changed, err := position.ReorderColumns(columns, orderedIDs)
		if err != nil {
			return err
		}

		now := time.Now()
		for _, col := range changed {
			col.UpdatedAt = now
			col.BumpVersion()
			if err := setJSON(txn, columnPrefix+col.ID, col); err != nil {
				return err
			}
		}
		position.SortColumns(columns)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return columns, nil
}
