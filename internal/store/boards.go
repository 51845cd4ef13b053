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

// CreateBoard persists a new board. The caller assigns the ID; the store owns
// timestamps and the version counter.
func (s *Store) CreateBoard(ctx context.Context, board *domain.Board) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		key := boardPrefix + board.ID
		if _, err := txn.Get([]byte(key)); err == nil {
			return apperrors.AlreadyExists("board " + board.ID + " already exists")
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check existing board: %w", err)
		}

		board.InitTimestamps()
		board.BumpVersion()

		if err := setJSON(txn, key, board); err != nil {
			return err
		}
		idx := indexEntry(boardByWorkspacePrefix, board.WorkspaceID, board.ID)
		return txn.Set([]byte(idx), []byte(board.ID))
	})
}

// GetBoard retrieves a board by ID.
func (s *Store) GetBoard(ctx context.Context, id string) (*domain.Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var board domain.Board
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, boardPrefix+id, &board)
	})
	if err != nil {
		return nil, notFoundAs(err, "board "+id+" not found")
	}
	return &board, nil
}

// ListBoards returns all boards in a workspace.
func (s *Store) ListBoards(ctx context.Context, workspaceID string) ([]*domain.Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var boards []*domain.Board
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := indexEntry(boardByWorkspacePrefix, workspaceID, "")
		return iterateIDs(txn, prefix, func(id string) error {
			var board domain.Board
			if err := getJSON(txn, boardPrefix+id, &board); err != nil {
				return fmt.Errorf("load board %s: %w", id, err)
			}
			boards = append(boards, &board)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return boards, nil
}

// UpdateBoard replaces a board's stored state, bumping its version.
func (s *Store) UpdateBoard(ctx context.Context, board *domain.Board) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		var old domain.Board
		if err := getJSON(txn, boardPrefix+board.ID, &old); err != nil {
			return notFoundAs(err, "board "+board.ID+" not found")
		}

		board.CreatedAt = old.CreatedAt
		board.Version = old.Version
		board.Touch()
		board.BumpVersion()

		return setJSON(txn, boardPrefix+board.ID, board)
	})
}

// DeleteBoard removes a board with all of its columns, tasks, and any active
// share record. Idempotent: deleting a missing board is not an error.
func (s *Store) DeleteBoard(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		var board domain.Board
		if err := getJSON(txn, boardPrefix+id, &board); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		// 1. Delete all tasks of the board with their column indexes.
		taskIdx := indexEntry(taskByBoardPrefix, id, "")
		taskIDs, err := collectIDs(txn, taskIdx)
		if err != nil {
			return err
		}
		for _, taskID := range taskIDs {
			var task domain.Task
			if err := getJSON(txn, taskPrefix+taskID, &task); err != nil {
				return fmt.Errorf("load task %s: %w", taskID, err)
			}
			if err := txn.Delete([]byte(indexEntry(taskByColumnPrefix, task.ColumnID, taskID))); err != nil {
				return err
			}
			if err := txn.Delete([]byte(taskPrefix + taskID)); err != nil {
				return err
			}
		}
		if err := deletePrefix(txn, taskIdx); err != nil {
			return err
		}

		// 2. Delete all columns of the board.
		colIdx := indexEntry(columnByBoardPrefix, id, "")
		colIDs, err := collectIDs(txn, colIdx)
		if err != nil {
			return err
		}
		for _, colID := range colIDs {
			if err := txn.Delete([]byte(columnPrefix + colID)); err != nil {
				return err
			}
		}
		if err := deletePrefix(txn, colIdx); err != nil {
			return err
		}

		// 3. Revoke any share record pointing at this board.
		shareIdxKey := []byte("share:idx:board:" + id)
		if item, err := txn.Get(shareIdxKey); err == nil {
			var shareID string
			if err := item.Value(func(val []byte) error {
				shareID = string(val)
				return nil
			}); err != nil {
				return err
			}
			if err := txn.Delete([]byte("share:" + shareID)); err != nil {
				return err
			}
			if err := txn.Delete(shareIdxKey); err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		// 4. Delete the board itself and its workspace index entry.
		if err := txn.Delete([]byte(indexEntry(boardByWorkspacePrefix, board.WorkspaceID, id))); err != nil {
			return err
		}
		return txn.Delete([]byte(boardPrefix + id))
	})
}

// BoardSummaries returns lightweight listings for all boards in a workspace.
func (s *Store) BoardSummaries(ctx context.Context, workspaceID string) ([]*domain.BoardSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var summaries []*domain.BoardSummary
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := indexEntry(boardByWorkspacePrefix, workspaceID, "")
		return iterateIDs(txn, prefix, func(id string) error {
			var board domain.Board
			if err := getJSON(txn, boardPrefix+id, &board); err != nil {
				return fmt.Errorf("load board %s: %w", id, err)
			}

			summary := &domain.BoardSummary{
				ID:          board.ID,
				WorkspaceID: board.WorkspaceID,
				Title:       board.Title,
				Description: board.Description,
				MemberCount: len(board.Members),
				Version:     board.Version,
			}
			if err := countIDs(txn, indexEntry(columnByBoardPrefix, id, ""), &summary.ColumnCount); err != nil {
				return err
			}
			if err := countIDs(txn, indexEntry(taskByBoardPrefix, id, ""), &summary.TaskCount); err != nil {
				return err
			}
			summaries = append(summaries, summary)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetBoardAggregate loads a board with all of its columns and tasks in one
// consistent snapshot.
func (s *Store) GetBoardAggregate(ctx context.Context, boardID string) (*domain.BoardAggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agg := &domain.BoardAggregate{}
	err := s.db.View(func(txn *badger.Txn) error {
		var board domain.Board
		if err := getJSON(txn, boardPrefix+boardID, &board); err != nil {
			return notFoundAs(err, "board "+boardID+" not found")
		}
		agg.Board = &board

		columns, err := loadBoardColumns(txn, boardID)
		if err != nil {
			return err
		}
		agg.Columns = columns

		tasks, err := loadBoardTasks(txn, boardID)
		if err != nil {
			return err
		}
		agg.Tasks = tasks
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agg, nil
}

// TouchBoard reloads a board, bumps its version, and persists it. Used when a
// child mutation (tag rename, member change) must invalidate board-level
// caches on clients.
func (s *Store) TouchBoard(ctx context.Context, id string) (*domain.Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var board domain.Board
	err := s.update(func(txn *badger.Txn) error {
		if err := getJSON(txn, boardPrefix+id, &board); err != nil {
			return notFoundAs(err, "board "+id+" not found")
		}
		board.Touch()
		board.BumpVersion()
		return setJSON(txn, boardPrefix+id, &board)
	})
	if err != nil {
		return nil, err
	}
	return &board, nil
}

// deletePrefix removes every key under prefix. Keys are collected before
// deleting so no write happens while the iterator is open.
func deletePrefix(txn *badger.Txn, prefix string) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	var keys [][]byte
	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// countIDs counts keys under an index prefix.
func countIDs(txn *badger.Txn, prefix string, out *int) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		n++
	}
	*out = n
	return nil
}

// loadBoardColumns loads every column of a board, sorted by order.
func loadBoardColumns(txn *badger.Txn, boardID string) ([]*domain.Column, error) {
	var columns []*domain.Column
	prefix := indexEntry(columnByBoardPrefix, boardID, "")
	err := iterateIDs(txn, prefix, func(id string) error {
		var col domain.Column
		if err := getJSON(txn, columnPrefix+id, &col); err != nil {
			return fmt.Errorf("load column %s: %w", id, err)
		}
		columns = append(columns, &col)
		return nil
	})
	if err != nil {
		return nil, err
	}
	position.SortColumns(columns)
	return columns, nil
}

// loadBoardTasks loads every task of a board.
func loadBoardTasks(txn *badger.Txn, boardID string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	prefix := indexEntry(taskByBoardPrefix, boardID, "")
	err := iterateIDs(txn, prefix, func(id string) error {
		var task domain.Task
		if err := getJSON(txn, taskPrefix+id, &task); err != nil {
			return fmt.Errorf("load task %s: %w", id, err)
		}
		tasks = append(tasks, &task)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// loadColumnTasks loads every task of a column.
func loadColumnTasks(txn *badger.Txn, columnID string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	prefix := indexEntry(taskByColumnPrefix, columnID, "")
	err := iterateIDs(txn, prefix, func(id string) error {
		var task domain.Task
		if err := getJSON(txn, taskPrefix+id, &task); err != nil {
			return fmt.Errorf("load task %s: %w", id, err)
		}
		tasks = append(tasks, &task)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// persistTask writes a task, stamping timestamps and version inside the
// transaction. Index keys must already be consistent with task.ColumnID.
func persistTask(txn *badger.Txn, task *domain.Task, now time.Time) error {
	task.UpdatedAt = now
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.BumpVersion()
	return setJSON(txn, taskPrefix+task.ID, task)
}
