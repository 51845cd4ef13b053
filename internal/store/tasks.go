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

// CreateTask persists a new task at the end of its column. The column must
// exist and belong to the task's board.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		var column domain.Column
		if err := getJSON(txn, columnPrefix+task.ColumnID, &column); err != nil {
			return notFoundAs(err, "column "+task.ColumnID+" not found")
		}
		if column.BoardID != task.BoardID {
			return apperrors.Validation("column " + task.ColumnID + " does not belong to board " + task.BoardID)
		}

		key := taskPrefix + task.ID
		if _, err := txn.Get([]byte(key)); err == nil {
			return apperrors.AlreadyExists("task " + task.ID + " already exists")
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check existing task: %w", err)
		}

		siblings, err := loadColumnTasks(txn, task.ColumnID)
		if err != nil {
			return err
		}
		task.Position = position.NextPosition(siblings)
		task.WorkspaceID = column.WorkspaceID

		if err := persistTask(txn, task, time.Now()); err != nil {
			return err
		}
		if err := txn.Set([]byte(indexEntry(taskByBoardPrefix, task.BoardID, task.ID)), []byte(task.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(indexEntry(taskByColumnPrefix, task.ColumnID, task.ID)), []byte(task.ID))
	})
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var task domain.Task
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, taskPrefix+id, &task)
	})
	if err != nil {
		return nil, notFoundAs(err, "task "+id+" not found")
	}
	return &task, nil
}

// ListBoardTasks returns all tasks on a board.
func (s *Store) ListBoardTasks(ctx context.Context, boardID string) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tasks []*domain.Task
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		tasks, err = loadBoardTasks(txn, boardID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListColumnTasks returns a column's tasks sorted by position.
func (s *Store) ListColumnTasks(ctx context.Context, columnID string) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tasks []*domain.Task
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		tasks, err = loadColumnTasks(txn, columnID)
		return err
	})
	if err != nil {
		return nil, err
	}
	position.SortTasks(tasks)
	return tasks, nil
}

// MutateTask is the single write path for in-place task changes: it loads the
// task, applies fn, and persists the result with a fresh version, all in one
// transaction. Column and position are restored afterwards so a mutation can
// never smuggle in a move; moves go through MoveTask only.
//
// Concurrent mutations resolve last-writer-wins: whichever transaction
// commits later overwrites the task wholesale, and the bumped version tells
// clients which state is authoritative.
func (s *Store) MutateTask(ctx context.Context, id string, fn func(task *domain.Task) error) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var task domain.Task
	err := s.update(func(txn *badger.Txn) error {
		if err := getJSON(txn, taskPrefix+id, &task); err != nil {
			return notFoundAs(err, "task "+id+" not found")
		}

		columnID := task.ColumnID
		pos := task.Position
		if err := fn(&task); err != nil {
			return err
		}
		task.ColumnID = columnID
		task.Position = pos

		return persistTask(txn, &task, time.Now())
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task and renumbers its column so positions stay dense.
// Idempotent: deleting a missing task is not an error. The bool reports
// whether a task was actually removed.
func (s *Store) DeleteTask(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	deleted := false
	err := s.update(func(txn *badger.Txn) error {
		var task domain.Task
		if err := getJSON(txn, taskPrefix+id, &task); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		if err := txn.Delete([]byte(indexEntry(taskByBoardPrefix, task.BoardID, id))); err != nil {
			return err
		}
		if err := txn.Delete([]byte(indexEntry(taskByColumnPrefix, task.ColumnID, id))); err != nil {
			return err
		}
		if err := txn.Delete([]byte(taskPrefix + id)); err != nil {
			return err
		}

		siblings, err := loadColumnTasks(txn, task.ColumnID)
		if err != nil {
			return err
		}
		now := time.Now()
		for _, t := range position.Renumber(siblings) {
			if err := persistTask(txn, t, now); err != nil {
				return err
			}
		}

		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// MoveResult reports the outcome of a task move.
type MoveResult struct {
	// Task is the moved task's state after the move.
	Task *domain.Task
	// Changed holds every task rewritten by the move, the moved task included.
	Changed []*domain.Task
	// NoOp is true when the move resolved to the task's current spot and
	// nothing was written.
	NoOp bool
}

// MoveTask relocates a task to destColumnID at destIndex, renumbering both
// affected columns in the same transaction. A move that resolves to the
// task's current spot writes nothing and broadcasts nothing.
func (s *Store) MoveTask(ctx context.Context, taskID, destColumnID string, destIndex int) (*MoveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &MoveResult{}
	err := s.update(func(txn *badger.Txn) error {
		var task domain.Task
		if err := getJSON(txn, taskPrefix+taskID, &task); err != nil {
			return notFoundAs(err, "task "+taskID+" not found")
		}

		var destColumn domain.Column
		if err := getJSON(txn, columnPrefix+destColumnID, &destColumn); err != nil {
			return notFoundAs(err, "column "+destColumnID+" not found")
		}
		if destColumn.BoardID != task.BoardID {
			return apperrors.Validation("column " + destColumnID + " does not belong to board " + task.BoardID)
		}

		sourceColumnID := task.ColumnID
		source, err := loadColumnTasks(txn, sourceColumnID)
		if err != nil {
			return err
		}
		// Operate on the loaded copy of the moved task so plan rewrites and
		// the persisted state stay one object.
		for i, t := range source {
			if t.ID == taskID {
				source[i] = &task
			}
		}

		var dest []*domain.Task
		if sourceColumnID != destColumnID {
			if dest, err = loadColumnTasks(txn, destColumnID); err != nil {
				return err
			}
		}

		plan := position.PlanMove(&task, source, dest, destColumnID, destIndex)
		if plan.NoOp {
			result.Task = &task
			result.NoOp = true
			return nil
		}

		if sourceColumnID != destColumnID {
			if err := txn.Delete([]byte(indexEntry(taskByColumnPrefix, sourceColumnID, taskID))); err != nil {
				return err
			}
			if err := txn.Set([]byte(indexEntry(taskByColumnPrefix, destColumnID, taskID)), []byte(taskID)); err != nil {
				return err
			}
		}

		now := time.Now()
		for _, t := range plan.Changed {
			if err := persistTask(txn, t, now); err != nil {
				return err
			}
		}

		result.Task = &task
		result.Changed = plan.Changed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ActiveTimers returns every task in the workspace with a running timer.
func (s *Store) ActiveTimers(ctx context.Context, workspaceID string) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var running []*domain.Task
	err := s.db.View(func(txn *badger.Txn) error {
		boardIdx := indexEntry(boardByWorkspacePrefix, workspaceID, "")
		boardIDs, err := collectIDs(txn, boardIdx)
		if err != nil {
			return err
		}
		for _, boardID := range boardIDs {
			tasks, err := loadBoardTasks(txn, boardID)
			if err != nil {
				return err
			}
			for _, task := range tasks {
				if task.TimerRunning() {
					running = append(running, task)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return running, nil
}

// ListAllTasks returns every task in the store, used for search reindexing.
func (s *Store) ListAllTasks(ctx context.Context) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tasks []*domain.Task
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(taskPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(taskPrefix)); it.ValidForPrefix([]byte(taskPrefix)); it.Next() {
			if !hasPrefixSkippingIndex(string(it.Item().Key()), taskPrefix) {
				continue
			}
			var task domain.Task
			err := it.Item().Value(func(val []byte) error {
				return unmarshalValue(val, &task)
			})
			if err != nil {
				return err
			}
			tasks = append(tasks, &task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}
