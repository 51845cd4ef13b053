package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	apperrors "github.com/flowdeckapp/flowdeck-server/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir(), nil, NewNoopEmitter())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func seedBoard(t *testing.T, s *Store, workspaceID string) *domain.Board {
	t.Helper()

	board := &domain.Board{
		WorkspaceID: workspaceID,
		Title:       "Sprint 42",
	}
	board.ID = "board-" + t.Name()
	require.NoError(t, s.CreateBoard(context.Background(), board))
	return board
}

func seedColumn(t *testing.T, s *Store, board *domain.Board, title string) *domain.Column {
	t.Helper()

	col := &domain.Column{
		BoardID: board.ID,
		Title:   title,
	}
	col.ID = fmt.Sprintf("col-%s-%s", t.Name(), title)
	require.NoError(t, s.CreateColumn(context.Background(), col))
	return col
}

func seedTask(t *testing.T, s *Store, board *domain.Board, col *domain.Column, title string) *domain.Task {
	t.Helper()

	task := &domain.Task{
		BoardID:  board.ID,
		ColumnID: col.ID,
		Title:    title,
	}
	task.ID = fmt.Sprintf("task-%s-%s", t.Name(), title)
	require.NoError(t, s.CreateTask(context.Background(), task))
	return task
}

func TestBoardLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board := seedBoard(t, s, "ws-1")
	assert.Equal(t, int64(1), board.Version)

	got, err := s.GetBoard(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sprint 42", got.Title)

	got.Title = "Sprint 43"
	require.NoError(t, s.UpdateBoard(ctx, got))
	assert.Equal(t, int64(2), got.Version)

	boards, err := s.ListBoards(ctx, "ws-1")
	require.NoError(t, err)
	assert.Len(t, boards, 1)

	other, err := s.ListBoards(ctx, "ws-other")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestBoardDelete_CascadesAndIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board := seedBoard(t, s, "ws-1")
	col := seedColumn(t, s, board, "Todo")
	task := seedTask(t, s, board, col, "write docs")

	require.NoError(t, s.DeleteBoard(ctx, board.ID))

	_, err := s.GetBoard(ctx, board.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	_, err = s.GetColumn(ctx, col.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	_, err = s.GetTask(ctx, task.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	// Second delete is a no-op, not an error.
	require.NoError(t, s.DeleteBoard(ctx, board.ID))
}

func TestBoardSummaries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board := seedBoard(t, s, "ws-1")
	col := seedColumn(t, s, board, "Todo")
	seedColumn(t, s, board, "Done")
	seedTask(t, s, board, col, "one")
	seedTask(t, s, board, col, "two")

	summaries, err := s.BoardSummaries(ctx, "ws-1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].ColumnCount)
	assert.Equal(t, 2, summaries[0].TaskCount)
}

func TestColumnCreate_AppendsOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board := seedBoard(t, s, "ws-1")
	a := seedColumn(t, s, board, "Todo")
	b := seedColumn(t, s, board, "Doing")
	c := seedColumn(t, s, board, "Done")

	assert.Equal(t, 0, a.Order)
	assert.Equal(t, 1, b.Order)
	assert.Equal(t, 2, c.Order)

	cols, err := s.ListColumns(ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, a.ID, cols[0].ID)
}

func TestColumnCreate_UnknownBoard(t *testing.T) {
	s := newTestStore(t)

	col := &domain.Column{BoardID: "board-missing", Title: "Todo"}
	col.ID = "col-x"
	err := s.CreateColumn(context.Background(), col)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestReorderColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board := seedBoard(t, s, "ws-1")
	a := seedColumn(t, s, board, "Todo")
	b := seedColumn(t, s, board, "Doing")
	c := seedColumn(t, s, board, "Done")

	cols, err := s.ReorderColumns(ctx, board.ID, []string{c.ID, a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, c.ID, cols[0].ID)
	assert.Equal(t, a.ID, cols[1].ID)
	assert.Equal(t, b.ID, cols[2].ID)

	// Partial or unknown id lists are rejected.
	_, err = s.ReorderColumns(ctx, board.ID, []string{a.ID})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestColumnDelete_CascadesAndClosesGap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board := seedBoard(t, s, "ws-1")
	a := seedColumn(t, s, board, "Todo")
	b := seedColumn(t, s, board, "Doing")
	c := seedColumn(t, s, board, "Done")
	task := seedTask(t, s, board, b, "in flight")

	require.NoError(t, s.DeleteColumn(ctx, b.ID))

	_, err := s.GetTask(ctx, task.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	cols, err := s.ListColumns(ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, a.ID, cols[0].ID)
	assert.Equal(t, 0, cols[0].Order)
	assert.Equal(t, c.ID, cols[1].ID)
	assert.Equal(t, 1, cols[1].Order)

	require.NoError(t, s.DeleteColumn(ctx, b.ID))
}

func TestTaskCreate_AppendsAtEnd(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board := seedBoard(t, s, "ws-1")
	col := seedColumn(t, s, board, "Todo")

	first := seedTask(t, s, board, col, "first")
	second := seedTask(t, s, board, col, "second")

	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, int64(1), first.Version)

	tasks, err := s.ListColumnTasks(ctx, col.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, first.ID, tasks[0].ID)
}

func TestTaskCreate_ColumnBoardMismatch(t *testing.T) {
	s := newTestStore(t)

	boardA := seedBoard(t, s, "ws-1")
	boardB := &domain.Board{WorkspaceID: "ws-1", Title: "Other"}
	boardB.ID = "board-other"
	require.NoError(t, s.CreateBoard(context.Background(), boardB))
	colB := seedColumn(t, s, boardB, "Todo")

	task := &domain.Task{BoardID: boardA.ID, ColumnID: colB.ID, Title: "stray"}
	task.ID = "task-stray"
	err := s.CreateTask(context.Background(), task)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestMutateTask_PreservesPlacement(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board := seedBoard(t, s, "ws-1")
	col := seedColumn(t, s, board, "Todo")
	task := seedTask(t, s, board, col, "original")

	got, err := s.MutateTask(ctx, task.ID, func(task *domain.Task) error {
		task.Title = "renamed"
		task.ColumnID = "col-hijack"
		task.Position = 99
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, col.ID, got.ColumnID)
	assert.Equal(t, 0, got.Position)
	assert.Equal(t, int64(2), got.Version)
}

func TestMutateTask_ErrorAborts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board := seedBoard(t, s, "ws-1")
	col := seedColumn(t, s, board, "Todo")
	task := seedTask(t, s, board, col, "original")

	_, err := s.MutateTask(ctx, task.ID, func(task *domain.Task) error {
		task.Title = "mutated"
		return apperrors.Conflict("nope")
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)
	assert.Equal(t, int64(1), got.Version)
}

func TestTaskDelete_RenumbersAndIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board := seedBoard(t, s, "ws-1")
	col := seedColumn(t, s, board, "Todo")
	a := seedTask(t, s, board, col, "a")
	b := seedTask(t, s, board, col, "b")
	c := seedTask(t, s, board, col, "c")

	deleted, err := s.DeleteTask(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	tasks, err := s.ListColumnTasks(ctx, col.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, a.ID, tasks[0].ID)
	assert.Equal(t, 0, tasks[0].Position)
	assert.Equal(t, c.ID, tasks[1].ID)
	assert.Equal(t, 1, tasks[1].Position)

	deleted, err = s.DeleteTask(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMoveTask_CrossColumn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board := seedBoard(t, s, "ws-1")
	todo := seedColumn(t, s, board, "Todo")
	done := seedColumn(t, s, board, "Done")
	a := seedTask(t, s, board, todo, "a")
	b := seedTask(t, s, board, todo, "b")
	d := seedTask(t, s, board, done, "d")

	result, err := s.MoveTask(ctx, b.ID, done.ID, 0)
	require.NoError(t, err)
	require.False(t, result.NoOp)
	assert.Equal(t, done.ID, result.Task.ColumnID)
	assert.Equal(t, 0, result.Task.Position)

	doneTasks, err := s.ListColumnTasks(ctx, done.ID)
	require.NoError(t, err)
	require.Len(t, doneTasks, 2)
	assert.Equal(t, b.ID, doneTasks[0].ID)
	assert.Equal(t, d.ID, doneTasks[1].ID)
	assert.Equal(t, 1, doneTasks[1].Position)

	todoTasks, err := s.ListColumnTasks(ctx, todo.ID)
	require.NoError(t, err)
	require.Len(t, todoTasks, 1)
	assert.Equal(t, a.ID, todoTasks[0].ID)
	assert.Equal(t, 0, todoTasks[0].Position)
}

func TestMoveTask_SamePositionIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board := seedBoard(t, s, "ws-1")
	todo := seedColumn(t, s, board, "Todo")
	seedTask(t, s, board, todo, "a")
	b := seedTask(t, s, board, todo, "b")

	result, err := s.MoveTask(ctx, b.ID, todo.ID, 1)
	require.NoError(t, err)
	assert.True(t, result.NoOp)

	// Nothing was written: the version is untouched.
	got, err := s.GetTask(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Version, got.Version)
}

func TestMoveTask_RejectsForeignColumn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board := seedBoard(t, s, "ws-1")
	todo := seedColumn(t, s, board, "Todo")
	task := seedTask(t, s, board, todo, "a")

	other := &domain.Board{WorkspaceID: "ws-1", Title: "Other"}
	other.ID = "board-other"
	require.NoError(t, s.CreateBoard(ctx, other))
	foreign := seedColumn(t, s, other, "Elsewhere")

	_, err := s.MoveTask(ctx, task.ID, foreign.ID, 0)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestActiveTimers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	board := seedBoard(t, s, "ws-1")
	col := seedColumn(t, s, board, "Todo")
	running := seedTask(t, s, board, col, "running")
	seedTask(t, s, board, col, "idle")

	_, err := s.MutateTask(ctx, running.ID, func(task *domain.Task) error {
		task.TimeTracking = domain.NewTimeTracking()
		return task.TimeTracking.Start("member-1", time.Now())
	})
	require.NoError(t, err)

	active, err := s.ActiveTimers(ctx, "ws-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, running.ID, active[0].ID)
}

func TestShares_OnePerBoard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &ShareRecord{WorkspaceID: "ws-1", BoardID: "board-1", Token: "tok-a"}
	rec.ID = "share-1"
	require.NoError(t, s.Shares.Create(ctx, rec.ID, rec))

	dup := &ShareRecord{WorkspaceID: "ws-1", BoardID: "board-1", Token: "tok-b"}
	dup.ID = "share-2"
	err := s.Shares.Create(ctx, dup.ID, dup)
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))

	got, err := s.Shares.GetByIndex(ctx, "board", "board-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-a", got.Token)

	require.NoError(t, s.Shares.Delete(ctx, "share-1"))
	require.NoError(t, s.Shares.Delete(ctx, "share-1"))
}
