package backup

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	"github.com/flowdeckapp/flowdeck-server/internal/logger"
	"github.com/flowdeckapp/flowdeck-server/internal/store"
)

func newBackupStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir(), nil, store.NewNoopEmitter())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func seedStore(t *testing.T, s *store.Store) (*domain.Board, *domain.Task) {
	t.Helper()
	ctx := context.Background()

	board := &domain.Board{
		WorkspaceID: "ws-1",
		Title:       "Backed up",
		Members:     []domain.Member{{ID: "member-a", DisplayName: "Ada", Role: "owner"}},
	}
	board.ID = "board_backup"
	require.NoError(t, s.CreateBoard(ctx, board))

	column := &domain.Column{BoardID: board.ID, WorkspaceID: "ws-1", Title: "To Do"}
	column.ID = "col_backup"
	require.NoError(t, s.CreateColumn(ctx, column))

	task := &domain.Task{
		BoardID:     board.ID,
		WorkspaceID: "ws-1",
		ColumnID:    column.ID,
		Title:       "Survives the round trip",
		Priority:    domain.PriorityMedium,
	}
	task.ID = "task_backup"
	require.NoError(t, s.CreateTask(ctx, task))

	return board, task
}

func TestBackup_CreateAndList(t *testing.T) {
	s := newBackupStore(t)
	seedStore(t, s)
	log := logger.Discard().Logger
	backupDir := t.TempDir()

	svc := NewService(s, backupDir, "", "Test Server", "1.0.0", log)

	result, err := svc.Create(context.Background(), DefaultOptions())
	require.NoError(t, err)
	assert.Positive(t, result.Size)
	assert.NotEmpty(t, result.Checksum)
	assert.Equal(t, 1, result.Counts.Boards)
	assert.Equal(t, 1, result.Counts.Columns)
	assert.Equal(t, 1, result.Counts.Tasks)

	backups, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, result.Path, backups[0].Path)

	got, err := svc.Get(context.Background(), backups[0].ID)
	require.NoError(t, err)
	assert.Equal(t, result.Size, got.Size)
}

func TestBackup_GetMissing(t *testing.T) {
	s := newBackupStore(t)
	svc := NewService(s, t.TempDir(), "", "Test Server", "1.0.0", logger.Discard().Logger)

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrBackupNotFound)

	err = svc.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrBackupNotFound)
}

func TestRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	source := newBackupStore(t)
	board, task := seedStore(t, source)
	log := logger.Discard().Logger

	svc := NewService(source, t.TempDir(), "", "Test Server", "1.0.0", log)
	result, err := svc.Create(ctx, DefaultOptions())
	require.NoError(t, err)

	// Restore into a fresh store.
	target := newBackupStore(t)
	restore := NewRestoreService(target, log)

	restored, err := restore.Restore(ctx, result.Path, RestoreOptions{Mode: RestoreModeFull})
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Counts.Boards)
	assert.False(t, restored.DryRun)

	gotBoard, err := target.GetBoard(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, "Backed up", gotBoard.Title)

	gotTask, err := target.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Survives the round trip", gotTask.Title)
}

func TestRestore_FullWipesExisting(t *testing.T) {
	ctx := context.Background()
	source := newBackupStore(t)
	seedStore(t, source)
	log := logger.Discard().Logger

	svc := NewService(source, t.TempDir(), "", "Test Server", "1.0.0", log)
	result, err := svc.Create(ctx, DefaultOptions())
	require.NoError(t, err)

	target := newBackupStore(t)
	extra := &domain.Board{WorkspaceID: "ws-2", Title: "Pre-existing"}
	extra.ID = "board_extra"
	require.NoError(t, target.CreateBoard(ctx, extra))

	restore := NewRestoreService(target, log)
	_, err = restore.Restore(ctx, result.Path, RestoreOptions{Mode: RestoreModeFull})
	require.NoError(t, err)

	_, err = target.GetBoard(ctx, extra.ID)
	assert.Error(t, err)
}

func TestRestore_DryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	source := newBackupStore(t)
	board, _ := seedStore(t, source)
	log := logger.Discard().Logger

	svc := NewService(source, t.TempDir(), "", "Test Server", "1.0.0", log)
	result, err := svc.Create(ctx, DefaultOptions())
	require.NoError(t, err)

	target := newBackupStore(t)
	restore := NewRestoreService(target, log)

	restored, err := restore.Restore(ctx, result.Path, RestoreOptions{Mode: RestoreModeFull, DryRun: true})
	require.NoError(t, err)
	assert.True(t, restored.DryRun)
	assert.Equal(t, 1, restored.Counts.Boards)

	_, err = target.GetBoard(ctx, board.ID)
	assert.Error(t, err)
}

func TestRestore_RejectsUnknownMode(t *testing.T) {
	target := newBackupStore(t)
	restore := NewRestoreService(target, logger.Discard().Logger)

	_, err := restore.Restore(context.Background(), filepath.Join(t.TempDir(), "missing.zip"), RestoreOptions{Mode: "partial"})
	assert.ErrorIs(t, err, ErrInvalidBackup)
}

func TestValidate_MissingArchive(t *testing.T) {
	target := newBackupStore(t)
	restore := NewRestoreService(target, logger.Discard().Logger)

	_, err := restore.Validate(context.Background(), filepath.Join(t.TempDir(), "missing.zip"))
	assert.ErrorIs(t, err, ErrBackupNotFound)
}
