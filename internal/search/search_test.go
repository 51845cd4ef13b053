package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	"github.com/flowdeckapp/flowdeck-server/internal/logger"
)

func newTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	idx, err := NewSearchIndex(Options{
		DataPath: t.TempDir(),
		Logger:   logger.Discard().Logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, idx.Close())
	})
	return idx
}

func indexedTask(id, workspaceID, boardID, title string, tags ...string) *domain.Task {
	task := &domain.Task{
		WorkspaceID: workspaceID,
		BoardID:     boardID,
		ColumnID:    "col-1",
		Title:       title,
		Priority:    domain.PriorityMedium,
	}
	task.ID = id
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()
	for _, name := range tags {
		task.Tags = append(task.Tags, domain.Tag{Name: name})
	}
	return task
}

func TestSearch_TitleMatch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexTask(ctx, indexedTask("task-1", "ws-1", "board-1", "Fix login redirect")))
	require.NoError(t, idx.IndexTask(ctx, indexedTask("task-2", "ws-1", "board-1", "Write onboarding docs")))

	params := DefaultParams()
	params.Query = "login"
	params.WorkspaceID = "ws-1"

	result, err := idx.Search(ctx, params)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "task-1", result.Hits[0].ID)
	assert.Equal(t, "Fix login redirect", result.Hits[0].Title)
}

func TestSearch_WorkspaceScope(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexTask(ctx, indexedTask("task-1", "ws-1", "board-1", "Deploy staging")))
	require.NoError(t, idx.IndexTask(ctx, indexedTask("task-2", "ws-2", "board-2", "Deploy production")))

	params := DefaultParams()
	params.Query = "deploy"
	params.WorkspaceID = "ws-1"

	result, err := idx.Search(ctx, params)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "task-1", result.Hits[0].ID)
}

func TestSearch_ColumnFilter(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	inProgress := indexedTask("task-1", "ws-1", "board-1", "Migrate billing job")
	inProgress.ColumnID = "col-2"
	require.NoError(t, idx.IndexTask(ctx, inProgress))
	require.NoError(t, idx.IndexTask(ctx, indexedTask("task-2", "ws-1", "board-1", "Migrate search job")))

	params := DefaultParams()
	params.WorkspaceID = "ws-1"
	params.ColumnID = "col-2"

	result, err := idx.Search(ctx, params)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "task-1", result.Hits[0].ID)
	assert.Equal(t, "col-2", result.Hits[0].ColumnID)
}

func TestSearch_TagFilter(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexTask(ctx, indexedTask("task-1", "ws-1", "board-1", "API cleanup", "Backend")))
	require.NoError(t, idx.IndexTask(ctx, indexedTask("task-2", "ws-1", "board-1", "Button polish", "Frontend")))

	params := DefaultParams()
	params.WorkspaceID = "ws-1"
	params.Tags = []string{"backend"}

	result, err := idx.Search(ctx, params)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "task-1", result.Hits[0].ID)
}

func TestDeleteTask(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexTask(ctx, indexedTask("task-1", "ws-1", "board-1", "Doomed task")))
	require.NoError(t, idx.DeleteTask(ctx, "task-1"))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestIndexTasks_Batch(t *testing.T) {
	idx := newTestIndex(t)

	tasks := []*domain.Task{
		indexedTask("task-1", "ws-1", "board-1", "one"),
		indexedTask("task-2", "ws-1", "board-1", "two"),
		indexedTask("task-3", "ws-1", "board-1", "three"),
	}
	require.NoError(t, idx.IndexTasks(tasks))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestRebuild_EmptiesIndex(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexTask(ctx, indexedTask("task-1", "ws-1", "board-1", "stale")))
	require.NoError(t, idx.Rebuild())

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
