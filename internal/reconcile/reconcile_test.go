package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
)

func taskAt(id string, version int64, title string) *domain.Task {
	t := &domain.Task{Title: title}
	t.ID = id
	t.Version = version
	return t
}

func TestApply_DedupesEcho(t *testing.T) {
	s := NewStore()

	d := TaskChange(taskAt("task-1", 3, "write docs"))
	assert.True(t, s.Apply(d))

	// The push echo of the same committed write carries the same version and
	// must be dropped, no matter how often it arrives.
	assert.False(t, s.Apply(d))
	assert.False(t, s.Apply(d))

	got, ok := s.Task("task-1")
	require.True(t, ok)
	assert.Equal(t, "write docs", got.Title)
}

func TestApply_IgnoresStaleVersion(t *testing.T) {
	s := NewStore()

	require.True(t, s.Apply(TaskChange(taskAt("task-1", 5, "current"))))
	assert.False(t, s.Apply(TaskChange(taskAt("task-1", 4, "stale"))))

	got, _ := s.Task("task-1")
	assert.Equal(t, "current", got.Title)
}

func TestApply_LastWriterWins(t *testing.T) {
	s := NewStore()

	require.True(t, s.Apply(TaskChange(taskAt("task-1", 1, "from actor a"))))
	require.True(t, s.Apply(TaskChange(taskAt("task-1", 2, "from actor b"))))

	got, _ := s.Task("task-1")
	assert.Equal(t, "from actor b", got.Title)
	assert.Equal(t, int64(2), got.Version)
}

func TestApply_Deletion(t *testing.T) {
	s := NewStore()

	require.True(t, s.Apply(TaskChange(taskAt("task-1", 1, "doomed"))))
	assert.True(t, s.Apply(Deletion(KindTask, "task-1")))

	_, ok := s.Task("task-1")
	assert.False(t, ok)

	// Deleting again reports no change.
	assert.False(t, s.Apply(Deletion(KindTask, "task-1")))
}

func TestApply_DeletionTombstonesReplayedUpsert(t *testing.T) {
	s := NewStore()

	upsert := TaskChange(taskAt("task-1", 1, "short lived"))
	require.True(t, s.Apply(upsert))
	require.True(t, s.Apply(Deletion(KindTask, "task-1")))

	// A replayed copy of the pre-deletion write must not bring the task back.
	assert.False(t, s.Apply(upsert))
	_, ok := s.Task("task-1")
	assert.False(t, ok)

	// A strictly newer write legitimately recreates the id.
	require.True(t, s.Apply(TaskChange(taskAt("task-1", 2, "recreated"))))
	got, ok := s.Task("task-1")
	require.True(t, ok)
	assert.Equal(t, "recreated", got.Title)
}

func TestStageAndRevert(t *testing.T) {
	s := NewStore()

	require.True(t, s.Apply(TaskChange(taskAt("task-1", 1, "confirmed"))))

	s.Stage(TaskChange(taskAt("task-1", 1, "optimistic")))
	got, _ := s.Task("task-1")
	assert.Equal(t, "optimistic", got.Title)

	// Command failed server-side: roll back to confirmed state.
	s.Revert("task-1")
	got, _ = s.Task("task-1")
	assert.Equal(t, "confirmed", got.Title)

	// Revert with nothing staged is a no-op.
	s.Revert("task-1")
}

func TestStage_ConfirmedByEcho(t *testing.T) {
	s := NewStore()

	require.True(t, s.Apply(TaskChange(taskAt("task-1", 1, "confirmed"))))
	s.Stage(TaskChange(taskAt("task-1", 1, "optimistic")))

	// The authoritative write lands with a bumped version and replaces the
	// overlay wholesale; the snapshot is discarded.
	require.True(t, s.Apply(TaskChange(taskAt("task-1", 2, "server truth"))))
	s.Revert("task-1")

	got, _ := s.Task("task-1")
	assert.Equal(t, "server truth", got.Title)
}

func TestStage_RevertRemovesOptimisticCreate(t *testing.T) {
	s := NewStore()

	s.Stage(TaskChange(taskAt("task-new", 0, "draft")))
	_, ok := s.Task("task-new")
	require.True(t, ok)

	s.Revert("task-new")
	_, ok = s.Task("task-new")
	assert.False(t, ok)
}

func TestApply_KindsAreIndependent(t *testing.T) {
	s := NewStore()

	board := &domain.Board{Title: "Board"}
	board.ID = "board-1"
	board.Version = 1
	column := &domain.Column{Title: "Todo"}
	column.ID = "col-1"
	column.Version = 1

	assert.True(t, s.Apply(BoardChange(board)))
	assert.True(t, s.Apply(ColumnChange(column)))

	_, ok := s.Board("board-1")
	assert.True(t, ok)
	_, ok = s.Column("col-1")
	assert.True(t, ok)
}
