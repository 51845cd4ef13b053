// Package position computes and repairs the ordering keys for columns and for
// tasks within a column. Positions are dense integers: after any operation the
// positions of a column's tasks, sorted ascending, equal their index order
// with no gaps.
package position

import (
	"slices"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	"github.com/flowdeckapp/flowdeck-server/internal/errors"
)

// SortTasks orders tasks by position ascending. Ties (possible under
// concurrent moves from different actors) break on most recent update first,
// so the latest authoritative write keeps the contested slot.
func SortTasks(tasks []*domain.Task) {
	slices.SortStableFunc(tasks, func(a, b *domain.Task) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		if a.UpdatedAt.After(b.UpdatedAt) {
			return -1
		}
		if b.UpdatedAt.After(a.UpdatedAt) {
			return 1
		}
		return 0
	})
}

// Renumber sorts tasks and assigns dense positions 0..n-1.
// Returns only the tasks whose position actually changed.
func Renumber(tasks []*domain.Task) []*domain.Task {
	SortTasks(tasks)

	var changed []*domain.Task
	for i, t := range tasks {
		if t.Position != i {
			t.Position = i
			changed = append(changed, t)
		}
	}
	return changed
}

// MovePlan describes the outcome of a task move.
type MovePlan struct {
	// Changed holds every task whose column or position was rewritten,
	// including the moved task itself.
	Changed []*domain.Task
	// NoOp is true when the move resolves to the task's current spot; the
	// caller must skip the write entirely to avoid a spurious broadcast.
	NoOp bool
}

// PlanMove computes the position rewrites for moving task to destColumnID at
// destIndex. source holds the tasks of the task's current column (task
// included); dest holds the destination column's tasks. For same-column moves
// dest is ignored. destIndex is interpreted as the index after removal and is
// clamped into range.
func PlanMove(task *domain.Task, source, dest []*domain.Task, destColumnID string, destIndex int) MovePlan {
	sameColumn := task.ColumnID == destColumnID

	remaining := without(source, task.ID)
	SortTasks(remaining)

	if sameColumn {
		currentIndex := indexOf(source, task.ID)
		destIndex = clamp(destIndex, len(remaining))
		if currentIndex == destIndex {
			return MovePlan{NoOp: true}
		}

		reordered := insertAt(remaining, task, destIndex)
		return MovePlan{Changed: renumberAll(reordered)}
	}

	destTasks := without(dest, task.ID)
	SortTasks(destTasks)
	destIndex = clamp(destIndex, len(destTasks))

	task.ColumnID = destColumnID
	reorderedDest := insertAt(destTasks, task, destIndex)

	changed := renumberAll(reorderedDest)
	changed = append(changed, Renumber(remaining)...)

	// The moved task always counts as changed: its column changed even if
	// its numeric position did not.
	if !containsTask(changed, task.ID) {
		changed = append(changed, task)
	}
	return MovePlan{Changed: changed}
}

// ReorderColumns rewrites each column's order to its index in orderedIDs.
// The id list must be exactly the board's column set.
func ReorderColumns(columns []*domain.Column, orderedIDs []string) ([]*domain.Column, error) {
	if len(orderedIDs) != len(columns) {
		return nil, errors.Validationf("expected %d column ids, got %d", len(columns), len(orderedIDs))
	}

	byID := make(map[string]*domain.Column, len(columns))
	for _, c := range columns {
		byID[c.ID] = c
	}

	var changed []*domain.Column
	seen := make(map[string]bool, len(orderedIDs))
	for i, colID := range orderedIDs {
		col, ok := byID[colID]
		if !ok {
			return nil, errors.Validationf("unknown column id: %s", colID)
		}
		if seen[colID] {
			return nil, errors.Validationf("duplicate column id: %s", colID)
		}
		seen[colID] = true

		if col.Order != i {
			col.Order = i
			changed = append(changed, col)
		}
	}
	return changed, nil
}

// SortColumns orders columns by their order key ascending.
func SortColumns(columns []*domain.Column) {
	slices.SortStableFunc(columns, func(a, b *domain.Column) int {
		return a.Order - b.Order
	})
}

// NextPosition returns the append-at-end position for a new task.
func NextPosition(columnTasks []*domain.Task) int {
	return len(columnTasks)
}

func clamp(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx > n {
		return n
	}
	return idx
}

func indexOf(tasks []*domain.Task, id string) int {
	sorted := slices.Clone(tasks)
	SortTasks(sorted)
	for i, t := range sorted {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func without(tasks []*domain.Task, id string) []*domain.Task {
	out := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func insertAt(tasks []*domain.Task, task *domain.Task, idx int) []*domain.Task {
	out := make([]*domain.Task, 0, len(tasks)+1)
	out = append(out, tasks[:idx]...)
	out = append(out, task)
	out = append(out, tasks[idx:]...)
	return out
}

// renumberAll assigns dense positions by current slice order, without
// re-sorting first. Used after an explicit insert.
func renumberAll(tasks []*domain.Task) []*domain.Task {
	var changed []*domain.Task
	for i, t := range tasks {
		if t.Position != i {
			t.Position = i
			changed = append(changed, t)
		}
	}
	return changed
}

func containsTask(tasks []*domain.Task, id string) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}
