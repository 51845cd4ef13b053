package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	"github.com/flowdeckapp/flowdeck-server/internal/errors"
	"github.com/flowdeckapp/flowdeck-server/internal/id"
	"github.com/flowdeckapp/flowdeck-server/internal/richtext"
	"github.com/flowdeckapp/flowdeck-server/internal/sse"
	"github.com/flowdeckapp/flowdeck-server/internal/store"
	"github.com/flowdeckapp/flowdeck-server/internal/tags"
)

// TaskService orchestrates the task command surface: create, update, move,
// delete, tagging, checklist, and assignment changes. Every mutation appends
// an activity entry and broadcasts the updated task.
type TaskService struct {
	store      *store.Store
	boards     *BoardService
	sseManager *sse.Manager
	logger     *slog.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(store *store.Store, boards *BoardService, sseManager *sse.Manager, logger *slog.Logger) *TaskService {
	return &TaskService{
		store:      store,
		boards:     boards,
		sseManager: sseManager,
		logger:     logger,
	}
}

// CreateTaskParams carries the client-supplied fields for a new task.
type CreateTaskParams struct {
	BoardID     string
	ColumnID    string
	Title       string
	Description string
	Priority    domain.Priority
	StartDate   *time.Time
	DueDate     *time.Time
	Tags        []domain.Tag
	Checklist   []domain.ChecklistItem
	Assignees   []string
}

// CreateTask creates a task at the end of its column.
func (s *TaskService) CreateTask(ctx context.Context, actorID string, params CreateTaskParams) (*domain.Task, error) {
	// 1. Validate the command.
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, errors.Validation("task title must not be empty")
	}
	if params.ColumnID == "" {
		return nil, errors.Validation("task column id must not be empty")
	}
	if params.Priority == "" {
		params.Priority = domain.PriorityMedium
	}
	if !params.Priority.Valid() {
		return nil, errors.Validationf("invalid priority: %s", params.Priority)
	}

	board, err := s.boards.requireMember(ctx, params.BoardID, actorID)
	if err != nil {
		return nil, err
	}

	// 2. Resolve tag colors against the board-wide registry.
	boardTasks, err := s.store.ListBoardTasks(ctx, params.BoardID)
	if err != nil {
		return nil, err
	}
	resolvedTags, err := tags.Normalize(params.Tags, tags.Collect(boardTasks))
	if err != nil {
		return nil, err
	}

	// 3. Assemble the task.
	taskID, err := id.Generate("task")
	if err != nil {
		return nil, err
	}
	task := &domain.Task{
		BoardID:     params.BoardID,
		ColumnID:    params.ColumnID,
		Title:       title,
		Description: richtext.Normalize(params.Description),
		Priority:    params.Priority,
		StartDate:   params.StartDate,
		DueDate:     params.DueDate,
		Tags:        resolvedTags,
		CreatedBy:   actorID,
	}
	task.ID = taskID
	task.TimeTracking = domain.NewTimeTracking()

	for _, item := range params.Checklist {
		itemID, err := id.Generate("chk")
		if err != nil {
			return nil, err
		}
		item.ID = itemID
		task.Checklist = append(task.Checklist, item)
	}

	for _, memberID := range params.Assignees {
		if !board.HasMember(memberID) {
			return nil, errors.Validationf("assignee %s is not a board member", memberID)
		}
		if !task.HasAssignee(memberID) {
			task.AssignedMemberIDs = append(task.AssignedMemberIDs, memberID)
		}
	}

	entry, err := s.newActivity(actorID, domain.ActivityTaskCreated, fmt.Sprintf("created task %q", title))
	if err != nil {
		return nil, err
	}
	task.Activity = append(task.Activity, entry)

	// 4. Persist and fan out.
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	s.indexTask(ctx, task)

	s.sseManager.Emit(sse.NewTaskEvent(sse.EventTaskCreated, task, actorID))

	s.logger.Info("task created",
		"task_id", taskID,
		"board_id", params.BoardID,
		"column_id", params.ColumnID,
		"actor_id", actorID,
	)
	return task, nil
}

// UpdateTaskParams carries the updatable task fields. Nil pointers leave the
// field untouched. Column and position are absent on purpose: updates never
// move a task.
type UpdateTaskParams struct {
	Title       *string
	Description *string
	Priority    *domain.Priority
	StartDate   **time.Time
	DueDate     **time.Time
	Tags        *[]domain.Tag
	Checklist   *[]domain.ChecklistItem
}

// UpdateTask applies field changes to a task, recording one activity entry
// per changed field.
func (s *TaskService) UpdateTask(ctx context.Context, taskID, actorID string, params UpdateTaskParams) (*domain.Task, error) {
	current, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.requireMember(ctx, current.BoardID, actorID); err != nil {
		return nil, err
	}

	// Resolve tag colors before entering the write path.
	var resolvedTags []domain.Tag
	if params.Tags != nil {
		boardTasks, err := s.store.ListBoardTasks(ctx, current.BoardID)
		if err != nil {
			return nil, err
		}
		resolvedTags, err = tags.Normalize(*params.Tags, tags.Collect(boardTasks))
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.store.MutateTask(ctx, taskID, func(task *domain.Task) error {
		if params.Title != nil {
			trimmed := strings.TrimSpace(*params.Title)
			if trimmed == "" {
				return errors.Validation("task title must not be empty")
			}
			if trimmed != task.Title {
				if err := s.appendFieldChange(task, actorID, "title", task.Title, trimmed); err != nil {
					return err
				}
				task.Title = trimmed
			}
		}
		if params.Description != nil {
			normalized := richtext.Normalize(*params.Description)
			if normalized != task.Description {
				if err := s.appendFieldChange(task, actorID, "description", "", ""); err != nil {
					return err
				}
				task.Description = normalized
			}
		}
		if params.Priority != nil {
			if !params.Priority.Valid() {
				return errors.Validationf("invalid priority: %s", *params.Priority)
			}
			if *params.Priority != task.Priority {
				if err := s.appendFieldChange(task, actorID, "priority", string(task.Priority), string(*params.Priority)); err != nil {
					return err
				}
				task.Priority = *params.Priority
			}
		}
		if params.StartDate != nil {
			if !datesEqual(task.StartDate, *params.StartDate) {
				if err := s.appendFieldChange(task, actorID, "start_date", formatDate(task.StartDate), formatDate(*params.StartDate)); err != nil {
					return err
				}
				task.StartDate = *params.StartDate
			}
		}
		if params.DueDate != nil {
			if !datesEqual(task.DueDate, *params.DueDate) {
				if err := s.appendFieldChange(task, actorID, "due_date", formatDate(task.DueDate), formatDate(*params.DueDate)); err != nil {
					return err
				}
				task.DueDate = *params.DueDate
			}
		}
		if params.Tags != nil {
			if before, after := tagNames(task.Tags), tagNames(resolvedTags); before != after {
				if err := s.appendFieldChange(task, actorID, "tags", before, after); err != nil {
					return err
				}
				task.Tags = resolvedTags
			}
		}
		if params.Checklist != nil {
			items := *params.Checklist
			for i := range items {
				if items[i].ID == "" {
					itemID, err := id.Generate("chk")
					if err != nil {
						return err
					}
					items[i].ID = itemID
				}
			}
			if !checklistsEqual(task.Checklist, items) {
				if err := s.appendFieldChange(task, actorID, "checklist", "", ""); err != nil {
					return err
				}
				task.Checklist = items
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.indexTask(ctx, updated)

	s.sseManager.Emit(sse.NewTaskEvent(sse.EventTaskUpdated, updated, actorID))
	return updated, nil
}

// MoveTask relocates a task to a column position. This is the only sanctioned
// way to change a task's placement.
func (s *TaskService) MoveTask(ctx context.Context, taskID, actorID, destColumnID string, destIndex int) (*store.MoveResult, error) {
	current, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.requireMember(ctx, current.BoardID, actorID); err != nil {
		return nil, err
	}

	result, err := s.store.MoveTask(ctx, taskID, destColumnID, destIndex)
	if err != nil {
		return nil, err
	}
	if result.NoOp {
		// Dropping a card on its own spot: nothing changed, nothing to say.
		return result, nil
	}

	moved, err := s.store.MutateTask(ctx, taskID, func(task *domain.Task) error {
		entry, err := s.newActivity(actorID, domain.ActivityTaskMoved, "moved task")
		if err != nil {
			return err
		}
		if current.ColumnID != destColumnID {
			entry = entry.WithChange("column", current.ColumnID, destColumnID)
		} else {
			entry = entry.WithChange("position", strconv.Itoa(current.Position), strconv.Itoa(task.Position))
		}
		task.Activity = append(task.Activity, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Task = moved
	s.indexTask(ctx, result.Task)

	s.sseManager.Emit(sse.NewTaskMovedEvent(result.Task, result.Changed, actorID))
	return result, nil
}

// DeleteTask removes a task. Deleting an already-deleted task succeeds
// silently and broadcasts nothing.
func (s *TaskService) DeleteTask(ctx context.Context, taskID, actorID string) error {
	current, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		return err
	}
	if _, err := s.boards.requireMember(ctx, current.BoardID, actorID); err != nil {
		return err
	}

	deleted, err := s.store.DeleteTask(ctx, taskID)
	if err != nil {
		return err
	}
	if !deleted {
		return nil
	}

	if err := s.store.Indexer().DeleteTask(ctx, taskID); err != nil {
		s.logger.Warn("failed to remove task from search index", "task_id", taskID, "error", err)
	}

	s.sseManager.Emit(sse.NewTaskDeletedEvent(current.WorkspaceID, current.BoardID, taskID, actorID))

	s.logger.Info("task deleted", "task_id", taskID, "actor_id", actorID)
	return nil
}

// AssignMember assigns a board member to a task. Idempotent.
func (s *TaskService) AssignMember(ctx context.Context, taskID, actorID, memberID string) (*domain.Task, error) {
	current, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	board, err := s.boards.requireMember(ctx, current.BoardID, actorID)
	if err != nil {
		return nil, err
	}
	if !board.HasMember(memberID) {
		return nil, errors.Validationf("assignee %s is not a board member", memberID)
	}

	updated, err := s.store.MutateTask(ctx, taskID, func(task *domain.Task) error {
		if task.HasAssignee(memberID) {
			return nil
		}
		task.AssignedMemberIDs = append(task.AssignedMemberIDs, memberID)
		entry, err := s.newActivity(actorID, domain.ActivityMemberAssigned, "assigned member")
		if err != nil {
			return err
		}
		task.Activity = append(task.Activity, entry.WithChange("assignees", "", memberID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.indexTask(ctx, updated)

	s.sseManager.Emit(sse.NewTaskEvent(sse.EventTaskUpdated, updated, actorID))
	return updated, nil
}

// UnassignMember removes a member assignment from a task. Idempotent.
func (s *TaskService) UnassignMember(ctx context.Context, taskID, actorID, memberID string) (*domain.Task, error) {
	current, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.requireMember(ctx, current.BoardID, actorID); err != nil {
		return nil, err
	}

	updated, err := s.store.MutateTask(ctx, taskID, func(task *domain.Task) error {
		if !task.HasAssignee(memberID) {
			return nil
		}
		assigned := task.AssignedMemberIDs[:0]
		for _, idVal := range task.AssignedMemberIDs {
			if idVal != memberID {
				assigned = append(assigned, idVal)
			}
		}
		task.AssignedMemberIDs = assigned
		entry, err := s.newActivity(actorID, domain.ActivityMemberUnassigned, "unassigned member")
		if err != nil {
			return err
		}
		task.Activity = append(task.Activity, entry.WithChange("assignees", memberID, ""))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.indexTask(ctx, updated)

	s.sseManager.Emit(sse.NewTaskEvent(sse.EventTaskUpdated, updated, actorID))
	return updated, nil
}

// AddTag adds a named tag to a task, resolving its color through the
// board-wide registry.
func (s *TaskService) AddTag(ctx context.Context, taskID, actorID, name string) (*domain.Task, error) {
	current, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.requireMember(ctx, current.BoardID, actorID); err != nil {
		return nil, err
	}

	boardTasks, err := s.store.ListBoardTasks(ctx, current.BoardID)
	if err != nil {
		return nil, err
	}
	boardTags := tags.Collect(boardTasks)

	updated, err := s.store.MutateTask(ctx, taskID, func(task *domain.Task) error {
		withTag, err := tags.Add(task.Tags, boardTags, name)
		if err != nil {
			return err
		}
		if err := s.appendFieldChange(task, actorID, "tags", tagNames(task.Tags), tagNames(withTag)); err != nil {
			return err
		}
		task.Tags = withTag
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.indexTask(ctx, updated)

	s.sseManager.Emit(sse.NewTaskEvent(sse.EventTaskUpdated, updated, actorID))
	return updated, nil
}

// RemoveTag removes a named tag from a task. Unknown names are a no-op.
func (s *TaskService) RemoveTag(ctx context.Context, taskID, actorID, name string) (*domain.Task, error) {
	current, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.requireMember(ctx, current.BoardID, actorID); err != nil {
		return nil, err
	}

	updated, err := s.store.MutateTask(ctx, taskID, func(task *domain.Task) error {
		// tags.Remove reuses the backing array, so capture the old names first.
		before := tagNames(task.Tags)
		had := len(task.Tags)
		remaining := tags.Remove(task.Tags, name)
		if len(remaining) == had {
			return nil
		}
		if err := s.appendFieldChange(task, actorID, "tags", before, tagNames(remaining)); err != nil {
			return err
		}
		task.Tags = remaining
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.indexTask(ctx, updated)

	s.sseManager.Emit(sse.NewTaskEvent(sse.EventTaskUpdated, updated, actorID))
	return updated, nil
}

// ToggleChecklistItem flips a checklist item's completion state.
func (s *TaskService) ToggleChecklistItem(ctx context.Context, taskID, actorID, itemID string) (*domain.Task, error) {
	current, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.requireMember(ctx, current.BoardID, actorID); err != nil {
		return nil, err
	}

	updated, err := s.store.MutateTask(ctx, taskID, func(task *domain.Task) error {
		item := task.FindChecklistItem(itemID)
		if item == nil {
			return errors.NotFound("checklist item " + itemID + " not found")
		}
		item.Completed = !item.Completed
		entry, err := s.newActivity(actorID, domain.ActivityChecklistToggled, "toggled checklist item")
		if err != nil {
			return err
		}
		task.Activity = append(task.Activity, entry.WithChange("checklist", "", item.Text))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sseManager.Emit(sse.NewTaskEvent(sse.EventTaskUpdated, updated, actorID))
	return updated, nil
}

// GetTask retrieves a single task.
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.store.GetTask(ctx, taskID)
}

// newActivity builds an activity entry with a fresh id.
func (s *TaskService) newActivity(actorID string, typ domain.ActivityType, description string) (domain.ActivityEntry, error) {
	entryID, err := id.Generate("act")
	if err != nil {
		return domain.ActivityEntry{}, err
	}
	return domain.NewActivityEntry(entryID, actorID, typ, description), nil
}

// appendFieldChange records a field_changed activity entry on the task.
func (s *TaskService) appendFieldChange(task *domain.Task, actorID, field, oldValue, newValue string) error {
	entry, err := s.newActivity(actorID, domain.ActivityFieldChanged, "changed "+field)
	if err != nil {
		return err
	}
	task.Activity = append(task.Activity, entry.WithChange(field, oldValue, newValue))
	return nil
}

func datesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// tagNames renders a tag list as the comma-joined display names, the form
// activity entries record.
func tagNames(ts []domain.Tag) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}

func checklistsEqual(a, b []domain.ChecklistItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// indexTask keeps the search index in sync, best effort.
func (s *TaskService) indexTask(ctx context.Context, task *domain.Task) {
	if err := s.store.Indexer().IndexTask(ctx, task); err != nil {
		s.logger.Warn("failed to index task", "task_id", task.ID, "error", err)
	}
}
