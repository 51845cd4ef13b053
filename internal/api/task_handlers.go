package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	"github.com/flowdeckapp/flowdeck-server/internal/service"
)

func (s *Server) registerTaskRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createTask",
		Method:      http.MethodPost,
		Path:        "/api/v1/boards/{boardId}/tasks",
		Summary:     "Create task",
		Description: "Creates a task at the end of its column",
		Tags:        []string{"Tasks"},
	}, s.handleCreateTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTask",
		Method:      http.MethodGet,
		Path:        "/api/v1/tasks/{taskId}",
		Summary:     "Get task",
		Description: "Returns a task by ID",
		Tags:        []string{"Tasks"},
	}, s.handleGetTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTask",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tasks/{taskId}",
		Summary:     "Update task",
		Description: "Updates task fields; never changes column or position",
		Tags:        []string{"Tasks"},
	}, s.handleUpdateTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTask",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tasks/{taskId}",
		Summary:     "Delete task",
		Description: "Deletes a task; deleting twice succeeds",
		Tags:        []string{"Tasks"},
	}, s.handleDeleteTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveTask",
		Method:      http.MethodPost,
		Path:        "/api/v1/tasks/{taskId}/move",
		Summary:     "Move task",
		Description: "Moves a task to a column position",
		Tags:        []string{"Tasks"},
	}, s.handleMoveTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "assignMember",
		Method:      http.MethodPost,
		Path:        "/api/v1/tasks/{taskId}/assignees",
		Summary:     "Assign member",
		Description: "Assigns a board member to a task",
		Tags:        []string{"Tasks"},
	}, s.handleAssignMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "unassignMember",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tasks/{taskId}/assignees/{memberId}",
		Summary:     "Unassign member",
		Description: "Removes a member assignment from a task",
		Tags:        []string{"Tasks"},
	}, s.handleUnassignMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "addTaskTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tasks/{taskId}/tags",
		Summary:     "Add tag",
		Description: "Adds a tag to a task, reusing the board-wide color for the name",
		Tags:        []string{"Tasks"},
	}, s.handleAddTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeTaskTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tasks/{taskId}/tags/{name}",
		Summary:     "Remove tag",
		Description: "Removes a tag from a task",
		Tags:        []string{"Tasks"},
	}, s.handleRemoveTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleChecklistItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/tasks/{taskId}/checklist/{itemId}/toggle",
		Summary:     "Toggle checklist item",
		Description: "Flips a checklist item's completion state",
		Tags:        []string{"Tasks"},
	}, s.handleToggleChecklistItem)
}

// === DTOs ===

// ChecklistItemRequest is one checklist entry in a task payload.
type ChecklistItemRequest struct {
	Text      string `json:"text" validate:"required,max=500" doc:"Item text"`
	Completed bool   `json:"completed,omitempty" doc:"Completion state"`
}

// CreateTaskRequest is the request body for creating a task.
type CreateTaskRequest struct {
	ColumnID    string                 `json:"column_id" validate:"required" doc:"Target column ID"`
	Title       string                 `json:"title" validate:"required,max=500" doc:"Task title"`
	Description string                 `json:"description,omitempty" doc:"Task description, HTML is converted to Markdown"`
	Priority    string                 `json:"priority,omitempty" validate:"omitempty,oneof=low medium high" doc:"Task priority"`
	StartDate   *time.Time             `json:"start_date,omitempty" doc:"Start date"`
	DueDate     *time.Time             `json:"due_date,omitempty" doc:"Due date"`
	Tags        []string               `json:"tags,omitempty" doc:"Tag names"`
	Checklist   []ChecklistItemRequest `json:"checklist,omitempty" doc:"Checklist items"`
	Assignees   []string               `json:"assignees,omitempty" doc:"Assigned member IDs"`
}

// CreateTaskInput wraps the create task request for Huma.
type CreateTaskInput struct {
	MemberID string `header:"X-Member-ID"`
	BoardID  string `path:"boardId" doc:"Board ID"`
	Body     CreateTaskRequest
}

// TaskOutput wraps a task for Huma.
type TaskOutput struct {
	Body *domain.Task
}

// GetTaskInput contains parameters for fetching a task.
type GetTaskInput struct {
	TaskID string `path:"taskId" doc:"Task ID"`
}

// UpdateTaskRequest is the request body for updating a task. Absent fields
// are untouched. Column and position are deliberately absent; use the move
// operation.
type UpdateTaskRequest struct {
	Title       *string                 `json:"title,omitempty" validate:"omitempty,min=1,max=500" doc:"Task title"`
	Description *string                 `json:"description,omitempty" doc:"Task description"`
	Priority    *string                 `json:"priority,omitempty" validate:"omitempty,oneof=low medium high" doc:"Task priority"`
	StartDate   **time.Time             `json:"start_date,omitempty" doc:"Start date, null clears"`
	DueDate     **time.Time             `json:"due_date,omitempty" doc:"Due date, null clears"`
	Tags        *[]string               `json:"tags,omitempty" doc:"Full replacement tag name list"`
	Checklist   *[]ChecklistItemRequest `json:"checklist,omitempty" doc:"Full replacement checklist"`
}

// UpdateTaskInput wraps the update task request for Huma.
type UpdateTaskInput struct {
	MemberID string `header:"X-Member-ID"`
	TaskID   string `path:"taskId" doc:"Task ID"`
	Body     UpdateTaskRequest
}

// DeleteTaskInput contains parameters for deleting a task.
type DeleteTaskInput struct {
	MemberID string `header:"X-Member-ID"`
	TaskID   string `path:"taskId" doc:"Task ID"`
}

// MoveTaskRequest is the request body for moving a task.
type MoveTaskRequest struct {
	ColumnID string `json:"column_id" validate:"required" doc:"Destination column ID"`
	Position int    `json:"position" validate:"gte=0" doc:"Destination index within the column"`
}

// MoveTaskInput wraps the move task request for Huma.
type MoveTaskInput struct {
	MemberID string `header:"X-Member-ID"`
	TaskID   string `path:"taskId" doc:"Task ID"`
	Body     MoveTaskRequest
}

// MoveTaskResponse describes the outcome of a move.
type MoveTaskResponse struct {
	Task    *domain.Task   `json:"task" doc:"The moved task"`
	Changed []*domain.Task `json:"changed" doc:"Every task whose position was rewritten"`
	NoOp    bool           `json:"no_op" doc:"True when the task was already at the target spot"`
}

// MoveTaskOutput wraps the move response for Huma.
type MoveTaskOutput struct {
	Body MoveTaskResponse
}

// AssignMemberRequest is the request body for assigning a member.
type AssignMemberRequest struct {
	MemberID string `json:"member_id" validate:"required" doc:"Member to assign"`
}

// AssignMemberInput wraps the assign member request for Huma.
type AssignMemberInput struct {
	MemberID string `header:"X-Member-ID"`
	TaskID   string `path:"taskId" doc:"Task ID"`
	Body     AssignMemberRequest
}

// UnassignMemberInput contains parameters for removing an assignment.
type UnassignMemberInput struct {
	MemberID string `header:"X-Member-ID"`
	TaskID   string `path:"taskId" doc:"Task ID"`
	TargetID string `path:"memberId" doc:"Member to unassign"`
}

// AddTagRequest is the request body for tagging a task.
type AddTagRequest struct {
	Name string `json:"name" validate:"required,max=50" doc:"Tag name"`
}

// AddTagInput wraps the add tag request for Huma.
type AddTagInput struct {
	MemberID string `header:"X-Member-ID"`
	TaskID   string `path:"taskId" doc:"Task ID"`
	Body     AddTagRequest
}

// RemoveTagInput contains parameters for removing a tag.
type RemoveTagInput struct {
	MemberID string `header:"X-Member-ID"`
	TaskID   string `path:"taskId" doc:"Task ID"`
	Name     string `path:"name" doc:"Tag name"`
}

// ToggleChecklistInput contains parameters for toggling a checklist item.
type ToggleChecklistInput struct {
	MemberID string `header:"X-Member-ID"`
	TaskID   string `path:"taskId" doc:"Task ID"`
	ItemID   string `path:"itemId" doc:"Checklist item ID"`
}

// === Handlers ===

func (s *Server) handleCreateTask(ctx context.Context, input *CreateTaskInput) (*TaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	task, err := s.services.Task.CreateTask(ctx, actorID, service.CreateTaskParams{
		BoardID:     input.BoardID,
		ColumnID:    input.Body.ColumnID,
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Priority:    domain.Priority(input.Body.Priority),
		StartDate:   input.Body.StartDate,
		DueDate:     input.Body.DueDate,
		Tags:        tagNames(input.Body.Tags),
		Checklist:   checklistItems(input.Body.Checklist),
		Assignees:   input.Body.Assignees,
	})
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleGetTask(ctx context.Context, input *GetTaskInput) (*TaskOutput, error) {
	task, err := s.services.Task.GetTask(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleUpdateTask(ctx context.Context, input *UpdateTaskInput) (*TaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	params := service.UpdateTaskParams{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		StartDate:   input.Body.StartDate,
		DueDate:     input.Body.DueDate,
	}
	if input.Body.Priority != nil {
		p := domain.Priority(*input.Body.Priority)
		params.Priority = &p
	}
	if input.Body.Tags != nil {
		tags := tagNames(*input.Body.Tags)
		params.Tags = &tags
	}
	if input.Body.Checklist != nil {
		items := checklistItems(*input.Body.Checklist)
		params.Checklist = &items
	}

	task, err := s.services.Task.UpdateTask(ctx, input.TaskID, actorID, params)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleDeleteTask(ctx context.Context, input *DeleteTaskInput) (*MessageOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Task.DeleteTask(ctx, input.TaskID, actorID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Task deleted"}}, nil
}

func (s *Server) handleMoveTask(ctx context.Context, input *MoveTaskInput) (*MoveTaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	result, err := s.services.Task.MoveTask(ctx, input.TaskID, actorID, input.Body.ColumnID, input.Body.Position)
	if err != nil {
		return nil, err
	}

	return &MoveTaskOutput{Body: MoveTaskResponse{
		Task:    result.Task,
		Changed: result.Changed,
		NoOp:    result.NoOp,
	}}, nil
}

func (s *Server) handleAssignMember(ctx context.Context, input *AssignMemberInput) (*TaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	task, err := s.services.Task.AssignMember(ctx, input.TaskID, actorID, input.Body.MemberID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleUnassignMember(ctx context.Context, input *UnassignMemberInput) (*TaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.UnassignMember(ctx, input.TaskID, actorID, input.TargetID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleAddTag(ctx context.Context, input *AddTagInput) (*TaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	task, err := s.services.Task.AddTag(ctx, input.TaskID, actorID, input.Body.Name)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleRemoveTag(ctx context.Context, input *RemoveTagInput) (*TaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.RemoveTag(ctx, input.TaskID, actorID, input.Name)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleToggleChecklistItem(ctx context.Context, input *ToggleChecklistInput) (*TaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.ToggleChecklistItem(ctx, input.TaskID, actorID, input.ItemID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

// tagNames converts bare tag names to domain tags; colors are resolved by
// the tag registry.
func tagNames(names []string) []domain.Tag {
	tags := make([]domain.Tag, len(names))
	for i, name := range names {
		tags[i] = domain.Tag{Name: name}
	}
	return tags
}

func checklistItems(items []ChecklistItemRequest) []domain.ChecklistItem {
	out := make([]domain.ChecklistItem, len(items))
	for i, item := range items {
		out[i] = domain.ChecklistItem{Text: item.Text, Completed: item.Completed}
	}
	return out
}
