package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerCommentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "addComment",
		Method:      http.MethodPost,
		Path:        "/api/v1/tasks/{taskId}/comments",
		Summary:     "Add comment",
		Description: "Appends a comment to a task",
		Tags:        []string{"Comments"},
	}, s.handleAddComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateComment",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tasks/{taskId}/comments/{commentId}",
		Summary:     "Update comment",
		Description: "Edits a comment; only the author may edit",
		Tags:        []string{"Comments"},
	}, s.handleUpdateComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteComment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tasks/{taskId}/comments/{commentId}",
		Summary:     "Delete comment",
		Description: "Deletes a comment; the author or a board owner may delete",
		Tags:        []string{"Comments"},
	}, s.handleDeleteComment)
}

// === DTOs ===

// CommentRequest is the request body for adding or editing a comment.
type CommentRequest struct {
	Text string `json:"text" validate:"required,max=10000" doc:"Comment text, HTML is converted to Markdown"`
}

// AddCommentInput wraps the add comment request for Huma.
type AddCommentInput struct {
	MemberID string `header:"X-Member-ID"`
	TaskID   string `path:"taskId" doc:"Task ID"`
	Body     CommentRequest
}

// UpdateCommentInput wraps the update comment request for Huma.
type UpdateCommentInput struct {
	MemberID  string `header:"X-Member-ID"`
	TaskID    string `path:"taskId" doc:"Task ID"`
	CommentID string `path:"commentId" doc:"Comment ID"`
	Body      CommentRequest
}

// DeleteCommentInput contains parameters for deleting a comment.
type DeleteCommentInput struct {
	MemberID  string `header:"X-Member-ID"`
	TaskID    string `path:"taskId" doc:"Task ID"`
	CommentID string `path:"commentId" doc:"Comment ID"`
}

// === Handlers ===

func (s *Server) handleAddComment(ctx context.Context, input *AddCommentInput) (*TaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	task, err := s.services.Comment.Add(ctx, input.TaskID, actorID, input.Body.Text)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleUpdateComment(ctx context.Context, input *UpdateCommentInput) (*TaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	task, err := s.services.Comment.Update(ctx, input.TaskID, input.CommentID, actorID, input.Body.Text)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleDeleteComment(ctx context.Context, input *DeleteCommentInput) (*TaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Comment.Delete(ctx, input.TaskID, input.CommentID, actorID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}
