package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
)

func (s *Server) registerBoardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createBoard",
		Method:      http.MethodPost,
		Path:        "/api/v1/workspaces/{workspaceId}/boards",
		Summary:     "Create board",
		Description: "Creates a board with the default column set",
		Tags:        []string{"Boards"},
	}, s.handleCreateBoard)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBoards",
		Method:      http.MethodGet,
		Path:        "/api/v1/workspaces/{workspaceId}/boards",
		Summary:     "List boards",
		Description: "Returns board summaries for a workspace",
		Tags:        []string{"Boards"},
	}, s.handleListBoards)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBoard",
		Method:      http.MethodGet,
		Path:        "/api/v1/boards/{boardId}",
		Summary:     "Get board",
		Description: "Returns a board with its columns and tasks",
		Tags:        []string{"Boards"},
	}, s.handleGetBoard)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBoard",
		Method:      http.MethodPatch,
		Path:        "/api/v1/boards/{boardId}",
		Summary:     "Update board",
		Description: "Updates a board's title and description",
		Tags:        []string{"Boards"},
	}, s.handleUpdateBoard)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBoard",
		Method:      http.MethodDelete,
		Path:        "/api/v1/workspaces/{workspaceId}/boards/{boardId}",
		Summary:     "Delete board",
		Description: "Deletes a board with all its columns and tasks",
		Tags:        []string{"Boards"},
	}, s.handleDeleteBoard)

	huma.Register(s.api, huma.Operation{
		OperationID: "addBoardMember",
		Method:      http.MethodPost,
		Path:        "/api/v1/boards/{boardId}/members",
		Summary:     "Add board member",
		Description: "Adds a member to a board",
		Tags:        []string{"Boards"},
	}, s.handleAddMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeBoardMember",
		Method:      http.MethodDelete,
		Path:        "/api/v1/boards/{boardId}/members/{memberId}",
		Summary:     "Remove board member",
		Description: "Removes a member from a board and unassigns their tasks",
		Tags:        []string{"Boards"},
	}, s.handleRemoveMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "createColumn",
		Method:      http.MethodPost,
		Path:        "/api/v1/boards/{boardId}/columns",
		Summary:     "Create column",
		Description: "Appends a column to a board",
		Tags:        []string{"Columns"},
	}, s.handleCreateColumn)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateColumn",
		Method:      http.MethodPatch,
		Path:        "/api/v1/columns/{columnId}",
		Summary:     "Update column",
		Description: "Updates a column's title and color",
		Tags:        []string{"Columns"},
	}, s.handleUpdateColumn)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteColumn",
		Method:      http.MethodDelete,
		Path:        "/api/v1/columns/{columnId}",
		Summary:     "Delete column",
		Description: "Deletes a column and its tasks",
		Tags:        []string{"Columns"},
	}, s.handleDeleteColumn)

	huma.Register(s.api, huma.Operation{
		OperationID: "reorderColumns",
		Method:      http.MethodPut,
		Path:        "/api/v1/boards/{boardId}/columns/order",
		Summary:     "Reorder columns",
		Description: "Rewrites the board's column order to match the given id list",
		Tags:        []string{"Columns"},
	}, s.handleReorderColumns)
}

// === DTOs ===

// CreateBoardRequest is the request body for creating a board.
type CreateBoardRequest struct {
	Title       string `json:"title" validate:"required,max=200" doc:"Board title"`
	Description string `json:"description,omitempty" validate:"max=2000" doc:"Board description"`
}

// CreateBoardInput wraps the create board request for Huma.
type CreateBoardInput struct {
	MemberID    string `header:"X-Member-ID"`
	MemberName  string `header:"X-Member-Name"`
	WorkspaceID string `path:"workspaceId" doc:"Workspace ID"`
	Body        CreateBoardRequest
}

// BoardOutput wraps a board for Huma.
type BoardOutput struct {
	Body *domain.Board
}

// ListBoardsInput contains parameters for listing boards.
type ListBoardsInput struct {
	WorkspaceID string `path:"workspaceId" doc:"Workspace ID"`
}

// ListBoardsResponse contains board summaries.
type ListBoardsResponse struct {
	Boards []*domain.BoardSummary `json:"boards" doc:"Board summaries"`
}

// ListBoardsOutput wraps the list boards response for Huma.
type ListBoardsOutput struct {
	Body ListBoardsResponse
}

// GetBoardInput contains parameters for fetching a board aggregate.
type GetBoardInput struct {
	BoardID string `path:"boardId" doc:"Board ID"`
}

// BoardAggregateOutput wraps the full board read model for Huma.
type BoardAggregateOutput struct {
	Body *domain.BoardAggregate
}

// UpdateBoardRequest is the request body for updating a board.
type UpdateBoardRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200" doc:"Board title"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000" doc:"Board description"`
}

// UpdateBoardInput wraps the update board request for Huma.
type UpdateBoardInput struct {
	MemberID string `header:"X-Member-ID"`
	BoardID  string `path:"boardId" doc:"Board ID"`
	Body     UpdateBoardRequest
}

// DeleteBoardInput contains parameters for deleting a board.
type DeleteBoardInput struct {
	MemberID    string `header:"X-Member-ID"`
	WorkspaceID string `path:"workspaceId" doc:"Workspace ID"`
	BoardID     string `path:"boardId" doc:"Board ID"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message" doc:"Confirmation message"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// AddMemberRequest is the request body for adding a board member.
type AddMemberRequest struct {
	ID          string `json:"id" validate:"required" doc:"Member ID"`
	DisplayName string `json:"display_name" validate:"required,max=100" doc:"Display name"`
	Email       string `json:"email,omitempty" validate:"omitempty,email" doc:"Email address"`
}

// AddMemberInput wraps the add member request for Huma.
type AddMemberInput struct {
	MemberID string `header:"X-Member-ID"`
	BoardID  string `path:"boardId" doc:"Board ID"`
	Body     AddMemberRequest
}

// RemoveMemberInput contains parameters for removing a board member.
type RemoveMemberInput struct {
	MemberID string `header:"X-Member-ID"`
	BoardID  string `path:"boardId" doc:"Board ID"`
	TargetID string `path:"memberId" doc:"Member to remove"`
}

// CreateColumnRequest is the request body for creating a column.
type CreateColumnRequest struct {
	Title string `json:"title" validate:"required,max=100" doc:"Column title"`
	Color string `json:"color,omitempty" validate:"omitempty,max=30" doc:"Display color"`
}

// CreateColumnInput wraps the create column request for Huma.
type CreateColumnInput struct {
	MemberID string `header:"X-Member-ID"`
	BoardID  string `path:"boardId" doc:"Board ID"`
	Body     CreateColumnRequest
}

// ColumnOutput wraps a column for Huma.
type ColumnOutput struct {
	Body *domain.Column
}

// UpdateColumnRequest is the request body for updating a column.
type UpdateColumnRequest struct {
	Title *string `json:"title,omitempty" validate:"omitempty,min=1,max=100" doc:"Column title"`
	Color *string `json:"color,omitempty" validate:"omitempty,max=30" doc:"Display color"`
}

// UpdateColumnInput wraps the update column request for Huma.
type UpdateColumnInput struct {
	MemberID string `header:"X-Member-ID"`
	ColumnID string `path:"columnId" doc:"Column ID"`
	Body     UpdateColumnRequest
}

// DeleteColumnInput contains parameters for deleting a column.
type DeleteColumnInput struct {
	MemberID string `header:"X-Member-ID"`
	ColumnID string `path:"columnId" doc:"Column ID"`
}

// ReorderColumnsRequest is the request body for reordering columns.
type ReorderColumnsRequest struct {
	ColumnIDs []string `json:"column_ids" validate:"required,min=1" doc:"Complete ordered list of the board's column IDs"`
}

// ReorderColumnsInput wraps the reorder request for Huma.
type ReorderColumnsInput struct {
	MemberID string `header:"X-Member-ID"`
	BoardID  string `path:"boardId" doc:"Board ID"`
	Body     ReorderColumnsRequest
}

// ColumnsResponse contains an ordered set of columns.
type ColumnsResponse struct {
	Columns []*domain.Column `json:"columns" doc:"Columns in display order"`
}

// ColumnsOutput wraps the columns response for Huma.
type ColumnsOutput struct {
	Body ColumnsResponse
}

// === Handlers ===

func (s *Server) handleCreateBoard(ctx context.Context, input *CreateBoardInput) (*BoardOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	board, err := s.services.Board.CreateBoard(ctx, input.WorkspaceID, actorID, input.MemberName, input.Body.Title, input.Body.Description)
	if err != nil {
		return nil, err
	}

	return &BoardOutput{Body: board}, nil
}

func (s *Server) handleListBoards(ctx context.Context, input *ListBoardsInput) (*ListBoardsOutput, error) {
	boards, err := s.services.Board.ListBoards(ctx, input.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if boards == nil {
		boards = []*domain.BoardSummary{}
	}

	return &ListBoardsOutput{Body: ListBoardsResponse{Boards: boards}}, nil
}

func (s *Server) handleGetBoard(ctx context.Context, input *GetBoardInput) (*BoardAggregateOutput, error) {
	agg, err := s.services.Board.GetBoard(ctx, input.BoardID)
	if err != nil {
		return nil, err
	}

	return &BoardAggregateOutput{Body: agg}, nil
}

func (s *Server) handleUpdateBoard(ctx context.Context, input *UpdateBoardInput) (*BoardOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	board, err := s.services.Board.UpdateBoard(ctx, input.BoardID, actorID, input.Body.Title, input.Body.Description)
	if err != nil {
		return nil, err
	}

	return &BoardOutput{Body: board}, nil
}

func (s *Server) handleDeleteBoard(ctx context.Context, input *DeleteBoardInput) (*MessageOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Board.DeleteBoard(ctx, input.WorkspaceID, input.BoardID, actorID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Board deleted"}}, nil
}

func (s *Server) handleAddMember(ctx context.Context, input *AddMemberInput) (*BoardOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	board, err := s.services.Board.AddMember(ctx, input.BoardID, actorID, domain.Member{
		ID:          input.Body.ID,
		DisplayName: input.Body.DisplayName,
		Email:       input.Body.Email,
	})
	if err != nil {
		return nil, err
	}

	return &BoardOutput{Body: board}, nil
}

func (s *Server) handleRemoveMember(ctx context.Context, input *RemoveMemberInput) (*BoardOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	board, err := s.services.Board.RemoveMember(ctx, input.BoardID, actorID, input.TargetID)
	if err != nil {
		return nil, err
	}

	return &BoardOutput{Body: board}, nil
}

func (s *Server) handleCreateColumn(ctx context.Context, input *CreateColumnInput) (*ColumnOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	column, err := s.services.Board.CreateColumn(ctx, input.BoardID, actorID, input.Body.Title, input.Body.Color)
	if err != nil {
		return nil, err
	}

	return &ColumnOutput{Body: column}, nil
}

func (s *Server) handleUpdateColumn(ctx context.Context, input *UpdateColumnInput) (*ColumnOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	column, err := s.services.Board.UpdateColumn(ctx, input.ColumnID, actorID, input.Body.Title, input.Body.Color)
	if err != nil {
		return nil, err
	}

	return &ColumnOutput{Body: column}, nil
}

func (s *Server) handleDeleteColumn(ctx context.Context, input *DeleteColumnInput) (*MessageOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Board.DeleteColumn(ctx, input.ColumnID, actorID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Column deleted"}}, nil
}

func (s *Server) handleReorderColumns(ctx context.Context, input *ReorderColumnsInput) (*ColumnsOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	columns, err := s.services.Board.ReorderColumns(ctx, input.BoardID, actorID, input.Body.ColumnIDs)
	if err != nil {
		return nil, err
	}

	return &ColumnsOutput{Body: ColumnsResponse{Columns: columns}}, nil
}
