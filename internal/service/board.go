package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/flowdeckapp/flowdeck-server/internal/color"
	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	"github.com/flowdeckapp/flowdeck-server/internal/errors"
	"github.com/flowdeckapp/flowdeck-server/internal/id"
	"github.com/flowdeckapp/flowdeck-server/internal/position"
	"github.com/flowdeckapp/flowdeck-server/internal/sse"
	"github.com/flowdeckapp/flowdeck-server/internal/store"
)

// defaultColumns are created with every new board.
var defaultColumns = []string{"To Do", "In Progress", "Done"}

// BoardService orchestrates board and column operations.
type BoardService struct {
	store      *store.Store
	sseManager *sse.Manager
	logger     *slog.Logger
}

// NewBoardService creates a new board service.
func NewBoardService(store *store.Store, sseManager *sse.Manager, logger *slog.Logger) *BoardService {
	return &BoardService{
		store:      store,
		sseManager: sseManager,
		logger:     logger,
	}
}

// CreateBoard creates a board with the actor as its first member and the
// default column set.
func (s *BoardService) CreateBoard(ctx context.Context, workspaceID, actorID, actorName, title, description string) (*domain.Board, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.Validation("board title must not be empty")
	}

	boardID, err := id.Generate("board")
	if err != nil {
		return nil, err
	}

	board := &domain.Board{
		WorkspaceID: workspaceID,
		Title:       title,
		Description: description,
		Members: []domain.Member{{
			ID:          actorID,
			DisplayName: actorName,
			AvatarColor: color.ForMember(actorID),
			Role:        "owner",
		}},
	}
	board.ID = boardID

	if err := s.store.CreateBoard(ctx, board); err != nil {
		return nil, err
	}

	for _, columnTitle := range defaultColumns {
		columnID, err := id.Generate("col")
		if err != nil {
			return nil, err
		}
		column := &domain.Column{
			BoardID: boardID,
			Title:   columnTitle,
		}
		column.ID = columnID
		if err := s.store.CreateColumn(ctx, column); err != nil {
			return nil, err
		}
	}

	s.sseManager.Emit(sse.NewBoardEvent(sse.EventBoardCreated, board, actorID))

	s.logger.Info("board created",
		"board_id", boardID,
		"workspace_id", workspaceID,
		"actor_id", actorID,
	)
	return board, nil
}

// ListBoards returns lightweight summaries of a workspace's boards.
func (s *BoardService) ListBoards(ctx context.Context, workspaceID string) ([]*domain.BoardSummary, error) {
	return s.store.BoardSummaries(ctx, workspaceID)
}

// GetBoard returns a board with its full column and task set. Tasks come
// back grouped implicitly by column id, sorted by position within each.
func (s *BoardService) GetBoard(ctx context.Context, boardID string) (*domain.BoardAggregate, error) {
	agg, err := s.store.GetBoardAggregate(ctx, boardID)
	if err != nil {
		return nil, err
	}
	position.SortTasks(agg.Tasks)
	return agg, nil
}

// UpdateBoard changes a board's title and description.
func (s *BoardService) UpdateBoard(ctx context.Context, boardID, actorID string, title, description *string) (*domain.Board, error) {
	board, err := s.requireMember(ctx, boardID, actorID)
	if err != nil {
		return nil, err
	}

	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			return nil, errors.Validation("board title must not be empty")
		}
		board.Title = trimmed
	}
	if description != nil {
		board.Description = *description
	}

	if err := s.store.UpdateBoard(ctx, board); err != nil {
		return nil, err
	}

	s.sseManager.Emit(sse.NewBoardEvent(sse.EventBoardUpdated, board, actorID))
	return board, nil
}

// DeleteBoard removes a board with everything on it. Idempotent.
func (s *BoardService) DeleteBoard(ctx context.Context, workspaceID, boardID, actorID string) error {
	if err := s.store.DeleteBoard(ctx, boardID); err != nil {
		return err
	}

	s.sseManager.Emit(sse.NewBoardDeletedEvent(workspaceID, boardID, actorID))

	s.logger.Info("board deleted", "board_id", boardID, "actor_id", actorID)
	return nil
}

// AddMember adds a member to a board, assigning a deterministic avatar color.
// Adding an existing member updates their display name and email in place.
func (s *BoardService) AddMember(ctx context.Context, boardID, actorID string, member domain.Member) (*domain.Board, error) {
	board, err := s.requireMember(ctx, boardID, actorID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(member.ID) == "" {
		return nil, errors.Validation("member id must not be empty")
	}

	member.AvatarColor = color.ForMember(member.ID)
	if member.Role == "" {
		member.Role = "member"
	}

	replaced := false
	for i, existing := range board.Members {
		if existing.ID == member.ID {
			member.Role = existing.Role
			board.Members[i] = member
			replaced = true
			break
		}
	}
	if !replaced {
		board.Members = append(board.Members, member)
	}

	if err := s.store.UpdateBoard(ctx, board); err != nil {
		return nil, err
	}

	s.sseManager.Emit(sse.NewBoardEvent(sse.EventBoardUpdated, board, actorID))
	return board, nil
}

// RemoveMember removes a member from a board and unassigns them from every
// task. Removing an unknown member is a no-op.
func (s *BoardService) RemoveMember(ctx context.Context, boardID, actorID, memberID string) (*domain.Board, error) {
	board, err := s.requireMember(ctx, boardID, actorID)
	if err != nil {
		return nil, err
	}

	kept := board.Members[:0]
	for _, m := range board.Members {
		if m.ID != memberID {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return nil, errors.Validation("a board must keep at least one member")
	}
	board.Members = kept

	if err := s.store.UpdateBoard(ctx, board); err != nil {
		return nil, err
	}

	// Drop assignments pointing at the removed member.
	tasks, err := s.store.ListBoardTasks(ctx, boardID)
	if err != nil {
		return nil, err
	}
	for _, task := range tasks {
		if !task.HasAssignee(memberID) {
			continue
		}
		updated, err := s.store.MutateTask(ctx, task.ID, func(t *domain.Task) error {
			assigned := t.AssignedMemberIDs[:0]
			for _, idVal := range t.AssignedMemberIDs {
				if idVal != memberID {
					assigned = append(assigned, idVal)
				}
			}
			t.AssignedMemberIDs = assigned
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.sseManager.Emit(sse.NewTaskEvent(sse.EventTaskUpdated, updated, actorID))
	}

	s.sseManager.Emit(sse.NewBoardEvent(sse.EventBoardUpdated, board, actorID))
	return board, nil
}

// CreateColumn appends a new column to a board.
func (s *BoardService) CreateColumn(ctx context.Context, boardID, actorID, title, columnColor string) (*domain.Column, error) {
	if _, err := s.requireMember(ctx, boardID, actorID); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.Validation("column title must not be empty")
	}

	columnID, err := id.Generate("col")
	if err != nil {
		return nil, err
	}
	column := &domain.Column{
		BoardID: boardID,
		Title:   title,
		Color:   columnColor,
	}
	column.ID = columnID

	if err := s.store.CreateColumn(ctx, column); err != nil {
		return nil, err
	}

	s.sseManager.Emit(sse.NewColumnEvent(sse.EventColumnCreated, column, actorID))
	return column, nil
}

// UpdateColumn changes a column's title and color. Ordering is untouchable
// here; reordering goes through ReorderColumns.
func (s *BoardService) UpdateColumn(ctx context.Context, columnID, actorID string, title, columnColor *string) (*domain.Column, error) {
	column, err := s.store.GetColumn(ctx, columnID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, column.BoardID, actorID); err != nil {
		return nil, err
	}

	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			return nil, errors.Validation("column title must not be empty")
		}
		column.Title = trimmed
	}
	if columnColor != nil {
		column.Color = *columnColor
	}

	if err := s.store.UpdateColumn(ctx, column); err != nil {
		return nil, err
	}

	s.sseManager.Emit(sse.NewColumnEvent(sse.EventColumnUpdated, column, actorID))
	return column, nil
}

// DeleteColumn removes a column and its tasks. Idempotent.
func (s *BoardService) DeleteColumn(ctx context.Context, columnID, actorID string) error {
	column, err := s.store.GetColumn(ctx, columnID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		return err
	}
	if _, err := s.requireMember(ctx, column.BoardID, actorID); err != nil {
		return err
	}

	if err := s.store.DeleteColumn(ctx, columnID); err != nil {
		return err
	}

	s.sseManager.Emit(sse.NewColumnDeletedEvent(column.WorkspaceID, column.BoardID, columnID, actorID))

	s.logger.Info("column deleted", "column_id", columnID, "board_id", column.BoardID)
	return nil
}

// ReorderColumns rewrites a board's column order to match orderedIDs, which
// must name exactly the board's columns. Returns the full ordered set.
func (s *BoardService) ReorderColumns(ctx context.Context, boardID, actorID string, orderedIDs []string) ([]*domain.Column, error) {
	board, err := s.requireMember(ctx, boardID, actorID)
	if err != nil {
		return nil, err
	}

	columns, err := s.store.ReorderColumns(ctx, boardID, orderedIDs)
	if err != nil {
		return nil, err
	}

	s.sseManager.Emit(sse.NewColumnsReorderedEvent(board.WorkspaceID, boardID, columns, actorID))
	return columns, nil
}

// requireMember loads a board and verifies the actor belongs to it.
func (s *BoardService) requireMember(ctx context.Context, boardID, actorID string) (*domain.Board, error) {
	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !board.HasMember(actorID) {
		return nil, errors.Forbidden("actor " + actorID + " is not a member of board " + boardID)
	}
	return board, nil
}
