package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	"github.com/flowdeckapp/flowdeck-server/internal/errors"
	"github.com/flowdeckapp/flowdeck-server/internal/id"
	"github.com/flowdeckapp/flowdeck-server/internal/richtext"
	"github.com/flowdeckapp/flowdeck-server/internal/sse"
	"github.com/flowdeckapp/flowdeck-server/internal/store"
)

// CommentService manages task comments. Adding a comment writes one activity
// entry; edits and deletions change only the comment itself, the history line
// stays.
type CommentService struct {
	store      *store.Store
	boards     *BoardService
	sseManager *sse.Manager
	logger     *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(store *store.Store, boards *BoardService, sseManager *sse.Manager, logger *slog.Logger) *CommentService {
	return &CommentService{
		store:      store,
		boards:     boards,
		sseManager: sseManager,
		logger:     logger,
	}
}

// Add appends a comment to a task.
func (s *CommentService) Add(ctx context.Context, taskID, actorID, text string) (*domain.Task, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.Validation("comment text must not be empty")
	}

	current, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.requireMember(ctx, current.BoardID, actorID); err != nil {
		return nil, err
	}

	commentID, err := id.Generate("cmt")
	if err != nil {
		return nil, err
	}
	entryID, err := id.Generate("act")
	if err != nil {
		return nil, err
	}

	updated, err := s.store.MutateTask(ctx, taskID, func(task *domain.Task) error {
		task.Comments = append(task.Comments, domain.NewComment(commentID, actorID, richtext.Normalize(text)))
		task.Activity = append(task.Activity,
			domain.NewActivityEntry(entryID, actorID, domain.ActivityCommentAdded, "added a comment"))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sseManager.Emit(sse.NewTaskEvent(sse.EventCommentAdded, updated, actorID))

	s.logger.Info("comment added", "task_id", taskID, "comment_id", commentID, "actor_id", actorID)
	return updated, nil
}

// Update edits a comment's text. Only the comment's author may edit it.
func (s *CommentService) Update(ctx context.Context, taskID, commentID, actorID, text string) (*domain.Task, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.Validation("comment text must not be empty")
	}

	current, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.requireMember(ctx, current.BoardID, actorID); err != nil {
		return nil, err
	}

	updated, err := s.store.MutateTask(ctx, taskID, func(task *domain.Task) error {
		comment := task.FindComment(commentID)
		if comment == nil {
			return errors.NotFound("comment " + commentID + " not found")
		}
		if comment.AuthorID != actorID {
			return errors.Forbidden("only the comment author may edit it")
		}
		comment.Edit(richtext.Normalize(text))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sseManager.Emit(sse.NewTaskEvent(sse.EventCommentUpdated, updated, actorID))
	return updated, nil
}

// Delete removes a comment. The author or any board member with the owner
// role may delete. Deleting a missing comment is a no-op.
func (s *CommentService) Delete(ctx context.Context, taskID, commentID, actorID string) (*domain.Task, error) {
	current, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	board, err := s.boards.requireMember(ctx, current.BoardID, actorID)
	if err != nil {
		return nil, err
	}

	owner := false
	for _, m := range board.Members {
		if m.ID == actorID && m.Role == "owner" {
			owner = true
			break
		}
	}

	removed := false
	updated, err := s.store.MutateTask(ctx, taskID, func(task *domain.Task) error {
		for i, c := range task.Comments {
			if c.ID != commentID {
				continue
			}
			if c.AuthorID != actorID && !owner {
				return errors.Forbidden("only the comment author or a board owner may delete it")
			}
			task.Comments = append(task.Comments[:i], task.Comments[i+1:]...)
			removed = true
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !removed {
		return updated, nil
	}

	s.sseManager.Emit(sse.NewTaskEvent(sse.EventCommentDeleted, updated, actorID))
	return updated, nil
}
