package service

import (
	"context"
	"log/slog"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	"github.com/flowdeckapp/flowdeck-server/internal/errors"
	"github.com/flowdeckapp/flowdeck-server/internal/id"
	"github.com/flowdeckapp/flowdeck-server/internal/position"
	"github.com/flowdeckapp/flowdeck-server/internal/share"
	"github.com/flowdeckapp/flowdeck-server/internal/store"
)

// ShareService issues and resolves read-only board share links. A share is a
// signed token plus a store record; revoking deletes the record so a valid
// token alone is not enough.
type ShareService struct {
	store  *store.Store
	boards *BoardService
	tokens *share.TokenService
	logger *slog.Logger
}

// NewShareService creates a new share service.
func NewShareService(store *store.Store, boards *BoardService, tokens *share.TokenService, logger *slog.Logger) *ShareService {
	return &ShareService{
		store:  store,
		boards: boards,
		tokens: tokens,
		logger: logger,
	}
}

// Issue creates a share link for a board. Issuing again replaces the existing
// share, invalidating the previous token.
func (s *ShareService) Issue(ctx context.Context, boardID, actorID string) (*store.ShareRecord, error) {
	board, err := s.boards.requireMember(ctx, boardID, actorID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(board.WorkspaceID, boardID, actorID)
	if err != nil {
		return nil, err
	}

	// One active share per board: drop the old record before creating.
	if existing, err := s.store.Shares.GetByIndex(ctx, "board", boardID); err == nil {
		if err := s.store.Shares.Delete(ctx, existing.ID); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	recordID, err := id.Generate("share")
	if err != nil {
		return nil, err
	}
	record := &store.ShareRecord{
		WorkspaceID: board.WorkspaceID,
		BoardID:     boardID,
		Token:       token,
		CreatedBy:   actorID,
	}
	record.ID = recordID

	if err := s.store.Shares.Create(ctx, recordID, record); err != nil {
		return nil, err
	}

	s.logger.Info("share issued", "board_id", boardID, "actor_id", actorID)
	return record, nil
}

// Revoke removes a board's active share link. Idempotent.
func (s *ShareService) Revoke(ctx context.Context, boardID, actorID string) error {
	if _, err := s.boards.requireMember(ctx, boardID, actorID); err != nil {
		return err
	}

	existing, err := s.store.Shares.GetByIndex(ctx, "board", boardID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.store.Shares.Delete(ctx, existing.ID); err != nil {
		return err
	}

	s.logger.Info("share revoked", "board_id", boardID, "actor_id", actorID)
	return nil
}

// Resolve verifies a share token and returns the board read-only. The token
// must verify and the share record must still exist.
func (s *ShareService) Resolve(ctx context.Context, token string) (*domain.BoardAggregate, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	record, err := s.store.Shares.GetByIndex(ctx, "board", claims.BoardID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.Unauthorized("share link has been revoked")
		}
		return nil, err
	}
	if record.Token != token {
		return nil, errors.Unauthorized("share link has been superseded")
	}

	agg, err := s.store.GetBoardAggregate(ctx, claims.BoardID)
	if err != nil {
		return nil, err
	}
	position.SortTasks(agg.Tasks)
	return agg, nil
}
