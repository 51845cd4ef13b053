package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/flowdeckapp/flowdeck-server/internal/store"
)

func (s *Server) registerShareRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "issueShare",
		Method:      http.MethodPost,
		Path:        "/api/v1/boards/{boardId}/share",
		Summary:     "Issue share link",
		Description: "Creates a read-only share link for a board; issuing again replaces the existing link",
		Tags:        []string{"Sharing"},
	}, s.handleIssueShare)

	huma.Register(s.api, huma.Operation{
		OperationID: "revokeShare",
		Method:      http.MethodDelete,
		Path:        "/api/v1/boards/{boardId}/share",
		Summary:     "Revoke share link",
		Description: "Removes a board's active share link",
		Tags:        []string{"Sharing"},
	}, s.handleRevokeShare)

	huma.Register(s.api, huma.Operation{
		OperationID: "resolveShare",
		Method:      http.MethodGet,
		Path:        "/api/v1/shared/{token}",
		Summary:     "Resolve share link",
		Description: "Returns the shared board read-only when the token is still valid",
		Tags:        []string{"Sharing"},
	}, s.handleResolveShare)
}

// === DTOs ===

// ShareInput contains parameters for issuing or revoking a share link.
type ShareInput struct {
	MemberID string `header:"X-Member-ID"`
	BoardID  string `path:"boardId" doc:"Board ID"`
}

// ShareOutput wraps the share record for Huma.
type ShareOutput struct {
	Body *store.ShareRecord
}

// ResolveShareInput contains the share token from the URL.
type ResolveShareInput struct {
	Token string `path:"token" doc:"Share token"`
}

// === Handlers ===

func (s *Server) handleIssueShare(ctx context.Context, input *ShareInput) (*ShareOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	record, err := s.services.Share.Issue(ctx, input.BoardID, actorID)
	if err != nil {
		return nil, err
	}

	return &ShareOutput{Body: record}, nil
}

func (s *Server) handleRevokeShare(ctx context.Context, input *ShareInput) (*MessageOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Share.Revoke(ctx, input.BoardID, actorID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Share link revoked"}}, nil
}

func (s *Server) handleResolveShare(ctx context.Context, input *ResolveShareInput) (*BoardAggregateOutput, error) {
	agg, err := s.services.Share.Resolve(ctx, input.Token)
	if err != nil {
		return nil, err
	}

	return &BoardAggregateOutput{Body: agg}, nil
}
