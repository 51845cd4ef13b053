package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/flowdeckapp/flowdeck-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchTasks",
		Method:      http.MethodGet,
		Path:        "/api/v1/workspaces/{workspaceId}/search",
		Summary:     "Search tasks",
		Description: "Full-text search across the workspace's tasks",
		Tags:        []string{"Search"},
	}, s.handleSearchTasks)
}

// === DTOs ===

// SearchInput contains the search query parameters.
type SearchInput struct {
	WorkspaceID string   `path:"workspaceId" doc:"Workspace ID"`
	Query       string   `query:"q" doc:"Search query text"`
	BoardID     string   `query:"board_id" doc:"Narrow results to one board"`
	ColumnID    string   `query:"column_id" doc:"Narrow results to one column"`
	Priorities  []string `query:"priority" doc:"Filter by priority values"`
	Tags        []string `query:"tags" doc:"Filter by tag names"`
	Assignee    string   `query:"assignee" doc:"Filter to tasks assigned to a member"`
	Limit       int      `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Maximum results to return"`
	Offset      int      `query:"offset" minimum:"0" default:"0" doc:"Results to skip"`
	SortBy      string   `query:"sort_by" enum:"relevance,title,recent" default:"relevance" doc:"Sort field"`
	SortOrder   string   `query:"sort_order" enum:"asc,desc" default:"desc" doc:"Sort direction"`
	Highlight   bool     `query:"highlight" default:"true" doc:"Include match highlighting"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body *search.Result
}

// === Handlers ===

func (s *Server) handleSearchTasks(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if s.services.Search == nil {
		return nil, huma.Error503ServiceUnavailable("Search is not available")
	}

	params := search.DefaultParams()
	params.Query = input.Query
	params.WorkspaceID = input.WorkspaceID
	params.BoardID = input.BoardID
	params.ColumnID = input.ColumnID
	params.Priorities = input.Priorities
	params.Tags = input.Tags
	params.Assignee = input.Assignee
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.Offset > 0 {
		params.Offset = input.Offset
	}
	if input.SortBy != "" {
		params.SortBy = input.SortBy
	}
	if input.SortOrder != "" {
		params.SortOrder = input.SortOrder
	}
	params.Highlight = input.Highlight

	result, err := s.services.Search.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	return &SearchOutput{Body: result}, nil
}
