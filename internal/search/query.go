package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a task search query.
type Params struct {
	Query       string // User's search query
	WorkspaceID string // Required scope
	BoardID     string // Optional narrowing to one board
	ColumnID    string // Optional narrowing to one column

	// Filters
	Priorities []string // Filter by exact priority values
	Tags       []string // Filter by folded tag names (OR across tags)
	Assignee   string   // Filter to tasks assigned to a member

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "relevance", "title", "recent"
	SortOrder string // "asc", "desc"

	Highlight bool // Include match highlighting
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:     20,
		Offset:    0,
		SortBy:    "relevance",
		SortOrder: "desc",
		Highlight: true,
	}
}

// Result represents the search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit represents a single search result.
type Hit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	BoardID    string            `json:"board_id,omitempty"`
	ColumnID   string            `json:"column_id,omitempty"`
	Priority   string            `json:"priority,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(params)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	addSorting(searchRequest, params)

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
	}

	searchRequest.Fields = []string{
		"id", "title", "board_id", "column_id", "priority", "tags",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := Hit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if t, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = t
		}
		if b, ok := hit.Fields["board_id"].(string); ok {
			searchHit.BoardID = b
		}
		if c, ok := hit.Fields["column_id"].(string); ok {
			searchHit.ColumnID = c
		}
		if p, ok := hit.Fields["priority"].(string); ok {
			searchHit.Priority = p
		}
		// Tags come back as a string for a single value, a slice otherwise.
		switch tags := hit.Fields["tags"].(type) {
		case string:
			searchHit.Tags = []string{tags}
		case []any:
			for _, t := range tags {
				if tag, ok := t.(string); ok {
					searchHit.Tags = append(searchHit.Tags, tag)
				}
			}
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params Params) query.Query {
	var queries []query.Query

	// Main text query: match titles and descriptions, with the title boosted
	// and a fuzzy variant for typo tolerance.
	if params.Query != "" {
		textQueries := []query.Query{}

		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		textQueries = append(textQueries, descMatch)

		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars)
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Workspace scope
	if params.WorkspaceID != "" {
		wq := bleve.NewTermQuery(params.WorkspaceID)
		wq.SetField("workspace_id")
		queries = append(queries, wq)
	}

	// Board filter
	if params.BoardID != "" {
		bq := bleve.NewTermQuery(params.BoardID)
		bq.SetField("board_id")
		queries = append(queries, bq)
	}

	// Column filter
	if params.ColumnID != "" {
		cq := bleve.NewTermQuery(params.ColumnID)
		cq.SetField("column_id")
		queries = append(queries, cq)
	}

	// Priority filter (OR across values)
	if len(params.Priorities) > 0 {
		priorityQueries := make([]query.Query, len(params.Priorities))
		for i, p := range params.Priorities {
			pq := bleve.NewTermQuery(p)
			pq.SetField("priority")
			priorityQueries[i] = pq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(priorityQueries...))
	}

	// Tag filter (exact match on folded names, OR across tags)
	if len(params.Tags) > 0 {
		tagQueries := make([]query.Query, len(params.Tags))
		for i, tag := range params.Tags {
			tq := bleve.NewTermQuery(strings.ToLower(tag))
			tq.SetField("tags")
			tagQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(tagQueries...))
	}

	// Assignee filter
	if params.Assignee != "" {
		aq := bleve.NewTermQuery(params.Assignee)
		aq.SetField("assignees")
		queries = append(queries, aq)
	}

	// Combine all queries with AND
	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params Params) {
	switch params.SortBy {
	case "title":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-title"})
		} else {
			req.SortBy([]string{"title"})
		}
	case "recent":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"updated_at"})
		} else {
			req.SortBy([]string{"-updated_at"})
		}
	default:
		// Relevance (score) is default - Bleve handles this
		req.SortBy([]string{"-_score"})
	}
}
