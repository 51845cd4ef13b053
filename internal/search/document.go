// Package search provides full-text task search backed by Bleve.
package search

import (
	"strings"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
)

// TaskDocument is the flattened, search-oriented projection of a task.
type TaskDocument struct {
	ID          string   `json:"id"`
	WorkspaceID string   `json:"workspace_id"`
	BoardID     string   `json:"board_id"`
	ColumnID    string   `json:"column_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
	Assignees   []string `json:"assignees"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
}

// DocumentFromTask converts a task into its search document.
func DocumentFromTask(task *domain.Task) *TaskDocument {
	doc := &TaskDocument{
		ID:          task.ID,
		WorkspaceID: task.WorkspaceID,
		BoardID:     task.BoardID,
		ColumnID:    task.ColumnID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    string(task.Priority),
		Assignees:   task.AssignedMemberIDs,
		CreatedAt:   task.CreatedAt.UnixMilli(),
		UpdatedAt:   task.UpdatedAt.UnixMilli(),
	}
	for _, tag := range task.Tags {
		doc.Tags = append(doc.Tags, strings.ToLower(tag.Name))
	}
	return doc
}

// ToMap converts the document to a map so field names match the mapping.
func (d *TaskDocument) ToMap() map[string]any {
	return map[string]any{
		"id":           d.ID,
		"workspace_id": d.WorkspaceID,
		"board_id":     d.BoardID,
		"column_id":    d.ColumnID,
		"title":        d.Title,
		"description":  d.Description,
		"priority":     d.Priority,
		"tags":         d.Tags,
		"assignees":    d.Assignees,
		"created_at":   d.CreatedAt,
		"updated_at":   d.UpdatedAt,
	}
}
