package domain

import "time"

// Priority is the task priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid returns true for a recognized priority value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a card on a board. A task belongs to exactly one column at any
// instant; moving it is an atomic reassignment of ColumnID and Position.
// Position is a dense integer ordering key within the owning column.
type Task struct {
	Syncable
	BoardID     string `json:"board_id"`
	WorkspaceID string `json:"workspace_id"`
	ColumnID    string `json:"column_id"`
	Position    int    `json:"position"`

	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`

	Tags              []Tag           `json:"tags"`
	Checklist         []ChecklistItem `json:"checklist"`
	AssignedMemberIDs []string        `json:"assigned_member_ids"`
	TimeTracking      *TimeTracking   `json:"time_tracking,omitempty"`
	Comments          []Comment       `json:"comments"`
	Activity          []ActivityEntry `json:"activity"`
	ImageRefs         []string        `json:"image_refs,omitempty"`

	CreatedBy string `json:"created_by"`
}

// Tag is a value object: free text plus a color triple drawn from the board
// palette. Tags are not referenced by id; two tasks carrying the same
// case-insensitive name must carry the same color.
type Tag struct {
	Name  string   `json:"name"`
	Color TagColor `json:"color"`
}

// TagColor is the background/text/border class triple a tag renders with.
type TagColor struct {
	Background string `json:"bg"`
	Text       string `json:"text"`
	Border     string `json:"border"`
}

// ChecklistItem is a single checklist entry. Ids are stable across edits so
// concurrent toggles from different clients address the same item.
type ChecklistItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// HasAssignee returns true if the member id is assigned to this task.
func (t *Task) HasAssignee(memberID string) bool {
	for _, id := range t.AssignedMemberIDs {
		if id == memberID {
			return true
		}
	}
	return false
}

// FindChecklistItem returns the checklist item with the given id, or nil.
func (t *Task) FindChecklistItem(itemID string) *ChecklistItem {
	for i := range t.Checklist {
		if t.Checklist[i].ID == itemID {
			return &t.Checklist[i]
		}
	}
	return nil
}

// FindComment returns the comment with the given id, or nil.
func (t *Task) FindComment(commentID string) *Comment {
	for i := range t.Comments {
		if t.Comments[i].ID == commentID {
			return &t.Comments[i]
		}
	}
	return nil
}

// TimerRunning reports whether this task currently has a running timer.
func (t *Task) TimerRunning() bool {
	return t.TimeTracking != nil && t.TimeTracking.IsRunning
}
