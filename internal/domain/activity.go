package domain

import "time"

// ActivityType classifies an activity log entry.
type ActivityType string

const (
	// ActivityTaskCreated is recorded when a task is created.
	ActivityTaskCreated ActivityType = "task_created"

	// ActivityFieldChanged is recorded when a plain field edit goes through
	// the command layer (title, description, priority, dates).
	ActivityFieldChanged ActivityType = "field_changed"

	// ActivityTaskMoved is recorded when a task changes column or position.
	ActivityTaskMoved ActivityType = "task_moved"

	// ActivityMemberAssigned is recorded when a member is assigned to a task.
	ActivityMemberAssigned ActivityType = "member_assigned"

	// ActivityMemberUnassigned is recorded when a member is removed from a task.
	ActivityMemberUnassigned ActivityType = "member_unassigned"

	// ActivityCommentAdded is recorded by the comment operations, not by the
	// general field-change path.
	ActivityCommentAdded ActivityType = "comment_added"

	// ActivityTimerStarted and friends are recorded by the timer operations.
	ActivityTimerStarted ActivityType = "timer_started"
	ActivityTimerStopped ActivityType = "timer_stopped"
	ActivityTimerReset   ActivityType = "timer_reset"

	// ActivityChecklistToggled is recorded when a checklist item flips state.
	ActivityChecklistToggled ActivityType = "checklist_toggled"
)

// ActivityEntry is one line of a task's append-only history.
// Entries are immutable once created; normal operations never edit or delete them.
type ActivityEntry struct {
	ID          string       `json:"id"`
	AuthorID    string       `json:"author_id"`
	Type        ActivityType `json:"type"`
	Field       string       `json:"field,omitempty"`
	OldValue    string       `json:"old_value,omitempty"`
	NewValue    string       `json:"new_value,omitempty"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewActivityEntry builds an entry with the creation timestamp set.
// The id is assigned by the caller.
func NewActivityEntry(id, authorID string, typ ActivityType, description string) ActivityEntry {
	return ActivityEntry{
		ID:          id,
		AuthorID:    authorID,
		Type:        typ,
		Description: description,
		CreatedAt:   time.Now(),
	}
}

// WithChange attaches field/old/new detail to an entry.
func (a ActivityEntry) WithChange(field, oldValue, newValue string) ActivityEntry {
	a.Field = field
	a.OldValue = oldValue
	a.NewValue = newValue
	return a
}
