package domain

// Board is the root aggregate: an ordered set of columns, the tasks inside
// them, and the members allowed to collaborate. Boards are scoped to a
// workspace; every operation on a board carries the workspace id supplied by
// the caller.
type Board struct {
	Syncable
	WorkspaceID string   `json:"workspace_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Members     []Member `json:"members"`
}

// HasMember returns true if the given member id belongs to this board.
func (b *Board) HasMember(memberID string) bool {
	for _, m := range b.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}

// BoardSummary is the lightweight shape returned by board listings.
// Column and task counts are computed at read time.
type BoardSummary struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ColumnCount int    `json:"column_count"`
	TaskCount   int    `json:"task_count"`
	MemberCount int    `json:"member_count"`
	Version     int64  `json:"version"`
}

// BoardAggregate is the full read model handed to clients: the board plus its
// columns (sorted by order) and tasks (sorted by column, then position).
type BoardAggregate struct {
	Board   *Board    `json:"board"`
	Columns []*Column `json:"columns"`
	Tasks   []*Task   `json:"tasks"`
}

// Member is a board collaborator. Membership management is an external
// concern; within this core members are read-only references used for
// assignment and attribution.
type Member struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	AvatarColor string `json:"avatar_color,omitempty"`
	Role        string `json:"role,omitempty"`
}
