package domain

// Column is a named, ordered bucket of tasks within a board.
// Order is a dense, board-unique integer; reordering rewrites Order only.
type Column struct {
	Syncable
	BoardID     string `json:"board_id"`
	WorkspaceID string `json:"workspace_id"`
	Title       string `json:"title"`
	Color       string `json:"color,omitempty"`
	Order       int    `json:"order"`
}
