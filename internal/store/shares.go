package store

import "github.com/flowdeckapp/flowdeck-server/internal/domain"

// ShareRecord tracks an issued read-only share link for a board. At most one
// active share exists per board, enforced by the unique board index.
type ShareRecord struct {
	domain.Syncable

	WorkspaceID string `json:"workspace_id"`
	BoardID     string `json:"board_id"`

	// Token is the opaque share token handed to the client. The token itself
	// carries the claims; the record exists for revocation and listing.
	Token     string `json:"token"`
	CreatedBy string `json:"created_by"`
}

func (s *Store) initShares() {
	s.Shares = NewEntity[ShareRecord](s, "share:").
		WithIndex("board", func(r *ShareRecord) []string {
			return []string{r.BoardID}
		})
}
