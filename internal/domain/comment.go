package domain

import "time"

// Comment is a user-authored note on a task. Comments live inside the task
// payload; they are not separately versioned entities.
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	ImageRefs []string  `json:"image_refs,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewComment builds a comment with its timestamps set.
func NewComment(id, authorID, content string) Comment {
	now := time.Now()
	return Comment{
		ID:        id,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Edit replaces the comment text and stamps the update time.
func (c *Comment) Edit(content string) {
	c.Content = content
	c.UpdatedAt = time.Now()
}
