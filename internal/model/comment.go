package model

import "time"

// Comment is a comment on a snippet. ParentID is empty for top-level
// comments and references another comment on the same snippet for replies.
type Comment struct {
	ID        string    `json:"id"        db:"id"`
	SnippetID string    `json:"snippetId" db:"snippet_id"`
	ParentID  string    `json:"parentId,omitempty" db:"parent_id"` // empty for top-level
	AuthorID  string    `json:"authorId"  db:"author_id"`
	Content   string    `json:"content"   db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Author is the expanded author record, populated by list queries.
	Author *User `json:"author,omitempty" db:"-"`
}

// Edited reports whether the comment was changed after posting.
func (c *Comment) Edited() bool {
	return c.UpdatedAt.After(c.CreatedAt)
}

// CommentNode is a comment decorated with the counts the thread view
// renders next to it. Replies themselves are fetched on demand.
type CommentNode struct {
	Comment
	ReplyCount  int `json:"replyCount"`
	UpvoteCount int `json:"upvoteCount"`
}
