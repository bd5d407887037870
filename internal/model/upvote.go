package model

import "time"

// UpvoteKind selects which collection an upvote targets.
type UpvoteKind string

const (
	UpvoteSnippet UpvoteKind = "snippet"
	UpvoteComment UpvoteKind = "comment"
)

// Valid reports whether k is a known upvote kind.
func (k UpvoteKind) Valid() bool {
	return k == UpvoteSnippet || k == UpvoteComment
}

// Upvote records that a user upvoted a target. At most one exists per
// (target, user) pair; toggling off deletes the row.
type Upvote struct {
	ID        string    `json:"id"        db:"id"`
	TargetID  string    `json:"targetId"  db:"target_id"`
	UserID    string    `json:"userId"    db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
