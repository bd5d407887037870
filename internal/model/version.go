package model

import "time"

// SnippetVersion is an immutable snapshot of a snippet's code, captured at
// the moment an edit replaces it. Versions are only ever inserted; nothing
// updates or rewrites one after the fact.
type SnippetVersion struct {
	ID          string    `json:"id"          db:"id"`
	SnippetID   string    `json:"snippetId"   db:"snippet_id"`
	Code        string    `json:"code"        db:"code"`
	Language    string    `json:"language"    db:"language"`
	Description string    `json:"description" db:"description"`
	AuthorID    string    `json:"authorId"    db:"author_id"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}

// TimelineEntry is one row of a snippet's merged version history.
// Inherited marks versions pulled in from the fork parent.
type TimelineEntry struct {
	SnippetVersion
	Inherited bool `json:"inherited"`
}
