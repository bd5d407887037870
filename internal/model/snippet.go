// Package model defines the data structures used throughout the application.
//
// Each store collection has a closed, explicitly-typed record here. Unknown
// fields coming back from the database are simply not scanned; records
// never pass through as open maps.
package model

import "time"

// Visibility controls who can see a snippet.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is one of the two known visibility values.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Snippet represents a published code snippet.
//
// AuthorID is set at creation and never changes. ForkedFrom, when non-empty,
// references the snippet this one was forked from; it is set once by the
// fork operation and is never self-referential.
type Snippet struct {
	ID          string     `json:"id"          db:"id"`
	Title       string     `json:"title"       db:"title"`
	Description string     `json:"description" db:"description"`
	Language    string     `json:"language"    db:"language"`
	Code        string     `json:"code"        db:"code"`
	Visibility  Visibility `json:"visibility"  db:"visibility"`
	AuthorID    string     `json:"authorId"    db:"author_id"`
	ForkedFrom  string     `json:"forkedFrom,omitempty" db:"forked_from"` // empty when not a fork
	CreatedAt   time.Time  `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt"   db:"updated_at"`

	// Author is the expanded author record (id/name/avatar), populated by
	// list and detail queries. Nil when not expanded.
	Author *User `json:"author,omitempty" db:"-"`
}
