// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage provides the concrete implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"
	"time"

	"github.com/sakif/snipet/internal/model"
)

// ListOptions holds generic pagination parameters.
type ListOptions struct {
	Limit  int
	Offset int
}

// SnippetFilter narrows a snippet listing. Search matches as a substring
// against title, description, code and language. An empty field means
// "don't filter on it". ViewerID, when set, additionally includes that
// author's private snippets (everyone always sees public ones).
type SnippetFilter struct {
	Search   string
	Language string
	AuthorID string
	ViewerID string
	Limit    int
	Offset   int
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	List(ctx context.Context, filter SnippetFilter) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error

	// UpdateWithSnapshot applies snippet as the new state, optionally writing
	// snapshot first, both in one transaction. The update only proceeds if the
	// stored updated_at still equals expected; otherwise nothing is written
	// and apperror.ErrConflict is returned. A failed snapshot write aborts
	// the whole operation.
	UpdateWithSnapshot(ctx context.Context, snippet *model.Snippet, snapshot *model.SnippetVersion, expected time.Time) error

	Delete(ctx context.Context, id string) error
}

type VersionRepository interface {
	GetVersionByID(ctx context.Context, id string) (*model.SnippetVersion, error)
	// ListVersions returns the snippet's versions newest first.
	ListVersions(ctx context.Context, snippetID string) ([]model.SnippetVersion, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetCommentByID(ctx context.Context, id string) (*model.Comment, error)
	// ListTopLevel returns parentless comments on a snippet, oldest first.
	ListTopLevel(ctx context.Context, snippetID string, opts ListOptions) ([]model.Comment, error)
	// ListReplies returns the direct children of a comment, oldest first.
	ListReplies(ctx context.Context, parentID string) ([]model.Comment, error)
	CountReplies(ctx context.Context, parentID string) (int, error)
	CountBySnippet(ctx context.Context, snippetID string) (int, error)
	UpdateComment(ctx context.Context, comment *model.Comment) error
	// DeleteComment removes a comment and, by cascade, its entire reply subtree.
	DeleteComment(ctx context.Context, id string) error
}

type UpvoteRepository interface {
	// ToggleUpvote flips the (target, user) upvote: deletes it when present,
	// creates it otherwise, atomically. Returns true when the upvote now
	// exists.
	ToggleUpvote(ctx context.Context, kind model.UpvoteKind, targetID, userID string) (bool, error)
	CountUpvotes(ctx context.Context, kind model.UpvoteKind, targetID string) (int, error)
	HasUpvote(ctx context.Context, kind model.UpvoteKind, targetID, userID string) (bool, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHub inserts or updates a user keyed on their GitHub ID.
	UpsertGitHub(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error
}
