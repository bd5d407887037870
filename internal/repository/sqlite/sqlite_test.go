package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/snipet/internal/model"
)

// newTestDB opens a fresh in-memory database for one test. It is destroyed
// when the connection closes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, name string) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: name + "@example.com"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestSnippet(t *testing.T, db *DB, authorID, title, code string) *model.Snippet {
	t.Helper()
	snippet := &model.Snippet{
		Title:      title,
		Language:   "go",
		Code:       code,
		Visibility: model.VisibilityPublic,
		AuthorID:   authorID,
	}
	if err := db.Create(context.Background(), snippet); err != nil {
		t.Fatalf("failed to create test snippet: %v", err)
	}
	return snippet
}

func createTestComment(t *testing.T, db *DB, snippetID, authorID, parentID, content string) *model.Comment {
	t.Helper()
	comment := &model.Comment{
		SnippetID: snippetID,
		AuthorID:  authorID,
		ParentID:  parentID,
		Content:   content,
	}
	if err := db.CreateComment(context.Background(), comment); err != nil {
		t.Fatalf("failed to create test comment: %v", err)
	}
	return comment
}
