package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/sakif/snipet/internal/apperror"
	"github.com/sakif/snipet/internal/model"
	"github.com/sakif/snipet/internal/repository"
)

// mockStore is an in-memory implementation of every repository interface,
// mirroring how the sqlite DB backs them all with one type. Error fields
// let tests simulate storage failures that are hard to trigger for real.
type mockStore struct {
	snippets map[string]*model.Snippet
	versions map[string][]model.SnippetVersion // keyed by snippet ID
	comments map[string]*model.Comment
	upvotes  map[string]map[string]bool // kind+target -> voter set
	users    map[string]*model.User
	nextID   int

	listVersionsErr map[string]error // fail ListVersions for a snippet ID
	snapshotErr     error            // fail UpdateWithSnapshot outright
}

func newMockStore() *mockStore {
	return &mockStore{
		snippets:        make(map[string]*model.Snippet),
		versions:        make(map[string][]model.SnippetVersion),
		comments:        make(map[string]*model.Comment),
		upvotes:         make(map[string]map[string]bool),
		users:           make(map[string]*model.User),
		listVersionsErr: make(map[string]error),
	}
}

func (m *mockStore) id() string {
	m.nextID++
	return fmt.Sprintf("mock-%d", m.nextID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- SnippetRepository ---

func (m *mockStore) Create(_ context.Context, snippet *model.Snippet) error {
	snippet.ID = m.id()
	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockStore) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	s, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	out := *s
	return &out, nil
}

func (m *mockStore) List(_ context.Context, filter repository.SnippetFilter) ([]model.Snippet, error) {
	var out []model.Snippet
	for _, s := range m.snippets {
		if s.Visibility == model.VisibilityPrivate && s.AuthorID != filter.ViewerID {
			continue
		}
		if filter.AuthorID != "" && s.AuthorID != filter.AuthorID {
			continue
		}
		if filter.Language != "" && s.Language != filter.Language {
			continue
		}
		if filter.Search != "" && !strings.Contains(s.Title+s.Description+s.Code+s.Language, filter.Search) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockStore) Update(_ context.Context, snippet *model.Snippet) error {
	if _, ok := m.snippets[snippet.ID]; !ok {
		return apperror.NotFound("snippet", snippet.ID)
	}
	snippet.UpdatedAt = time.Now()
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockStore) UpdateWithSnapshot(_ context.Context, snippet *model.Snippet, snapshot *model.SnippetVersion, expected time.Time) error {
	if m.snapshotErr != nil {
		return m.snapshotErr
	}
	stored, ok := m.snippets[snippet.ID]
	if !ok {
		return apperror.NotFound("snippet", snippet.ID)
	}
	if !stored.UpdatedAt.Equal(expected) {
		return apperror.Conflict("snippet", snippet.ID)
	}
	if snapshot != nil {
		snapshot.ID = m.id()
		snapshot.CreatedAt = time.Now()
		m.versions[snippet.ID] = append(m.versions[snippet.ID], *snapshot)
	}
	snippet.UpdatedAt = time.Now().Add(time.Millisecond) // always advances the stamp
	copy := *snippet
	m.snippets[snippet.ID] = &copy
	return nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	if _, ok := m.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(m.snippets, id)
	return nil
}

// --- VersionRepository ---

func (m *mockStore) GetVersionByID(_ context.Context, id string) (*model.SnippetVersion, error) {
	for _, list := range m.versions {
		for _, v := range list {
			if v.ID == id {
				out := v
				return &out, nil
			}
		}
	}
	return nil, apperror.NotFound("version", id)
}

func (m *mockStore) ListVersions(_ context.Context, snippetID string) ([]model.SnippetVersion, error) {
	if err := m.listVersionsErr[snippetID]; err != nil {
		return nil, err
	}
	out := append([]model.SnippetVersion(nil), m.versions[snippetID]...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// addVersion seeds a version directly, bypassing the revise flow.
func (m *mockStore) addVersion(snippetID, code string, createdAt time.Time) model.SnippetVersion {
	v := model.SnippetVersion{
		ID:        m.id(),
		SnippetID: snippetID,
		Code:      code,
		Language:  "go",
		CreatedAt: createdAt,
	}
	m.versions[snippetID] = append(m.versions[snippetID], v)
	return v
}

// --- CommentRepository ---

func (m *mockStore) CreateComment(_ context.Context, comment *model.Comment) error {
	comment.ID = m.id()
	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m *mockStore) GetCommentByID(_ context.Context, id string) (*model.Comment, error) {
	c, ok := m.comments[id]
	if !ok {
		return nil, apperror.NotFound("comment", id)
	}
	out := *c
	return &out, nil
}

func (m *mockStore) ListTopLevel(_ context.Context, snippetID string, _ repository.ListOptions) ([]model.Comment, error) {
	return m.listComments(func(c *model.Comment) bool {
		return c.SnippetID == snippetID && c.ParentID == ""
	}), nil
}

func (m *mockStore) ListReplies(_ context.Context, parentID string) ([]model.Comment, error) {
	return m.listComments(func(c *model.Comment) bool {
		return c.ParentID == parentID
	}), nil
}

func (m *mockStore) listComments(keep func(*model.Comment) bool) []model.Comment {
	var out []model.Comment
	for _, c := range m.comments {
		if keep(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *mockStore) CountReplies(ctx context.Context, parentID string) (int, error) {
	replies, _ := m.ListReplies(ctx, parentID)
	return len(replies), nil
}

func (m *mockStore) CountBySnippet(_ context.Context, snippetID string) (int, error) {
	n := 0
	for _, c := range m.comments {
		if c.SnippetID == snippetID {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) UpdateComment(_ context.Context, comment *model.Comment) error {
	if _, ok := m.comments[comment.ID]; !ok {
		return apperror.NotFound("comment", comment.ID)
	}
	comment.UpdatedAt = time.Now()
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m *mockStore) DeleteComment(_ context.Context, id string) error {
	if _, ok := m.comments[id]; !ok {
		return apperror.NotFound("comment", id)
	}
	delete(m.comments, id)
	// Emulate the FK cascade on the reply subtree.
	for childID, c := range m.comments {
		if c.ParentID == id {
			m.DeleteComment(context.Background(), childID)
		}
	}
	return nil
}

// --- UpvoteRepository ---

func upvoteKey(kind model.UpvoteKind, targetID string) string {
	return string(kind) + ":" + targetID
}

func (m *mockStore) ToggleUpvote(_ context.Context, kind model.UpvoteKind, targetID, userID string) (bool, error) {
	key := upvoteKey(kind, targetID)
	voters := m.upvotes[key]
	if voters == nil {
		voters = make(map[string]bool)
		m.upvotes[key] = voters
	}
	if voters[userID] {
		delete(voters, userID)
		return false, nil
	}
	voters[userID] = true
	return true, nil
}

func (m *mockStore) CountUpvotes(_ context.Context, kind model.UpvoteKind, targetID string) (int, error) {
	return len(m.upvotes[upvoteKey(kind, targetID)]), nil
}

func (m *mockStore) HasUpvote(_ context.Context, kind model.UpvoteKind, targetID, userID string) (bool, error) {
	return m.upvotes[upvoteKey(kind, targetID)][userID], nil
}

// --- UserRepository ---

func (m *mockStore) CreateUser(_ context.Context, user *model.User) error {
	user.ID = m.id()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	out := *u
	return &out, nil
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockStore) UpsertGitHub(ctx context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.GitHubID == user.GitHubID {
			user.ID = u.ID
			user.CreatedAt = u.CreatedAt
			user.UpdatedAt = time.Now()
			stored := *user
			m.users[u.ID] = &stored
			return nil
		}
	}
	return m.CreateUser(ctx, user)
}

func (m *mockStore) UpdateUser(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	user.UpdatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

// seedSnippet puts a snippet straight into the store.
func (m *mockStore) seedSnippet(t *testing.T, authorID, title, code string) *model.Snippet {
	t.Helper()
	s := &model.Snippet{
		Title:      title,
		Language:   "go",
		Code:       code,
		Visibility: model.VisibilityPublic,
		AuthorID:   authorID,
	}
	if err := m.Create(context.Background(), s); err != nil {
		t.Fatalf("seeding snippet: %v", err)
	}
	return s
}
