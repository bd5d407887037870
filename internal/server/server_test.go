package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snipet/internal/model"
	"github.com/sakif/snipet/internal/server"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := server.New(server.Config{
		Port:      0,
		DBPath:    ":memory:",
		JWTSecret: "integration-test-secret",
	}, logger)
	require.NoError(t, err)

	return srv.Router()
}

// doJSON performs a request against the router, optionally authenticated
// with a bearer token, and returns the recorder.
func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

type authResponse struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

func registerUser(t *testing.T, router http.Handler, name, email string) authResponse {
	t.Helper()

	rr := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp authResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp
}

func createSnippet(t *testing.T, router http.Handler, token, title, code string) model.Snippet {
	t.Helper()

	rr := doJSON(t, router, http.MethodPost, "/api/snippets", token, map[string]string{
		"title": title, "language": "go", "code": code,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var snippet model.Snippet
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&snippet))
	return snippet
}

func TestAuthFlow(t *testing.T) {
	router := newTestServer(t)

	alice := registerUser(t, router, "alice", "alice@example.com")

	// Login returns the token in the body for non-browser clients.
	rr := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	// /api/me resolves the bearer token back to the user.
	rr = doJSON(t, router, http.MethodGet, "/api/me", alice.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var me model.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&me))
	assert.Equal(t, alice.User.ID, me.ID)

	// Without a token, /api/me is a 401.
	rr = doJSON(t, router, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSnippetLifecycle(t *testing.T) {
	router := newTestServer(t)
	alice := registerUser(t, router, "alice", "alice@example.com")

	// Creating a snippet requires auth.
	rr := doJSON(t, router, http.MethodPost, "/api/snippets", "", map[string]string{
		"title": "no auth", "language": "go", "code": "0123456789",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	snippet := createSnippet(t, router, alice.Token, "graceful shutdown", "srv.Shutdown(ctx)")

	// Anyone can read it.
	rr = doJSON(t, router, http.MethodGet, "/api/snippets/"+snippet.ID, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// Editing the code snapshots the old version.
	rr = doJSON(t, router, http.MethodPut, "/api/snippets/"+snippet.ID, alice.Token, map[string]string{
		"title": "graceful shutdown", "language": "go", "code": "srv.Shutdown(ctx) // with timeout",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, router, http.MethodGet, "/api/snippets/"+snippet.ID+"/versions", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var versions struct {
		Versions []model.TimelineEntry `json:"versions"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&versions))
	require.Len(t, versions.Versions, 1)
	assert.Equal(t, "srv.Shutdown(ctx)", versions.Versions[0].Code)
	assert.False(t, versions.Versions[0].Inherited)

	// The diff from that version to the current code.
	diffPath := fmt.Sprintf("/api/snippets/%s/versions/%s/diff", snippet.ID, versions.Versions[0].ID)
	rr = doJSON(t, router, http.MethodGet, diffPath, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var diffResp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&diffResp))
	assert.Contains(t, diffResp["diff"], "+srv.Shutdown(ctx) // with timeout")
}

func TestForkTimeline(t *testing.T) {
	router := newTestServer(t)
	alice := registerUser(t, router, "alice", "alice@example.com")
	bob := registerUser(t, router, "bob", "bob@example.com")

	source := createSnippet(t, router, alice.Token, "origin story", "version one code")

	// Alice revises, leaving a version behind.
	rr := doJSON(t, router, http.MethodPut, "/api/snippets/"+source.ID, alice.Token, map[string]string{
		"title": "origin story", "language": "go", "code": "version two code",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	// Bob forks the result.
	rr = doJSON(t, router, http.MethodPost, "/api/snippets/"+source.ID+"/fork", bob.Token, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var fork model.Snippet
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&fork))
	assert.Equal(t, "Fork of origin story", fork.Title)
	assert.Equal(t, source.ID, fork.ForkedFrom)

	// The fork's timeline shows Alice's pre-fork version as inherited.
	rr = doJSON(t, router, http.MethodGet, "/api/snippets/"+fork.ID+"/versions", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var timeline struct {
		Versions []model.TimelineEntry `json:"versions"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&timeline))
	require.Len(t, timeline.Versions, 1)
	assert.Equal(t, "version one code", timeline.Versions[0].Code)
	assert.True(t, timeline.Versions[0].Inherited)
}

func TestCommentThread(t *testing.T) {
	router := newTestServer(t)
	alice := registerUser(t, router, "alice", "alice@example.com")
	bob := registerUser(t, router, "bob", "bob@example.com")

	snippet := createSnippet(t, router, alice.Token, "discussed", "talked about")

	// Bob comments, Alice replies.
	rr := doJSON(t, router, http.MethodPost, "/api/snippets/"+snippet.ID+"/comments", bob.Token, map[string]string{
		"content": "neat trick",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var top model.Comment
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&top))

	rr = doJSON(t, router, http.MethodPost, "/api/snippets/"+snippet.ID+"/comments", alice.Token, map[string]string{
		"content": "thanks!", "parentId": top.ID,
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	// The thread view: one top-level node carrying its counts, total of 2.
	rr = doJSON(t, router, http.MethodGet, "/api/snippets/"+snippet.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var thread struct {
		Comments []model.CommentNode `json:"comments"`
		Total    int                 `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&thread))
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, 1, thread.Comments[0].ReplyCount)
	assert.Equal(t, 2, thread.Total)

	// Replies are fetched per comment.
	rr = doJSON(t, router, http.MethodGet, "/api/comments/"+top.ID+"/replies", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var replies struct {
		Replies []model.CommentNode `json:"replies"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&replies))
	require.Len(t, replies.Replies, 1)
	assert.Equal(t, "thanks!", replies.Replies[0].Content)

	// Bob cannot edit Alice's reply.
	rr = doJSON(t, router, http.MethodPut, "/api/comments/"+replies.Replies[0].ID, bob.Token, map[string]string{
		"content": "edited by someone else",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestVisibilityToggle(t *testing.T) {
	router := newTestServer(t)
	alice := registerUser(t, router, "alice", "alice@example.com")

	snippet := createSnippet(t, router, alice.Token, "soon hidden", "now you see me")

	rr := doJSON(t, router, http.MethodPost, "/api/snippets/"+snippet.ID+"/visibility", alice.Token, map[string]string{
		"visibility": "private",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, router, http.MethodGet, "/api/snippets/"+snippet.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/snippets/"+snippet.ID, alice.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestPrivateSnippetHidesComments(t *testing.T) {
	router := newTestServer(t)
	alice := registerUser(t, router, "alice", "alice@example.com")
	bob := registerUser(t, router, "bob", "bob@example.com")

	rr := doJSON(t, router, http.MethodPost, "/api/snippets", alice.Token, map[string]string{
		"title": "kept to myself", "language": "go", "code": "secret sauce here", "visibility": "private",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var snippet model.Snippet
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&snippet))

	rr = doJSON(t, router, http.MethodPost, "/api/snippets/"+snippet.ID+"/comments", alice.Token, map[string]string{
		"content": "private discussion",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var comment model.Comment
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&comment))

	// Every read path answers the same 404 to non-authors, comments
	// included.
	for _, token := range []string{"", bob.Token} {
		rr = doJSON(t, router, http.MethodGet, "/api/snippets/"+snippet.ID, token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		rr = doJSON(t, router, http.MethodGet, "/api/snippets/"+snippet.ID+"/comments", token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		rr = doJSON(t, router, http.MethodGet, "/api/comments/"+comment.ID+"/replies", token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	}

	// The author still sees the thread.
	rr = doJSON(t, router, http.MethodGet, "/api/snippets/"+snippet.ID+"/comments", alice.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var thread struct {
		Comments []model.CommentNode `json:"comments"`
		Total    int                 `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&thread))
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, 1, thread.Total)
}

func TestUpvoteToggleEndpoint(t *testing.T) {
	router := newTestServer(t)
	alice := registerUser(t, router, "alice", "alice@example.com")
	bob := registerUser(t, router, "bob", "bob@example.com")

	snippet := createSnippet(t, router, alice.Token, "popular", "well liked")

	var state struct {
		Upvoted bool `json:"upvoted"`
		Count   int  `json:"count"`
	}

	rr := doJSON(t, router, http.MethodPost, "/api/snippets/"+snippet.ID+"/upvote", bob.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&state))
	assert.True(t, state.Upvoted)
	assert.Equal(t, 1, state.Count)

	rr = doJSON(t, router, http.MethodPost, "/api/snippets/"+snippet.ID+"/upvote", bob.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&state))
	assert.False(t, state.Upvoted)
	assert.Equal(t, 0, state.Count)

	// Anonymous status read.
	rr = doJSON(t, router, http.MethodGet, "/api/snippets/"+snippet.ID+"/upvotes", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestValidationErrorShape(t *testing.T) {
	router := newTestServer(t)
	alice := registerUser(t, router, "alice", "alice@example.com")

	rr := doJSON(t, router, http.MethodPost, "/api/snippets", alice.Token, map[string]string{
		"title": "ab", "language": "go", "code": "0123456789",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var errResp struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
	assert.Equal(t, "validation_failed", errResp.Error)
	assert.Equal(t, "title", errResp.Field)
}
