package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snipet/internal/auth"
	"github.com/sakif/snipet/internal/model"
	"github.com/sakif/snipet/internal/service"
)

// SnippetHandler handles snippet CRUD, forking, version history and
// snippet upvotes.
type SnippetHandler struct {
	snippets *service.SnippetService
	versions *service.VersionService
	comments *service.CommentService
	upvotes  *service.UpvoteService
}

// NewSnippetHandler creates a SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, versions *service.VersionService, comments *service.CommentService, upvotes *service.UpvoteService) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, versions: versions, comments: comments, upvotes: upvotes}
}

// pagination reads limit/offset query parameters, zero when absent.
// Repositories clamp the values.
func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// Create handles POST /api/snippets.
func (h *SnippetHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var input service.CreateSnippetInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.snippets.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// List handles GET /api/snippets with optional search, language, limit and
// offset query parameters.
func (h *SnippetHandler) List(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	limit, offset := pagination(r)

	snippets, err := h.snippets.Feed(r.Context(), viewerID,
		r.URL.Query().Get("search"),
		r.URL.Query().Get("language"),
		limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"snippets": snippets})
}

// Get handles GET /api/snippets/{snippetID}.
func (h *SnippetHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.Get(r.Context(), chi.URLParam(r, "snippetID"), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// Update handles PUT /api/snippets/{snippetID}. A code change snapshots the
// previous code into the version history.
func (h *SnippetHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var input service.ReviseSnippetInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.versions.Revise(r.Context(), chi.URLParam(r, "snippetID"), userID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// Delete handles DELETE /api/snippets/{snippetID}.
func (h *SnippetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.snippets.Delete(r.Context(), chi.URLParam(r, "snippetID"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Fork handles POST /api/snippets/{snippetID}/fork.
func (h *SnippetHandler) Fork(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	fork, err := h.snippets.Fork(r.Context(), chi.URLParam(r, "snippetID"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, fork)
}

type visibilityRequest struct {
	Visibility string `json:"visibility"`
}

// SetVisibility handles POST /api/snippets/{snippetID}/visibility.
func (h *SnippetHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req visibilityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.snippets.SetVisibility(r.Context(), chi.URLParam(r, "snippetID"), userID, model.Visibility(req.Visibility))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// Versions handles GET /api/snippets/{snippetID}/versions, returning the
// merged timeline including inherited fork-parent versions.
func (h *SnippetHandler) Versions(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	timeline, err := h.versions.Timeline(r.Context(), chi.URLParam(r, "snippetID"), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"versions": timeline})
}

// Diff handles GET /api/snippets/{snippetID}/versions/{versionID}/diff.
func (h *SnippetHandler) Diff(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	text, err := h.versions.Diff(r.Context(),
		chi.URLParam(r, "snippetID"),
		chi.URLParam(r, "versionID"),
		viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"diff": text})
}

// ToggleUpvote handles POST /api/snippets/{snippetID}/upvote.
func (h *SnippetHandler) ToggleUpvote(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	state, err := h.upvotes.Toggle(r.Context(), model.UpvoteSnippet, chi.URLParam(r, "snippetID"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// Upvotes handles GET /api/snippets/{snippetID}/upvotes.
func (h *SnippetHandler) Upvotes(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	state, err := h.upvotes.Status(r.Context(), model.UpvoteSnippet, chi.URLParam(r, "snippetID"), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

type createCommentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parentId"`
}

// CreateComment handles POST /api/snippets/{snippetID}/comments.
func (h *SnippetHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createCommentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), chi.URLParam(r, "snippetID"), req.ParentID, userID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// Comments handles GET /api/snippets/{snippetID}/comments, returning the
// top-level comments with reply and upvote counts, plus the total comment
// count for the snippet.
func (h *SnippetHandler) Comments(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	snippetID := chi.URLParam(r, "snippetID")
	limit, offset := pagination(r)

	nodes, err := h.comments.TopLevel(r.Context(), snippetID, viewerID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	total, err := h.comments.Count(r.Context(), snippetID, viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"comments": nodes,
		"total":    total,
	})
}
