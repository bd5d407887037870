package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snipet/internal/auth"
	"github.com/sakif/snipet/internal/model"
	"github.com/sakif/snipet/internal/service"
)

// CommentHandler handles operations addressed to a comment directly:
// editing, deleting, listing replies and upvoting.
type CommentHandler struct {
	comments *service.CommentService
	upvotes  *service.UpvoteService
}

// NewCommentHandler creates a CommentHandler.
func NewCommentHandler(comments *service.CommentService, upvotes *service.UpvoteService) *CommentHandler {
	return &CommentHandler{comments: comments, upvotes: upvotes}
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

// Update handles PUT /api/comments/{commentID}.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req updateCommentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.comments.Update(r.Context(), chi.URLParam(r, "commentID"), userID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, comment)
}

// Delete handles DELETE /api/comments/{commentID}.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.comments.Delete(r.Context(), chi.URLParam(r, "commentID"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Replies handles GET /api/comments/{commentID}/replies.
func (h *CommentHandler) Replies(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	nodes, err := h.comments.Replies(r.Context(), chi.URLParam(r, "commentID"), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"replies": nodes})
}

// ToggleUpvote handles POST /api/comments/{commentID}/upvote.
func (h *CommentHandler) ToggleUpvote(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	state, err := h.upvotes.Toggle(r.Context(), model.UpvoteComment, chi.URLParam(r, "commentID"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}
