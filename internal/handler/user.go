package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snipet/internal/auth"
	"github.com/sakif/snipet/internal/service"
)

// UserHandler handles public profiles.
type UserHandler struct {
	users    *service.UserService
	snippets *service.SnippetService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, snippets *service.SnippetService) *UserHandler {
	return &UserHandler{users: users, snippets: snippets}
}

// Get handles GET /api/users/{userID}. Other users see the public profile
// fields only.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	userID := chi.URLParam(r, "userID")

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	if viewerID == userID {
		writeJSON(w, http.StatusOK, user)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// Update handles PUT /api/users/{userID}. Users can only edit their own
// profile.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	userID := chi.URLParam(r, "userID")

	if viewerID != userID {
		writeJSON(w, http.StatusForbidden, errorResponse{
			Error:   "forbidden",
			Message: "you can only edit your own profile",
		})
		return
	}

	var input service.UpdateProfileInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Snippets handles GET /api/users/{userID}/snippets.
func (h *UserHandler) Snippets(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	limit, offset := pagination(r)

	snippets, err := h.snippets.ListByAuthor(r.Context(), chi.URLParam(r, "userID"), viewerID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"snippets": snippets})
}
