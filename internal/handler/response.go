// Package handler contains HTTP handlers. Handlers decode requests, call
// services and encode responses; all policy lives in the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/snipet/internal/apperror"
)

// errorResponse is the JSON shape for all error replies.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("encoding response", slog.Any("error", err))
		}
	}
}

// writeError maps application errors to HTTP status codes. Unknown errors
// become a generic 500 so internal details never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp := errorResponse{Message: appErr.Message, Field: appErr.Field}

		switch {
		case errors.Is(err, apperror.ErrNotFound):
			resp.Error = "not_found"
			writeJSON(w, http.StatusNotFound, resp)
		case errors.Is(err, apperror.ErrValidation):
			resp.Error = "validation_failed"
			writeJSON(w, http.StatusBadRequest, resp)
		case errors.Is(err, apperror.ErrConflict):
			resp.Error = "conflict"
			writeJSON(w, http.StatusConflict, resp)
		case errors.Is(err, apperror.ErrForbidden):
			resp.Error = "forbidden"
			writeJSON(w, http.StatusForbidden, resp)
		case errors.Is(err, apperror.ErrUnauthorized):
			resp.Error = "unauthorized"
			writeJSON(w, http.StatusUnauthorized, resp)
		default:
			resp.Error = "internal"
			writeJSON(w, http.StatusInternalServerError, resp)
		}
		return
	}

	slog.Error("unhandled error", slog.Any("error", err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "internal",
		Message: "something went wrong",
	})
}

// decodeBody decodes the request body into v, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperror.ValidationFailed("body", "invalid request body")
	}
	return nil
}
