package handler

// Every error response of the API has the same shape:
//
//	{"error": "not_found", "message": "guest not found with id 12"}
//	{"error": "validation_error", "message": "name is required", "field": "name"}
//
// so clients can branch on "error" and attach "field" to a form input.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/guestlist/internal/apperror"
	"github.com/sakif/guestlist/internal/auth"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable type, e.g. "already_entered"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending input field, for validation errors
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must be written before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a domain error to its HTTP status and error type.
// AlreadyEntered is checked before Conflict: the client must be able to
// tell "this guest is already inside" from other conflicts.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrAlreadyEntered):
		return http.StatusConflict, "already_entered"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError maps a domain error to the appropriate HTTP response.
//
// Store failures and unknown errors become an opaque 500: the raw message
// may contain SQL or file paths. They are logged with the request's logger
// instead.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, errorType := statusFor(err)

	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: "An internal error occurred",
		})
		return
	}

	resp := ErrorResponse{Error: errorType, Message: err.Error()}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Field = appErr.Field
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a JSON body into dst. Unknown fields and trailing data
// are rejected as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("", "request body is required")
		case errors.As(err, &typeErr):
			return apperror.ValidationFailed(typeErr.Field,
				fmt.Sprintf("%s has the wrong type", typeErr.Field))
		default:
			return apperror.ValidationFailed("", "invalid JSON body: "+err.Error())
		}
	}
	if dec.More() {
		return apperror.ValidationFailed("", "request body must contain a single JSON object")
	}
	return nil
}

// idParam reads a positive integer URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

// callerID is the authenticated user. Every /api route sits behind
// auth.RequireAuth, so an empty value only reaches the services' guard,
// which denies it.
func callerID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}
