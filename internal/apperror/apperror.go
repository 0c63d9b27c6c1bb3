package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("Validation Error")
	ErrConflict       = errors.New("conflict")
	ErrForbidden      = errors.New("forbidden")
	ErrAlreadyEntered = errors.New("already entered")
	ErrStore          = errors.New("store failure")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a state clash with the stored data (duplicate name,
// capacity reached, dependent rows still present). message is shown to the
// caller verbatim.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// AlreadyEntered is returned when a check-in targets a guest who has already
// been admitted. It is kept apart from ErrValidation so door clients can show
// "already inside" rather than a generic input error.
func AlreadyEntered(guestID string) *AppError {
	return &AppError{
		Err:     ErrAlreadyEntered,
		Message: fmt.Sprintf("guest %s has already entered", guestID),
	}
}

// StoreFailure wraps an unexpected persistence error. The message is opaque;
// the cause stays reachable through errors.Unwrap for logging.
func StoreFailure(op string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %w", ErrStore, op, cause),
		Message: "an internal storage error occurred",
	}
}
