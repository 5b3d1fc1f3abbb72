package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrStorage      = errors.New("storage failure")
)

// NotFoundError indicates a resource was not found
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string        { return e.Message }
func (e *NotFoundError) StatusCode() int      { return http.StatusNotFound }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError indicates invalid input. Fields carries a field->message
// map mirroring the form-validation contract consumed by the front-end.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string        { return e.Message }
func (e *ValidationError) StatusCode() int      { return http.StatusUnprocessableEntity }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError represents a resource conflict or an illegal state transition.
type ConflictError struct {
	Message      string
	ResourceType string // document, revision, distribution, category
	ResourceID   string
}

func (e *ConflictError) Error() string        { return e.Message }
func (e *ConflictError) StatusCode() int      { return http.StatusConflict }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// UnauthorizedError indicates authentication failure
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string        { return e.Message }
func (e *UnauthorizedError) StatusCode() int      { return http.StatusUnauthorized }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// ForbiddenError indicates the actor lacks permission for the operation
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string        { return e.Message }
func (e *ForbiddenError) StatusCode() int      { return http.StatusForbidden }
func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// StorageError wraps a file-store failure. The underlying cause is kept for
// logging only; handlers surface a generic message without internal paths.
type StorageError struct {
	Message string
	Cause   error
}

func (e *StorageError) Error() string        { return e.Message }
func (e *StorageError) Unwrap() error        { return e.Cause }
func (e *StorageError) StatusCode() int      { return http.StatusInternalServerError }
func (e *StorageError) Is(target error) bool { return target == ErrStorage }
