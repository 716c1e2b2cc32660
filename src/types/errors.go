package types

import (
	"errors"
	"net/http"
)

type ErrorKind int

const (
	ErrValidation ErrorKind = iota + 1
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrConflict
)

var statusByKind = map[ErrorKind]int{
	ErrValidation:   http.StatusBadRequest,
	ErrUnauthorized: http.StatusUnauthorized,
	ErrForbidden:    http.StatusForbidden,
	ErrNotFound:     http.StatusNotFound,
	ErrConflict:     http.StatusConflict,
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a client-facing failure. Anything that is not an APIError is
// reported to clients as a generic internal error.
type APIError struct {
	Kind    ErrorKind
	Message string
	Errors  []FieldError
	cause   error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

func (e *APIError) StatusCode() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Wrap keeps the underlying error for logs without exposing it to clients.
func (e *APIError) Wrap(cause error) *APIError {
	e.cause = cause
	return e
}

func NewValidationError(message string, fields ...FieldError) *APIError {
	return &APIError{Kind: ErrValidation, Message: message, Errors: fields}
}

func NewUnauthorizedError(message string) *APIError {
	return &APIError{Kind: ErrUnauthorized, Message: message}
}

func NewForbiddenError(message string) *APIError {
	return &APIError{Kind: ErrForbidden, Message: message}
}

func NewNotFoundError(message string) *APIError {
	return &APIError{Kind: ErrNotFound, Message: message}
}

func NewConflictError(message string) *APIError {
	return &APIError{Kind: ErrConflict, Message: message}
}

// IsKind reports whether err, or anything it wraps, is an APIError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
