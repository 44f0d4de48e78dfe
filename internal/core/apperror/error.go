// Package apperror provides structured error handling following RFC 7807 Problem Details.
// Every error that reaches an API client or a CLI user is an AppError.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. Each maps to one HTTP status in statusByCode.
const (
	CodeInternal               = "INTERNAL_ERROR"
	CodeStoreUnavailable       = "STORE_UNAVAILABLE"
	CodeValidation             = "VALIDATION_ERROR"
	CodeFormat                 = "FORMAT_ERROR"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeNotFound               = "NOT_FOUND"
	CodeDuplicate              = "DUPLICATE_ENTRY"
	CodeIdempotency            = "IDEMPOTENCY_CONFLICT"
)

var statusByCode = map[string]int{
	CodeInternal:               http.StatusInternalServerError,
	CodeStoreUnavailable:       http.StatusServiceUnavailable,
	CodeValidation:             http.StatusBadRequest,
	CodeFormat:                 http.StatusUnprocessableEntity,
	CodeConcurrentModification: http.StatusConflict,
	CodeUnauthorized:           http.StatusUnauthorized,
	CodeForbidden:              http.StatusForbidden,
	CodeNotFound:               http.StatusNotFound,
	CodeDuplicate:              http.StatusConflict,
	CodeIdempotency:            http.StatusConflict,
}

// AppError is the standard error type of the service.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the status the API answers with.
	HTTPStatus int `json:"-"`

	// Err is the underlying error, never serialized.
	Err error `json:"-"`
}

// New creates an AppError whose status follows from code.
func New(code, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func NewValidation(message string) *AppError {
	return New(CodeValidation, message)
}

func NewNotFound(entity string, id any) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity)).
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewFormat reports a value that cannot be rendered into, or read back
// from, its mask.
func NewFormat(message string) *AppError {
	return New(CodeFormat, message)
}

// NewStoreUnavailable reports a counter or generator store that could not be
// reached. The caller may retry.
func NewStoreUnavailable(store string, err error) *AppError {
	return New(CodeStoreUnavailable, "Counter store is unavailable, retry later").
		WithDetail("store", store).
		WithDetail("retryable", true).
		WithCause(err)
}

// NewConcurrentModification reports a stale optimistic-lock version.
func NewConcurrentModification(entity string, id any) *AppError {
	return New(CodeConcurrentModification, "Record was modified by another user. Please refresh and try again.").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewInternal hides err from the client.
func NewInternal(err error) *AppError {
	return New(CodeInternal, "Internal server error").WithCause(err)
}

func NewUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func NewForbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

// NewIdempotencyConflict is returned while another request holds the key.
func NewIdempotencyConflict(key string) *AppError {
	return New(CodeIdempotency, "Operation already in progress or completed").
		WithDetail("idempotency_key", key)
}

// NewIdempotencyMismatch is returned when an idempotency key is reused for
// a different request (user, operation or body).
func NewIdempotencyMismatch(key string) *AppError {
	return New(CodeIdempotency, "Idempotency key mismatch").
		WithDetail("idempotency_key", key)
}

func NewDuplicate(entity, field, value string) *AppError {
	return New(CodeDuplicate, fmt.Sprintf("%s with this %s already exists", entity, field)).
		WithDetail("entity", entity).
		WithDetail("field", field).
		WithDetail("value", value)
}

// IsAppError checks if err carries an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// Retryable reports whether repeating the failed call may succeed.
func Retryable(err error) bool {
	return HasCode(err, CodeStoreUnavailable)
}

func IsNotFound(err error) bool               { return HasCode(err, CodeNotFound) }
func IsDuplicate(err error) bool              { return HasCode(err, CodeDuplicate) }
func IsStoreUnavailable(err error) bool       { return HasCode(err, CodeStoreUnavailable) }
func IsConcurrentModification(err error) bool { return HasCode(err, CodeConcurrentModification) }
