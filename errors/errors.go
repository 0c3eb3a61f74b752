package errors

import (
	"fmt"
	"maps"
)

// AppError is the error type returned by every API-facing operation.
// HTTPStatus is the backend status that produced it, or 0.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets Cause and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges details into e and returns e.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// WithDetail sets one detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	return e.WithDetails(map[string]any{key: value})
}

// New builds an AppError. An empty message or zero status takes the code's
// catalog default.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	info := catalog[code]
	if message == "" {
		message = info.message
	}
	if httpStatus == 0 {
		httpStatus = info.status
	}
	return &AppError{Code: code, Message: message, Retryable: info.retryable, HTTPStatus: httpStatus}
}

// ConnectionFailed means no response arrived from host.
func ConnectionFailed(host string, cause error) *AppError {
	e := New(ErrCodeConnectionFailed, fmt.Sprintf("Unable to reach %s. Please check your connection.", host), 0)
	return e.WithDetail("service", host).WithCause(cause)
}

func Timeout(operation string, cause error) *AppError {
	return New(ErrCodeTimeout, "", 0).WithDetail("operation", operation).WithCause(cause)
}

// FromStatus builds the error for a non-2xx response. message is the text
// taken from the body; empty falls back to the status line.
func FromStatus(status int, message string) *AppError {
	if message == "" {
		message = fmt.Sprintf("API request failed with status %d", status)
	}
	return New(codeForStatus(status), message, status)
}

func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found.", resource), 0).WithDetail("resource", resource)
	if id != "" {
		e.Details["id"] = id
	}
	return e
}

func RateLimited() *AppError { return New(ErrCodeRateLimited, "", 0) }

func Unauthorized(reason string) *AppError { return New(ErrCodeUnauthorized, reason, 0) }

// SessionExpired is returned once a 401 could not be healed by a refresh and
// the local session has been cleared.
func SessionExpired() *AppError { return New(ErrCodeSessionExpired, "", 0) }

// NotAuthenticated is returned by operations that need a session while none is active.
func NotAuthenticated() *AppError { return New(ErrCodeNotAuthenticated, "", 0) }

// Storage describes a persisted-storage failure. Stores log these and carry on.
func Storage(op, key string, cause error) *AppError {
	e := New(ErrCodeStorage, fmt.Sprintf("storage %s failed for key %q", op, key), 0)
	return e.WithDetails(map[string]any{"operation": op, "key": key}).WithCause(cause)
}

// Validation reports input rejected before any request was sent.
func Validation(message string) *AppError { return New(ErrCodeInvalidInput, message, 0) }

func InvalidResponse(reason string, cause error) *AppError {
	return New(ErrCodeInvalidResponse, reason, 0).WithCause(cause)
}

// Backend carries a structured business code from the backend. It is never
// retryable; callers translate the code into a user-facing message.
func Backend(status int, backendCode, message string) *AppError {
	e := New(ErrCodeBackend, message, status).WithDetail(DetailBackendCode, backendCode)
	e.Retryable = false
	return e
}
