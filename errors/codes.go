package errors

import "net/http"

// ErrorCode is the machine-readable half of an AppError.
type ErrorCode string

const (
	// transport
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout          ErrorCode = "TIMEOUT"

	// HTTP status
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeRateLimited     ErrorCode = "RATE_LIMITED"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeInvalidResponse ErrorCode = "INVALID_RESPONSE"

	// authorization
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrCodeSessionExpired   ErrorCode = "SESSION_EXPIRED"
	ErrCodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"

	// local
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
	ErrCodeBackend ErrorCode = "BACKEND_ERROR"
)

// DetailBackendCode is the Details key holding the backend-provided code.
const DetailBackendCode = "code"

type codeInfo struct {
	retryable bool
	status    int
	message   string
}

// catalog holds what every constructor would otherwise repeat.
var catalog = map[ErrorCode]codeInfo{
	ErrCodeConnectionFailed: {retryable: true, message: "Unable to reach the server. Please check your connection."},
	ErrCodeTimeout:          {retryable: true, message: "The request took too long. Please try again."},
	ErrCodeRateLimited:      {retryable: true, status: http.StatusTooManyRequests, message: "Too many requests. Please wait a moment and try again."},
	ErrCodeExternalService:  {retryable: true},
	ErrCodeNotFound:         {status: http.StatusNotFound},
	ErrCodeInvalidInput:     {status: http.StatusBadRequest},
	ErrCodeUnauthorized:     {status: http.StatusUnauthorized, message: "Authentication required."},
	ErrCodeSessionExpired:   {status: http.StatusUnauthorized, message: "Session expired. Please log in again."},
	ErrCodeNotAuthenticated: {message: "No active session."},
}

// IsRetryableCode reports whether a call failing with code may be repeated.
func IsRetryableCode(code ErrorCode) bool {
	return catalog[code].retryable
}

// codeForStatus maps a non-2xx status onto the taxonomy.
func codeForStatus(status int) ErrorCode {
	switch status {
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeConflict
	case http.StatusTooManyRequests:
		return ErrCodeRateLimited
	}
	if status >= 400 && status < 500 {
		return ErrCodeInvalidInput
	}
	return ErrCodeExternalService
}
