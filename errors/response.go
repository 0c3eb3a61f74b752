package errors

import (
	stderrors "errors"
	"net/http"
	"strings"
)

// AsAppError finds the first *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := stderrors.As(err, &ae)
	return ae, ok
}

// HasCode reports whether err's chain holds an AppError with code.
func HasCode(err error, code ErrorCode) bool {
	ae, ok := AsAppError(err)
	return ok && ae.Code == code
}

// IsUnauthorized reports a backend 401, whatever the code.
func IsUnauthorized(err error) bool {
	ae, ok := AsAppError(err)
	return ok && ae.HTTPStatus == http.StatusUnauthorized
}

// IsSessionExpired reports whether err ends the session. An AppError in the
// chain decides on its own: SESSION_EXPIRED or a 401 status. Otherwise the
// error text is checked for "401" or "session expired".
func IsSessionExpired(err error) bool {
	if err == nil {
		return false
	}
	if ae, ok := AsAppError(err); ok {
		return ae.Code == ErrCodeSessionExpired || ae.HTTPStatus == http.StatusUnauthorized
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "401") || strings.Contains(msg, "session expired")
}

// BackendCode returns the business code attached by Backend.
func BackendCode(err error) (string, bool) {
	ae, ok := AsAppError(err)
	if !ok {
		return "", false
	}
	code, _ := ae.Details[DetailBackendCode].(string)
	return code, code != ""
}
