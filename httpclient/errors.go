package httpclient

import (
	"encoding/json"
	"strings"

	"github.com/kbukum/sessionkit/errors"
)

// maxTextMessage caps how much of a plain-text error body becomes the
// error message.
const maxTextMessage = 200

// errorBody is the structured error shape the backend uses.
type errorBody struct {
	Code      string `json:"code"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
	Error     string `json:"error"`
}

// ClassifyResponse converts a non-2xx response into an AppError. Returns nil
// for 2xx status codes.
//
// A JSON body with a code (or errorCode) becomes a BACKEND_ERROR carrying that code. A JSON
// message or error field becomes the message. A short plain-text body is
// used verbatim.
func ClassifyResponse(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		msg := parsed.Message
		if msg == "" {
			msg = parsed.Error
		}
		code := parsed.Code
		if code == "" {
			code = parsed.ErrorCode
		}
		if code != "" && status != 401 {
			return errors.Backend(status, code, msg)
		}
		return errors.FromStatus(status, msg)
	}

	text := strings.TrimSpace(string(body))
	if len(text) > maxTextMessage || strings.HasPrefix(text, "<") {
		text = ""
	}
	return errors.FromStatus(status, text)
}
