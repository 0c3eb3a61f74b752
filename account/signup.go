package account

import (
	"context"
	"net/http"

	"github.com/kbukum/sessionkit/errors"
	"github.com/kbukum/sessionkit/httpclient"
	"github.com/kbukum/sessionkit/messages"
	"github.com/kbukum/sessionkit/validation"
)

// usernameExistsMessage is the backend error text for a taken username.
const usernameExistsMessage = "Username already exists"

// MemberRegistration is the member sign-up body.
type MemberRegistration struct {
	Username string `json:"username" validate:"notblank,min=3,max=32"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register creates a member account. Failures come back as backend errors
// coded USERNAME_EXISTS, TOO_MANY_REQUESTS or REGISTRATION_FAILED.
func (m *Manager) Register(ctx context.Context, in MemberRegistration) (map[string]any, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	resp, err := m.api.DoPublic(ctx, httpclient.Request{Method: http.MethodPost, Path: "/register", Body: in})
	if err != nil {
		return nil, registrationError(err)
	}
	var out map[string]any
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func registrationError(err error) error {
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.HTTPStatus == 0 {
		return err
	}
	switch {
	case appErr.HTTPStatus == http.StatusBadRequest && appErr.Message == usernameExistsMessage:
		return errors.Backend(appErr.HTTPStatus, messages.CodeUsernameExists, usernameExistsMessage).WithCause(err)
	case appErr.HTTPStatus == http.StatusTooManyRequests:
		return errors.Backend(appErr.HTTPStatus, messages.CodeTooManyRequests, "Too many requests").WithCause(err)
	default:
		return errors.Backend(appErr.HTTPStatus, messages.CodeRegistrationFailed, "Registration failed").WithCause(err)
	}
}

// VerifyOTP confirms a member's one-time code.
func (m *Manager) VerifyOTP(ctx context.Context, otp string) error {
	if err := validation.Validate(struct {
		OTP string `json:"otp" validate:"otp"`
	}{otp}); err != nil {
		return err
	}
	resp, err := m.api.DoPublic(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/otp",
		Body:   map[string]string{"otp": otp},
	})
	if err != nil || resp.StatusCode != http.StatusOK {
		status := http.StatusBadRequest
		if resp != nil {
			status = resp.StatusCode
		}
		return errors.Backend(status, messages.CodeOTPFailed, "OTP verification failed").WithCause(err)
	}
	return nil
}

// ValidateEmail asks the escort backend to send a verification code. It
// reports alreadyVerified when the backend answers 409, in which case the
// code step is skipped.
func (m *Manager) ValidateEmail(ctx context.Context, email string) (alreadyVerified bool, err error) {
	if err := validation.Validate(struct {
		Email string `json:"email" validate:"required,email"`
	}{email}); err != nil {
		return false, err
	}
	resp, err := m.api.DoPublic(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/validate/email",
		Body:   map[string]string{"email": email},
	})
	if resp != nil && resp.StatusCode == http.StatusConflict {
		return true, nil
	}
	if err != nil {
		return false, withDefaultCode(err, messages.CodeEmailValidation)
	}
	return false, nil
}

// VerifyEmailCode checks the emailed code. A 409 means the address was
// already verified and counts as success.
func (m *Manager) VerifyEmailCode(ctx context.Context, email, code string) error {
	resp, err := m.api.DoPublic(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/validate/code",
		Body:   map[string]string{"email": email, "code": code},
	})
	if resp != nil && resp.StatusCode == http.StatusConflict {
		return nil
	}
	if err != nil {
		return withDefaultCode(err, messages.CodeInvalidCode)
	}
	return nil
}

// SubmitRegistration posts the escort registration document. The body is
// opaque here; backend codes such as EmailAlreadyExistsException pass
// through for translation.
func (m *Manager) SubmitRegistration(ctx context.Context, payload map[string]any) error {
	if len(payload) == 0 {
		return errors.Validation("registration payload is empty")
	}
	_, err := m.api.DoPublic(ctx, httpclient.Request{Method: http.MethodPost, Path: "/register", Body: payload})
	if err != nil {
		return withDefaultCode(err, messages.CodeRegistrationFailed)
	}
	return nil
}

// withDefaultCode gives an HTTP error without a backend code the fallback
// code, keeping the backend message.
func withDefaultCode(err error, code string) error {
	if _, ok := errors.BackendCode(err); ok {
		return err
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.HTTPStatus == 0 {
		return err
	}
	return errors.Backend(appErr.HTTPStatus, code, appErr.Message).WithCause(err)
}
