// Package messages turns errors into user-facing strings in English or
// Spanish.
//
// Backend business errors carry a code; known codes map to a catalog entry,
// unknown codes fall back to the backend message or a generic text.
package messages

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/kbukum/sessionkit/errors"
)

// Message keys. Backend codes are used verbatim as keys, which is why some
// follow the backend's exception naming.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeEmailExists        = "EmailAlreadyExistsException"
	CodeValidation         = "ValidationException"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeRegistrationFailed = "REGISTRATION_FAILED"
	CodeOTPFailed          = "OTP_FAILED"
	CodeInvalidCode        = "INVALID_CODE"
	CodeEmailValidation    = "EMAIL_VALIDATION_FAILED"
	CodeLoginFailed        = "LOGIN_FAILED"
	CodeSessionExpired     = "SESSION_EXPIRED"
	CodeNetwork            = "NETWORK"
	CodeNotFound           = "NOT_FOUND"
	CodeGeneric            = "GENERIC"
)

// Supported languages; the first is the fallback.
var Supported = []language.Tag{language.English, language.Spanish}

var entries = map[string][2]string{
	CodeInvalidCredentials: {"Invalid email or password.", "Email o contraseña incorrectos."},
	CodeUsernameExists:     {"Username already exists.", "El nombre de usuario ya existe."},
	CodeEmailExists:        {"This email is already registered. Try another one.", "Este email ya está registrado. Intenta con otro."},
	CodeValidation:         {"Validation error. Please check your details.", "Error de validación. Revisá los datos."},
	CodeTooManyRequests:    {"Too many requests. Please wait a moment.", "Demasiados intentos. Esperá un momento."},
	CodeRegistrationFailed: {"Registration failed. Please try again.", "Error al registrar. Intentá nuevamente."},
	CodeOTPFailed:          {"Verification code is not valid.", "El código de verificación no es válido."},
	CodeInvalidCode:        {"Invalid code.", "Código inválido."},
	CodeEmailValidation:    {"Could not validate the email.", "Error validando email."},
	CodeLoginFailed:        {"Could not sign in. Please try again.", "No se pudo iniciar sesión. Intentá nuevamente."},
	CodeSessionExpired:     {"Session expired. Please log in again.", "La sesión expiró. Iniciá sesión nuevamente."},
	CodeNetwork:            {"Could not reach the server. Check your connection.", "No se pudo conectar con el servidor. Revisá tu conexión."},
	CodeNotFound:           {"Not found.", "No encontrado."},
	CodeGeneric:            {"Something went wrong. Please try again.", "Algo salió mal. Intentá nuevamente."},
}

var (
	cat     = mustCatalog()
	matcher = language.NewMatcher(Supported)
)

func mustCatalog() catalog.Catalog {
	c, err := buildCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

func buildCatalog() (catalog.Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, texts := range entries {
		if err := b.SetString(language.English, key, texts[0]); err != nil {
			return nil, fmt.Errorf("messages: %s (en): %w", key, err)
		}
		if err := b.SetString(language.Spanish, key, texts[1]); err != nil {
			return nil, fmt.Errorf("messages: %s (es): %w", key, err)
		}
	}
	return b, nil
}

// Translator renders messages in one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Translator for the best supported match of the given
// language preferences (BCP 47 tags or Accept-Language values).
func New(prefs ...string) *Translator {
	tag, _ := language.MatchStrings(matcher, prefs...)
	base, _ := tag.Base()
	tag, _ = language.Compose(base)
	return &Translator{tag: tag, printer: message.NewPrinter(tag, message.Catalog(cat))}
}

// Language returns the selected language.
func (t *Translator) Language() language.Tag { return t.tag }

// Known reports whether key has a catalog entry.
func Known(key string) bool {
	_, ok := entries[key]
	return ok
}

// Text returns the message for key, or the generic message for unknown keys.
func (t *Translator) Text(key string) string {
	if !Known(key) {
		key = CodeGeneric
	}
	return t.printer.Sprintf(key)
}

// ForError picks the message to show for err.
func (t *Translator) ForError(err error) string {
	if err == nil {
		return ""
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return t.Text(CodeGeneric)
	}
	if code, ok := errors.BackendCode(err); ok {
		if Known(code) {
			return t.Text(code)
		}
		if appErr.Message != "" {
			return appErr.Message
		}
		return t.Text(CodeGeneric)
	}
	switch appErr.Code {
	case errors.ErrCodeSessionExpired:
		return t.Text(CodeSessionExpired)
	case errors.ErrCodeRateLimited:
		return t.Text(CodeTooManyRequests)
	case errors.ErrCodeConnectionFailed, errors.ErrCodeTimeout:
		return t.Text(CodeNetwork)
	case errors.ErrCodeNotFound:
		return t.Text(CodeNotFound)
	case errors.ErrCodeInvalidInput:
		return t.Text(CodeValidation)
	default:
		return t.Text(CodeGeneric)
	}
}
