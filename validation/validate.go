package validation

import (
	stderrors "errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/sessionkit/errors"
)

// FieldError is one rejected field, named by its json tag.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const detailFields = "fields"

var customRules = map[string]*regexp.Regexp{
	"otp":  regexp.MustCompile(`^[0-9]{4,8}$`),
	"slug": regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`),
}

var engine = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	for tag, re := range customRules {
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		})
	}
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
})

// Validate checks s against its `validate` tags. Failures come back as an
// INVALID_INPUT AppError listing every field; use Fields to read them.
func Validate(s any) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Validation("validation failed").WithCause(err)
	}

	fields := make([]FieldError, len(verrs))
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{Field: fe.Field(), Message: describe(fe)}
		parts[i] = fields[i].Field + ": " + fields[i].Message
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail(detailFields, fields)
}

// Fields returns the per-field errors carried by a Validate error.
func Fields(err error) []FieldError {
	ae, ok := errors.AsAppError(err)
	if !ok {
		return nil
	}
	fields, _ := ae.Details[detailFields].([]FieldError)
	return fields
}

var tagMessages = map[string]string{
	"required": "is required",
	"notblank": "is required",
	"email":    "must be a valid email address",
	"otp":      "must be a numeric code",
	"slug":     "must be a lowercase slug",
	"uuid":     "must be a valid UUID",
}

func describe(fe validator.FieldError) string {
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param() + unit
	case "max":
		return "must be at most " + fe.Param() + unit
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}
