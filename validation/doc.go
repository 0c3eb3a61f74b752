// Package validation checks request inputs before they reach the backend.
//
// Inputs declare their rules with go-playground struct tags; field names in
// errors come from the json tag:
//
//	type Credentials struct {
//	    Identity string `json:"identity" validate:"required"`
//	    Password string `json:"password" validate:"required,min=6"`
//	}
//	if err := validation.Validate(in); err != nil { ... }
//
// A failed check returns an INVALID_INPUT AppError whose Details["fields"]
// lists every offending field.
package validation
