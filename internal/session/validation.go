package session

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"session_broker_backend/internal/common"
)

// NotBlank rejects strings that are empty after trimming whitespace.
func NotBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(field.String()) != ""
}

// newValidator reads the same `binding` tags gin uses, so requests built
// outside HTTP are held to the same rules.
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	_ = v.RegisterValidation("notblank", NotBlank)
	return v
}

// invalidInput converts a validation failure into the 400 "Invalid input" error.
func invalidInput(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return common.NewValidationError("Invalid input", common.FormatValidationErrors(ve))
	}
	return common.NewValidationError("Invalid input", nil)
}
