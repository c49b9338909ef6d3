// File: internal/common/errors.go
package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorKind tags an APIError with its place in the failure taxonomy.
type ErrorKind string

const (
	KindValidation      ErrorKind = "ValidationError"
	KindAuthentication  ErrorKind = "AuthenticationError"
	KindTokenGeneration ErrorKind = "TokenGenerationFailure"
	KindProvider        ErrorKind = "ProviderError"
	KindPersistence     ErrorKind = "PersistenceError"
	KindRateLimited     ErrorKind = "RateLimited"
	KindInternal        ErrorKind = "InternalError"
)

// APIError represents a standard structure for API errors.
type APIError struct {
	StatusCode int         `json:"-"`
	Kind       ErrorKind   `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	cause      error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("APIError: StatusCode=%d, Code=%s, Message=%s: %v", e.StatusCode, e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("APIError: StatusCode=%d, Code=%s, Message=%s", e.StatusCode, e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *APIError) Unwrap() error { return e.cause }

// Is matches on Code so copies made by WithDetails/WithMessage/Wrap still
// compare equal to the sentinel they came from.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func NewAPIError(statusCode int, kind ErrorKind, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Kind: kind, Code: code, Message: message}
}

func (e *APIError) clone() *APIError {
	c := *e
	return &c
}

// WithDetails returns a copy carrying details. Sentinels are never mutated.
func (e *APIError) WithDetails(details interface{}) *APIError {
	c := e.clone()
	c.Details = details
	return c
}

// WithMessage returns a copy with a different user-facing message.
func (e *APIError) WithMessage(message string) *APIError {
	c := e.clone()
	c.Message = message
	return c
}

// Wrap returns a copy that records cause for logging and errors.Is/As.
func (e *APIError) Wrap(cause error) *APIError {
	c := e.clone()
	c.cause = cause
	return c
}

var (
	ErrBadRequest            = NewAPIError(http.StatusBadRequest, KindValidation, "BAD_REQUEST", "Invalid input")
	ErrUnauthenticated       = NewAPIError(http.StatusUnauthorized, KindAuthentication, "UNAUTHENTICATED", "Unauthorized")
	ErrForbidden             = NewAPIError(http.StatusForbidden, KindAuthentication, "FORBIDDEN", "You do not have permission to access this resource.")
	ErrNotFound              = NewAPIError(http.StatusNotFound, KindPersistence, "NOT_FOUND", "The requested resource could not be found.")
	ErrConflict              = NewAPIError(http.StatusConflict, KindPersistence, "CONFLICT", "A conflict occurred with the current state of the resource.")
	ErrPersistence           = NewAPIError(http.StatusInternalServerError, KindPersistence, "PERSISTENCE_ERROR", "Could not save your data. Please try again.")
	ErrTokenGenerationFailed = NewAPIError(http.StatusInternalServerError, KindTokenGeneration, "TOKEN_GENERATION_FAILED", "Token generation failed")
	ErrTooManyRequests       = NewAPIError(http.StatusTooManyRequests, KindRateLimited, "TOO_MANY_REQUESTS", "Too many login attempts. Please wait a moment and try again.")
	ErrInternalServer        = NewAPIError(http.StatusInternalServerError, KindInternal, "INTERNAL_SERVER_ERROR", "An unexpected error occurred on the server.")
)

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindOf returns the taxonomy tag of err, or KindInternal for untagged errors.
func KindOf(err error) ErrorKind {
	if apiErr, ok := IsAPIError(err); ok {
		return apiErr.Kind
	}
	return KindInternal
}

// NewValidationError builds a 400 for input rejected before any collaborator call.
func NewValidationError(message string, details interface{}) *APIError {
	return ErrBadRequest.WithMessage(message).WithDetails(details)
}

// NewAuthenticationError builds a 401/403 with a caller-facing message.
func NewAuthenticationError(status int, message string) *APIError {
	base := ErrUnauthenticated
	if status == http.StatusForbidden {
		base = ErrForbidden
	}
	return base.WithMessage(message)
}

// NewProviderError builds the normalized form of an identity-provider failure.
func NewProviderError(status int, code, message string) *APIError {
	if code == "" {
		code = "PROVIDER_ERROR"
	}
	return NewAPIError(status, KindProvider, code, message)
}

// NewPersistenceError wraps a datastore failure.
func NewPersistenceError(cause error) *APIError {
	if apiErr, ok := IsAPIError(cause); ok && apiErr.Kind == KindPersistence {
		return apiErr
	}
	return ErrPersistence.Wrap(cause)
}

// FieldError is one entry in the errors list of a validation failure.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// FormatValidationErrors converts validator.ValidationErrors into field errors.
func FormatValidationErrors(errs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		field := strings.ToLower(e.Field())
		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("The %s field is required.", field)
		case "email":
			message = fmt.Sprintf("The %s field must be a valid email address.", field)
		case "min":
			message = fmt.Sprintf("The %s field must be at least %s characters long.", field, e.Param())
		case "max":
			message = fmt.Sprintf("The %s field may not be greater than %s characters.", field, e.Param())
		case "notblank":
			message = fmt.Sprintf("The %s field must not be blank.", field)
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag.", e.Field(), e.Tag())
		}
		out = append(out, FieldError{Path: field, Message: message, Code: e.Tag()})
	}
	return out
}
