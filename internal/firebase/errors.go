package firebase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/errorutils"

	"session_broker_backend/internal/shared"
)

// restErrorBody is the error envelope of the Identity Toolkit and Secure Token APIs.
type restErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// restStatus maps Identity Toolkit error codes to the status reported to clients.
var restStatus = map[string]int{
	"INVALID_LOGIN_CREDENTIALS":   http.StatusUnauthorized,
	"INVALID_PASSWORD":            http.StatusUnauthorized,
	"USER_DISABLED":               http.StatusUnauthorized,
	"INVALID_ID_TOKEN":            http.StatusUnauthorized,
	"TOKEN_EXPIRED":               http.StatusUnauthorized,
	"INVALID_REFRESH_TOKEN":       http.StatusUnauthorized,
	"INVALID_GRANT_TYPE":          http.StatusUnauthorized,
	"MISSING_REFRESH_TOKEN":       http.StatusUnauthorized,
	"USER_NOT_FOUND":              http.StatusUnauthorized,
	"EMAIL_NOT_FOUND":             http.StatusNotFound,
	"EMAIL_EXISTS":                http.StatusConflict,
	"INVALID_EMAIL":               http.StatusBadRequest,
	"MISSING_EMAIL":               http.StatusBadRequest,
	"WEAK_PASSWORD":               http.StatusBadRequest,
	"TOO_MANY_ATTEMPTS_TRY_LATER": http.StatusTooManyRequests,
}

// parseRESTError decodes an Identity Toolkit error body. Messages look like
// "WEAK_PASSWORD : Password should be at least 6 characters"; the part before
// " : " is the code.
func parseRESTError(statusCode int, body []byte) *shared.ProviderError {
	var parsed restErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error.Message == "" {
		return &shared.ProviderError{
			Message: strings.TrimSpace(string(body)),
			Status:  statusCode,
		}
	}

	message := parsed.Error.Message
	code := message
	if i := strings.Index(message, " : "); i >= 0 {
		code = message[:i]
	}
	code = strings.TrimSpace(code)

	status, ok := restStatus[code]
	if !ok {
		status = parsed.Error.Code
		if status == 0 {
			status = statusCode
		}
	}
	return &shared.ProviderError{Message: message, Status: status, Code: code}
}

// mapAdminError converts an Admin SDK error into a ProviderError. Transport
// failures without a provider response are wrapped as plain errors.
func mapAdminError(op string, err error) error {
	if err == nil {
		return nil
	}
	var provErr *shared.ProviderError
	if errors.As(err, &provErr) {
		return err
	}

	switch {
	case auth.IsEmailAlreadyExists(err):
		return &shared.ProviderError{Message: "EMAIL_EXISTS", Status: http.StatusConflict, Code: "EMAIL_EXISTS"}
	case auth.IsUserNotFound(err):
		return &shared.ProviderError{Message: "USER_NOT_FOUND", Status: http.StatusNotFound, Code: "USER_NOT_FOUND"}
	case auth.IsIDTokenExpired(err):
		return &shared.ProviderError{Message: "TOKEN_EXPIRED", Status: http.StatusUnauthorized, Code: "TOKEN_EXPIRED"}
	case auth.IsIDTokenRevoked(err):
		return &shared.ProviderError{Message: "TOKEN_REVOKED", Status: http.StatusUnauthorized, Code: "TOKEN_REVOKED"}
	case auth.IsUserDisabled(err):
		return &shared.ProviderError{Message: "USER_DISABLED", Status: http.StatusUnauthorized, Code: "USER_DISABLED"}
	case auth.IsIDTokenInvalid(err):
		return &shared.ProviderError{Message: "INVALID_ID_TOKEN", Status: http.StatusUnauthorized, Code: "INVALID_ID_TOKEN"}
	case errorutils.IsResourceExhausted(err):
		return &shared.ProviderError{Message: "TOO_MANY_ATTEMPTS_TRY_LATER", Status: http.StatusTooManyRequests, Code: "TOO_MANY_ATTEMPTS_TRY_LATER"}
	case errorutils.IsUnauthenticated(err), errorutils.IsPermissionDenied(err):
		return &shared.ProviderError{Message: err.Error(), Status: http.StatusUnauthorized, Code: "UNAUTHENTICATED"}
	case errorutils.IsInvalidArgument(err):
		return &shared.ProviderError{Message: err.Error(), Status: http.StatusBadRequest, Code: "INVALID_ARGUMENT"}
	}

	// The SDK validates user fields locally before calling the backend.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "malformed email"):
		return &shared.ProviderError{Message: "INVALID_EMAIL", Status: http.StatusBadRequest, Code: "INVALID_EMAIL"}
	case strings.Contains(msg, "password must be"):
		return &shared.ProviderError{Message: "WEAK_PASSWORD : " + msg, Status: http.StatusBadRequest, Code: "WEAK_PASSWORD"}
	}

	if resp := errorutils.HTTPResponse(err); resp != nil {
		return &shared.ProviderError{Message: msg, Status: resp.StatusCode}
	}
	return fmt.Errorf("firebase %s: %w", op, err)
}

// isTokenRejection reports whether err means the token itself is unusable.
func isTokenRejection(err error) bool {
	return auth.IsIDTokenInvalid(err) || auth.IsIDTokenExpired(err) || auth.IsIDTokenRevoked(err)
}
