// Package autherr translates identity-provider failures into stable,
// user-facing messages and HTTP statuses.
package autherr

import (
	"errors"
	"net/http"
	"strings"

	"session_broker_backend/internal/common"
	"session_broker_backend/internal/shared"

	"go.uber.org/zap"
)

// FallbackMessage is used when a failure carries no message at all.
const FallbackMessage = "Something went wrong. Please try again."

// Rule maps any of its lower-case patterns to a single friendly message.
type Rule struct {
	Name     string
	Patterns []string
	Message  string
}

func (r Rule) matches(lower string) bool {
	for _, p := range r.Patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

var (
	BadCredentials = Rule{
		Name:     "bad-credentials",
		Patterns: []string{"invalid login credentials", "invalid_login_credentials", "invalid_password", "unauthorized"},
		Message:  "Invalid email or password. Please try again.",
	}
	UserNotFound = Rule{
		Name:     "user-not-found",
		Patterns: []string{"user not found", "user_not_found", "email_not_found"},
		Message:  "No account found with this email.",
	}
	UserAlreadyRegistered = Rule{
		Name:     "already-registered-user",
		Patterns: []string{"user already registered"},
		Message:  "This user is already registered. Try logging in instead.",
	}
	EmailAlreadyRegistered = Rule{
		Name:     "already-registered-email",
		Patterns: []string{"email already registered", "email already exists", "email_exists"},
		Message:  "This email is already registered. Try logging in instead.",
	}
	InvalidEmail = Rule{
		Name:     "invalid-email",
		Patterns: []string{"invalid email", "invalid_email"},
		Message:  "Please enter a valid email address.",
	}
	WeakPassword = Rule{
		Name:     "weak-password",
		Patterns: []string{"password too short", "password should be at least", "weak_password"},
		Message:  "Password must be at least 6 characters long.",
	}
	RateLimited = Rule{
		Name:     "rate-limited",
		Patterns: []string{"too many requests", "too_many_attempts"},
		Message:  "Too many login attempts. Please wait a moment and try again.",
	}
)

// AuthRules is the ordered table used by the session routes.
var AuthRules = []Rule{
	BadCredentials,
	UserNotFound,
	UserAlreadyRegistered,
	EmailAlreadyRegistered,
	InvalidEmail,
	WeakPassword,
	RateLimited,
}

// UserRules is the reduced table used by the profile routes.
var UserRules = []Rule{
	BadCredentials,
	RateLimited,
}

// Classify returns the message of the first rule matching raw, or raw itself.
// An empty raw message yields FallbackMessage.
func Classify(rules []Rule, raw string) string {
	lower := strings.ToLower(raw)
	for _, r := range rules {
		if r.matches(lower) {
			return r.Message
		}
	}
	if strings.TrimSpace(raw) == "" {
		return FallbackMessage
	}
	return raw
}

// Normalizer turns arbitrary errors into tagged APIErrors.
type Normalizer struct {
	rules   []Rule
	devMode bool
	logger  *zap.Logger
}

// New creates a Normalizer over rules. Raw errors are logged only when devMode is set.
func New(rules []Rule, devMode bool, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{rules: rules, devMode: devMode, logger: logger.Named("autherr")}
}

// Normalize maps err to an APIError. Errors that are already APIErrors pass
// through untouched, so statuses chosen upstream win over the 401 default.
func (n *Normalizer) Normalize(routeContext string, err error) error {
	if err == nil {
		return nil
	}
	if n.devMode {
		n.logger.Warn("Raw authentication error", zap.String("context", routeContext), zap.Error(err))
	}

	if apiErr, ok := common.IsAPIError(err); ok {
		return apiErr
	}

	var provErr *shared.ProviderError
	if errors.As(err, &provErr) {
		status := provErr.Status
		if status == 0 {
			status = http.StatusUnauthorized
		}
		return common.NewProviderError(status, provErr.Code, Classify(n.rules, provErr.Message)).Wrap(err)
	}

	return common.ErrInternalServer.Wrap(err)
}
