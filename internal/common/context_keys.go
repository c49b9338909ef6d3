// File: internal/common/context_keys.go
package common

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// RequestIDHeader carries the per-request correlation id
	RequestIDHeader = "X-Request-ID"

	// UserIDKey is the context key for storing the authenticated user's provider ID
	UserIDKey = "userID"
	// UserEmailKey is the context key for storing the authenticated user's email
	UserEmailKey = "userEmail"
	// LoggerKey holds the request-scoped *zap.Logger
	LoggerKey = "logger"
	// RequestIDKey holds the request id
	RequestIDKey = "requestID"
	// RouteContextKey holds the label reported in failure envelopes
	RouteContextKey = "routeContext"
)
