// File: internal/middleware/auth.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"session_broker_backend/internal/common"
	"session_broker_backend/internal/cookie"
	"session_broker_backend/internal/shared"
)

// Gate failure messages.
const (
	MsgAccessTokenMissing = "Access token missing"
	MsgInvalidToken       = "Unauthorized: Invalid or expired access token"
	MsgUserUnresolvable   = "Unauthorized: Invalid token or user not found"
	MsgAuthInternal       = "Internal server error during authentication"
)

// AuthMiddleware guards routes that need an established session. The access
// cookie must resolve through the provider to a user with an email; the
// resolved id and email are stored under common.UserIDKey and common.UserEmailKey.
func AuthMiddleware(provider shared.IdentityProvider, transport *cookie.Transport, logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("auth_gate")
	return func(c *gin.Context) {
		token := transport.AccessToken(c.Request)
		if token == "" {
			logger.Debug("Access cookie missing", zap.String("path", c.Request.URL.Path))
			rejectGate(c, http.StatusUnauthorized, MsgAccessTokenMissing)
			return
		}

		user, err := provider.GetUserByAccessToken(c.Request.Context(), token)
		if err != nil {
			if isTokenRejection(err) {
				logger.Debug("Access token rejected", zap.Error(err))
				rejectGate(c, http.StatusUnauthorized, MsgInvalidToken)
				return
			}
			logger.Error("Auth middleware error", zap.Error(err))
			rejectGate(c, http.StatusInternalServerError, MsgAuthInternal)
			return
		}
		if user == nil || user.Email == "" {
			logger.Warn("Access token resolved to a user without email")
			rejectGate(c, http.StatusForbidden, MsgUserUnresolvable)
			return
		}

		c.Set(common.UserIDKey, user.ID)
		c.Set(common.UserEmailKey, user.Email)
		logger.Debug("User authenticated successfully", zap.String("userID", user.ID))

		c.Next()
	}
}

// isTokenRejection reports provider failures that mean the caller's token is
// not acceptable, as opposed to the provider being unavailable.
func isTokenRejection(err error) bool {
	var provErr *shared.ProviderError
	if !errors.As(err, &provErr) {
		return false
	}
	return provErr.Status >= http.StatusBadRequest && provErr.Status < http.StatusInternalServerError
}

func rejectGate(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, common.Envelope{
		Success: false,
		Status:  common.StatusError,
		Message: message,
		Data:    nil,
	})
}
