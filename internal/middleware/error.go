// File: internal/middleware/error.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"session_broker_backend/internal/common"
)

// ErrorHandler turns errors pushed with c.Error into the failure envelope when
// the handler did not write a response itself.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if _, ok := common.IsAPIError(err); !ok {
			common.LoggerFromContext(c, logger).Error("Unhandled application error",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString(common.RequestIDKey)),
			)
		}
		common.RespondWithError(c, err)
	}
}

// NoRoute answers unknown endpoints with the failure envelope.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		common.RespondWithError(c, common.ErrNotFound.WithMessage("The requested endpoint does not exist."))
	}
}

// NoMethod answers known paths called with an unsupported method.
func NoMethod() gin.HandlerFunc {
	return func(c *gin.Context) {
		common.RespondWithError(c, common.NewAPIError(http.StatusMethodNotAllowed, common.KindValidation,
			"METHOD_NOT_ALLOWED", "The method is not allowed for the requested URL."))
	}
}
