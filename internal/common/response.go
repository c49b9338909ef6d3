// File: internal/common/response.go
package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Envelope is the JSON body of every auth and profile response.
// Data is always present and is null on failure.
type Envelope struct {
	Success        bool        `json:"success"`
	Status         string      `json:"status"`
	Message        string      `json:"message"`
	Data           interface{} `json:"data"`
	TokenExpiresIn *int64      `json:"tokenExpiresIn,omitempty"`
	Code           string      `json:"code,omitempty"`
	Context        string      `json:"context,omitempty"`
	Errors         interface{} `json:"errors,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RespondError sends the failure envelope for err, labelled with routeContext.
// Errors that are not APIErrors are logged and reported as a generic 500.
func RespondError(c *gin.Context, routeContext string, err error) {
	apiErr, ok := IsAPIError(err)
	if !ok {
		if l, exists := c.Get(LoggerKey); exists {
			if logger, ok := l.(*zap.Logger); ok {
				logger.Error("Unhandled internal error being wrapped", zap.Error(err), zap.String("context", routeContext))
			}
		}
		apiErr = ErrInternalServer
	}

	body := Envelope{
		Success: false,
		Status:  StatusError,
		Message: apiErr.Message,
		Data:    nil,
		Code:    apiErr.Code,
		Context: routeContext,
	}
	if apiErr.Details != nil {
		body.Errors = apiErr.Details
	}
	c.AbortWithStatusJSON(apiErr.StatusCode, body)
}

// RespondWithError sends the failure envelope labelled with the route context
// set by WithRouteContext, if any.
func RespondWithError(c *gin.Context, err error) {
	RespondError(c, c.GetString(RouteContextKey), err)
}

// WithRouteContext labels the request so failure envelopes written by later
// middleware carry label as their context.
func WithRouteContext(label string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(RouteContextKey, label)
		c.Next()
	}
}

// RespondSuccess sends a JSON success response.
func RespondSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Envelope{
		Success: true,
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// RespondWithExpiry sends a success response that also reports the access
// token lifetime in milliseconds.
func RespondWithExpiry(c *gin.Context, statusCode int, message string, data interface{}, expiresInMillis int64) {
	c.JSON(statusCode, Envelope{
		Success:        true,
		Status:         StatusSuccess,
		Message:        message,
		Data:           data,
		TokenExpiresIn: &expiresInMillis,
	})
}

// RespondOK sends a 200 OK response.
func RespondOK(c *gin.Context, message string, data interface{}) {
	RespondSuccess(c, http.StatusOK, message, data)
}

// RespondCreated sends a 201 Created response.
func RespondCreated(c *gin.Context, message string, data interface{}) {
	RespondSuccess(c, http.StatusCreated, message, data)
}
