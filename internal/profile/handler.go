// File: internal/profile/handler.go
package profile

import (
	"errors"

	"session_broker_backend/internal/autherr"
	"session_broker_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const routeUpdateFullname = "update-user-fullname"

// Handler struct holds dependencies for profile handlers.
type Handler struct {
	service    Service
	normalizer *autherr.Normalizer
	logger     *zap.Logger
}

// NewHandler creates a new profile handler. normalizer should use autherr.UserRules.
func NewHandler(service Service, normalizer *autherr.Normalizer, logger *zap.Logger) *Handler {
	return &Handler{
		service:    service,
		normalizer: normalizer,
		logger:     logger,
	}
}

// RegisterRoutes mounts the user routes behind authMW.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	userGroup := router.Group("/user")
	userGroup.Use(authMW)
	{
		userGroup.PUT("/update-user-fullname", h.updateFullname)
	}
}

func (h *Handler) updateFullname(c *gin.Context) {
	var req UpdateFullnameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Update fullname: invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondError(c, routeUpdateFullname, common.NewValidationError("Invalid fullname provided", common.FormatValidationErrors(ve)))
			return
		}
		common.RespondError(c, routeUpdateFullname, common.NewValidationError("Invalid fullname provided", nil))
		return
	}

	email := common.GetUserEmailFromContext(c)
	rec, err := h.service.UpdateFullname(c.Request.Context(), email, req.Fullname)
	if err != nil {
		common.RespondError(c, routeUpdateFullname, h.normalizer.Normalize(routeUpdateFullname, err))
		return
	}
	common.RespondOK(c, "Fullname updated successfully", rec)
}
