// File: internal/session/handler.go
package session

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"session_broker_backend/internal/common"
	"session_broker_backend/internal/cookie"
)

var registerBindingOnce sync.Once

// registerBindingValidations adds the custom tags used on request DTOs to gin's validator.
func registerBindingValidations() {
	registerBindingOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("notblank", NotBlank)
		}
	})
}

// Handler struct holds dependencies for session handlers.
type Handler struct {
	service   Service
	transport *cookie.Transport
	logger    *zap.Logger
}

// NewHandler creates a new session handler.
func NewHandler(service Service, transport *cookie.Transport, logger *zap.Logger) *Handler {
	registerBindingValidations()
	return &Handler{
		service:   service,
		transport: transport,
		logger:    logger,
	}
}

// RegisterRoutes sets up the /auth routes. Every route is labelled with its
// operation name. limiter guards the credential endpoints and may be nil.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, limiter gin.HandlerFunc) {
	route := func(op string, handler gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{common.WithRouteContext(op), handler}
	}
	guard := func(op string, handler gin.HandlerFunc) []gin.HandlerFunc {
		if limiter == nil {
			return route(op, handler)
		}
		return []gin.HandlerFunc{common.WithRouteContext(op), limiter, handler}
	}

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", guard(OpSignIn, h.login)...)
		authGroup.POST("/logout", route(OpSignOut, h.logout)...)
		authGroup.POST("/register", guard(OpSignUp, h.register)...)
		authGroup.POST("/verify-email", route(OpVerifyEmail, h.verifyEmail)...)
		authGroup.POST("/reset-password", route(OpResetPassword, h.resetPassword)...)
		authGroup.POST("/forgot-password", guard(OpForgotPassword, h.forgotPassword)...)
		authGroup.POST("/refresh-token", route(OpRefreshToken, h.refreshToken)...)
		authGroup.GET("/profile", route(OpProfile, h.profile)...)
	}
}

// bind decodes the JSON body into req, answering 400 on failure.
func (h *Handler) bind(c *gin.Context, op string, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("Invalid request body", zap.String("context", op), zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondError(c, op, common.NewValidationError("Invalid input", common.FormatValidationErrors(ve)))
			return false
		}
		common.RespondError(c, op, common.NewValidationError("Invalid input", nil))
		return false
	}
	return true
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if !h.bind(c, OpSignIn, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		common.RespondError(c, OpSignIn, err)
		return
	}

	h.transport.Write(c.Writer, result.Cookies)
	common.RespondWithExpiry(c, http.StatusOK, "User signed in successfully.", result.User, result.Cookies.ExpiresInMillis())
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), h.transport.AccessToken(c.Request)); err != nil {
		common.RespondError(c, OpSignOut, err)
		return
	}
	h.transport.Clear(c.Writer)
	common.RespondOK(c, "Logout successful", nil)
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if !h.bind(c, OpSignUp, &req) {
		return
	}

	rec, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		common.RespondError(c, OpSignUp, err)
		return
	}
	common.RespondCreated(c, "Registration successful", rec)
}

func (h *Handler) verifyEmail(c *gin.Context) {
	if err := h.service.VerifyEmail(c.Request.Context(), h.transport.AccessToken(c.Request)); err != nil {
		common.RespondError(c, OpVerifyEmail, err)
		return
	}
	common.RespondOK(c, "Verification email sent", nil)
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !h.bind(c, OpResetPassword, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), h.transport.AccessToken(c.Request), req.NewPassword); err != nil {
		common.RespondError(c, OpResetPassword, err)
		return
	}
	common.RespondOK(c, "Password reset successful", nil)
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !h.bind(c, OpForgotPassword, &req) {
		return
	}

	if err := h.service.RequestPasswordRecovery(c.Request.Context(), req.Email); err != nil {
		common.RespondError(c, OpForgotPassword, err)
		return
	}
	common.RespondOK(c, "Password recovery email sent", nil)
}

func (h *Handler) refreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	// the body is optional; anything unreadable means remember=false
	_ = c.ShouldBindJSON(&req)

	result, err := h.service.RefreshToken(c.Request.Context(), h.transport.RefreshToken(c.Request), req.Remember)
	if err != nil {
		common.RespondError(c, OpRefreshToken, err)
		return
	}

	h.transport.Write(c.Writer, result.Cookies)
	common.RespondWithExpiry(c, http.StatusOK, "Tokens are refreshed successfully", nil, result.Cookies.ExpiresInMillis())
}

func (h *Handler) profile(c *gin.Context) {
	user, err := h.service.FetchProfile(c.Request.Context(), h.transport.AccessToken(c.Request))
	if err != nil {
		common.RespondError(c, OpProfile, err)
		return
	}
	common.RespondOK(c, "User profile fetched successfully", user)
}
