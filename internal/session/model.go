// File: internal/session/model.go
package session

import (
	"session_broker_backend/internal/cookie"
	"session_broker_backend/internal/profile"
)

// Route labels reported in failure envelopes, audit events and metrics.
const (
	OpSignIn         = "signin"
	OpSignOut        = "signout"
	OpSignUp         = "signup"
	OpProfile        = "profile"
	OpRefreshToken   = "refreshToken"
	OpVerifyEmail    = "verifyEmail"
	OpResetPassword  = "resetPassword"
	OpForgotPassword = "forgotPassword"
)

// LoginRequest defines the structure for login requests.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

// RegisterRequest defines the structure for registration requests.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	Fullname string `json:"fullname" binding:"required,notblank,max=255"`
}

// ResetPasswordRequest carries the new password for the signed-in user.
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// ForgotPasswordRequest carries the address to send a recovery email to.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// RefreshTokenRequest is optional; a missing body means remember=false.
type RefreshTokenRequest struct {
	Remember bool `json:"remember"`
}

// LoginResult is what a successful Login hands to the transport layer.
type LoginResult struct {
	User    *profile.CanonicalUser
	Cookies cookie.Pair
}

// RefreshResult carries the re-issued cookie pair.
type RefreshResult struct {
	Cookies cookie.Pair
}
