package shared

import (
	"context"
	"fmt"
	"time"
)

// ProviderUser is the identity record the identity provider holds for a user.
type ProviderUser struct {
	ID            string
	Email         string
	DisplayName   string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session is a token pair issued by the identity provider.
type Session struct {
	AccessToken  string
	RefreshToken string
}

// SignUpRequest carries the fields needed to create a provider account.
type SignUpRequest struct {
	Email       string
	Password    string
	DisplayName string
}

// ProviderError is a failure reported by the identity provider.
// Status is zero when the provider gave none.
type ProviderError struct {
	Message string
	Status  int
	Code    string
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("identity provider error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("identity provider error: %s", e.Message)
}

// IdentityProvider is the external service that owns credentials and issues tokens.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*ProviderUser, *Session, error)
	SignOut(ctx context.Context, accessToken string) error
	SignUp(ctx context.Context, req SignUpRequest) (*ProviderUser, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	GetUserByAccessToken(ctx context.Context, accessToken string) (*ProviderUser, error)
	SendPasswordReset(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
	SendEmailVerification(ctx context.Context, accessToken string) error
	DeleteUser(ctx context.Context, userID string) error
	// EachUser calls fn for every account until fn returns an error.
	EachUser(ctx context.Context, fn func(*ProviderUser) error) error
}
