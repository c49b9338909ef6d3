package firebase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"session_broker_backend/internal/config"
	"session_broker_backend/internal/shared"
)

// authClient is the subset of *auth.Client used by FirebaseService.
type authClient interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	UpdateUser(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// userIterator is satisfied by *auth.UserIterator.
type userIterator interface {
	Next() (*auth.ExportedUserRecord, error)
}

// FirebaseService is the Firebase-backed shared.IdentityProvider.
type FirebaseService struct {
	authClient     authClient
	listUsers      func(ctx context.Context) userIterator
	rest           *restClient
	refresher      *tokenRefresher
	frontendURL    string
	frontendAPIURL string
	logger         *zap.Logger
}

var _ shared.IdentityProvider = (*FirebaseService)(nil)

// NewFirebaseService initializes the Firebase Admin SDK and the REST clients
// used for password sign-in, token refresh and out-of-band emails.
func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, error) {
	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Error("Firebase service account key path is not configured.")
		return nil, fmt.Errorf("firebase service account key path is required")
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	app, err := firebase.NewApp(context.Background(), conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Auth(context.Background())
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.ServerTimeout}
	svc := newService(client, httpClient, cfg, logger)
	svc.listUsers = func(ctx context.Context) userIterator { return client.Users(ctx, "") }

	logger.Info("Firebase Admin SDK initialized successfully.")
	return svc, nil
}

func newService(client authClient, httpClient *http.Client, cfg *config.Config, logger *zap.Logger) *FirebaseService {
	return &FirebaseService{
		authClient:     client,
		rest:           newRESTClient(httpClient, cfg.FirebaseAuthBaseURL, cfg.FirebaseWebAPIKey),
		refresher:      newTokenRefresher(httpClient, cfg.FirebaseTokenURL, cfg.FirebaseWebAPIKey),
		frontendURL:    cfg.FrontendURL,
		frontendAPIURL: cfg.FrontendAPIURL,
		logger:         logger.Named("firebase"),
	}
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func toProviderUser(rec *auth.UserRecord) *shared.ProviderUser {
	pu := &shared.ProviderUser{EmailVerified: rec.EmailVerified}
	if rec.UserInfo != nil {
		pu.ID = rec.UID
		pu.Email = rec.Email
		pu.DisplayName = rec.DisplayName
	}
	if rec.UserMetadata != nil {
		pu.CreatedAt = millisToTime(rec.UserMetadata.CreationTimestamp)
		pu.UpdatedAt = millisToTime(rec.UserMetadata.LastRefreshTimestamp)
		if pu.UpdatedAt.IsZero() {
			pu.UpdatedAt = pu.CreatedAt
		}
	}
	return pu
}

// SignIn verifies email and password and returns the user with a new session.
func (s *FirebaseService) SignIn(ctx context.Context, email, password string) (*shared.ProviderUser, *shared.Session, error) {
	res, err := s.rest.signInWithPassword(ctx, email, password)
	if err != nil {
		s.logger.Warn("Password sign-in rejected", zap.Error(err))
		return nil, nil, err
	}

	rec, err := s.authClient.GetUser(ctx, res.LocalID)
	if err != nil {
		return nil, nil, mapAdminError("get user", err)
	}

	session := &shared.Session{
		AccessToken:  res.IDToken,
		RefreshToken: res.RefreshToken,
	}
	return toProviderUser(rec), session, nil
}

// SignOut revokes the refresh tokens of the token's owner. A missing or
// already unusable token is treated as signed out.
func (s *FirebaseService) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	token, err := s.authClient.VerifyIDTokenAndCheckRevoked(ctx, accessToken)
	if err != nil {
		if isTokenRejection(err) {
			s.logger.Debug("Sign-out with unusable token treated as no-op", zap.Error(err))
			return nil
		}
		return mapAdminError("verify token", err)
	}
	if err := s.authClient.RevokeRefreshTokens(ctx, token.UID); err != nil {
		s.logger.Error("Failed to revoke refresh tokens", zap.Error(err), zap.String("uid", token.UID))
		return mapAdminError("revoke refresh tokens", err)
	}
	s.logger.Info("Successfully revoked refresh tokens for user", zap.String("uid", token.UID))
	return nil
}

// SignUp creates a new email/password account.
func (s *FirebaseService) SignUp(ctx context.Context, req shared.SignUpRequest) (*shared.ProviderUser, error) {
	params := (&auth.UserToCreate{}).
		Email(req.Email).
		Password(req.Password).
		EmailVerified(false)
	if req.DisplayName != "" {
		params = params.DisplayName(req.DisplayName)
	}
	rec, err := s.authClient.CreateUser(ctx, params)
	if err != nil {
		return nil, mapAdminError("create user", err)
	}
	s.logger.Info("Provider account created", zap.String("uid", rec.UID))
	return toProviderUser(rec), nil
}

// RefreshSession exchanges a refresh token for a new session.
func (s *FirebaseService) RefreshSession(ctx context.Context, refreshToken string) (*shared.Session, error) {
	return s.refresher.refresh(ctx, refreshToken)
}

func (s *FirebaseService) verify(ctx context.Context, accessToken string) (*auth.Token, error) {
	if accessToken == "" {
		return nil, &shared.ProviderError{Message: "INVALID_ID_TOKEN", Status: http.StatusUnauthorized, Code: "INVALID_ID_TOKEN"}
	}
	token, err := s.authClient.VerifyIDTokenAndCheckRevoked(ctx, accessToken)
	if err != nil {
		s.logger.Debug("Firebase ID token verification failed", zap.Error(err))
		return nil, mapAdminError("verify token", err)
	}
	return token, nil
}

// GetUserByAccessToken resolves an ID token to its user record.
func (s *FirebaseService) GetUserByAccessToken(ctx context.Context, accessToken string) (*shared.ProviderUser, error) {
	token, err := s.verify(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	rec, err := s.authClient.GetUser(ctx, token.UID)
	if err != nil {
		return nil, mapAdminError("get user", err)
	}
	return toProviderUser(rec), nil
}

// SendPasswordReset emails a reset link that continues to the frontend.
func (s *FirebaseService) SendPasswordReset(ctx context.Context, email string) error {
	return s.rest.sendOobCode(ctx, oobCodeRequest{
		RequestType: oobPasswordReset,
		Email:       email,
		ContinueURL: s.frontendURL,
	})
}

// UpdatePassword sets a new password for the owner of accessToken.
func (s *FirebaseService) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	token, err := s.verify(ctx, accessToken)
	if err != nil {
		return err
	}
	if _, err := s.authClient.UpdateUser(ctx, token.UID, (&auth.UserToUpdate{}).Password(newPassword)); err != nil {
		return mapAdminError("update password", err)
	}
	s.logger.Info("Password updated", zap.String("uid", token.UID))
	return nil
}

// SendEmailVerification emails a verification link to the owner of accessToken.
func (s *FirebaseService) SendEmailVerification(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return &shared.ProviderError{Message: "INVALID_ID_TOKEN", Status: http.StatusUnauthorized, Code: "INVALID_ID_TOKEN"}
	}
	return s.rest.sendOobCode(ctx, oobCodeRequest{
		RequestType: oobVerifyEmail,
		IDToken:     accessToken,
		ContinueURL: s.frontendAPIURL,
	})
}

// DeleteUser removes a provider account.
func (s *FirebaseService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.authClient.DeleteUser(ctx, userID); err != nil {
		return mapAdminError("delete user", err)
	}
	s.logger.Info("Provider account deleted", zap.String("uid", userID))
	return nil
}

// EachUser walks every provider account in pages.
func (s *FirebaseService) EachUser(ctx context.Context, fn func(*shared.ProviderUser) error) error {
	if s.listUsers == nil {
		return errors.New("user listing is not configured")
	}
	it := s.listUsers(ctx)
	for {
		rec, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return mapAdminError("list users", err)
		}
		if err := fn(toProviderUser(rec.UserRecord)); err != nil {
			return err
		}
	}
}
