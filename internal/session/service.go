// File: internal/session/service.go
package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"session_broker_backend/internal/audit"
	"session_broker_backend/internal/autherr"
	"session_broker_backend/internal/common"
	"session_broker_backend/internal/cookie"
	"session_broker_backend/internal/metrics"
	"session_broker_backend/internal/profile"
	"session_broker_backend/internal/shared"
)

// Service runs the session lifecycle against the identity provider.
// Every returned error is a normalized *common.APIError.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, accessToken string) error
	Register(ctx context.Context, req RegisterRequest) (*profile.Record, error)
	RefreshToken(ctx context.Context, refreshToken string, remember bool) (*RefreshResult, error)
	RequestPasswordReset(ctx context.Context, accessToken, newPassword string) error
	RequestPasswordRecovery(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, accessToken string) error
	FetchProfile(ctx context.Context, accessToken string) (*profile.CanonicalUser, error)
}

type service struct {
	provider   shared.IdentityProvider
	profiles   profile.Service
	transport  *cookie.Transport
	normalizer *autherr.Normalizer
	audit      audit.Emitter
	metrics    metrics.Recorder
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewService creates a new session service. normalizer should use autherr.AuthRules.
func NewService(
	provider shared.IdentityProvider,
	profiles profile.Service,
	transport *cookie.Transport,
	normalizer *autherr.Normalizer,
	auditEmitter audit.Emitter,
	recorder metrics.Recorder,
	logger *zap.Logger,
) Service {
	if auditEmitter == nil {
		auditEmitter = audit.NoopSink{}
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &service{
		provider:   provider,
		profiles:   profiles,
		transport:  transport,
		normalizer: normalizer,
		audit:      auditEmitter,
		metrics:    recorder,
		validate:   newValidator(),
		logger:     logger.Named("session"),
	}
}

// outcome collects what finish reports for one operation.
type outcome struct {
	op     string
	start  time.Time
	email  string
	userID string
	status int
}

func (s *service) begin(op string) *outcome {
	return &outcome{op: op, start: time.Now(), status: http.StatusOK}
}

// finish normalizes err, then records metrics and an audit event.
func (s *service) finish(ctx context.Context, o *outcome, err error) error {
	err = s.normalizer.Normalize(o.op, err)

	result := audit.OutcomeSuccess
	event := audit.NewEvent(o.op, result, o.status)
	if err != nil {
		result = audit.OutcomeFailure
		event.Outcome = result
		event.Kind = string(common.KindOf(err))
		if apiErr, ok := common.IsAPIError(err); ok {
			event.Status = apiErr.StatusCode
		}
	}
	event.Email = o.email
	event.UserID = o.userID

	s.metrics.RecordOperation(o.op, result, time.Since(o.start))
	s.audit.Emit(ctx, event)
	return err
}

func hasBothTokens(sess *shared.Session) bool {
	return sess != nil && sess.AccessToken != "" && sess.RefreshToken != ""
}

// Login signs in with email and password, resolves the canonical user and
// issues the cookie pair for the remember-me policy.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	o := s.begin(OpSignIn)
	o.email = req.Email

	if err := s.validate.Struct(req); err != nil {
		return nil, s.finish(ctx, o, invalidInput(err))
	}

	pu, sess, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.finish(ctx, o, err)
	}
	if !hasBothTokens(sess) {
		s.logger.Error("Provider sign-in returned without both tokens", zap.String("email", req.Email))
		return nil, s.finish(ctx, o, common.ErrTokenGenerationFailed)
	}
	o.userID = pu.ID
	if pu.Email == "" {
		pu.Email = req.Email
	}

	user, err := s.profiles.Resolve(ctx, pu)
	if err != nil {
		return nil, s.finish(ctx, o, err)
	}

	result := &LoginResult{User: user, Cookies: s.transport.Issue(sess, req.Remember)}
	s.logger.Info("User signed in", zap.String("userID", pu.ID), zap.Bool("remember", req.Remember))
	return result, s.finish(ctx, o, nil)
}

// Logout ends the provider session. It succeeds when no session exists.
func (s *service) Logout(ctx context.Context, accessToken string) error {
	o := s.begin(OpSignOut)
	return s.finish(ctx, o, s.provider.SignOut(ctx, accessToken))
}

// Register creates the provider account and its profile record. When the
// profile insert fails the provider account is deleted again; if that also
// fails the account is left for the profile reconciliation job.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*profile.Record, error) {
	o := s.begin(OpSignUp)
	o.email = req.Email

	if err := s.validate.Struct(req); err != nil {
		return nil, s.finish(ctx, o, invalidInput(err))
	}

	fullname := strings.TrimSpace(req.Fullname)
	pu, err := s.provider.SignUp(ctx, shared.SignUpRequest{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: fullname,
	})
	if err != nil {
		return nil, s.finish(ctx, o, err)
	}
	o.userID = pu.ID
	if pu.Email == "" {
		pu.Email = req.Email
	}

	rec, err := s.profiles.CreateFor(ctx, pu, fullname)
	if err != nil {
		s.logger.Error("Profile insert failed after provider sign-up", zap.String("userID", pu.ID), zap.Error(err))
		s.compensate(ctx, pu.ID)
		return nil, s.finish(ctx, o, err)
	}

	o.status = http.StatusCreated
	return rec, s.finish(ctx, o, nil)
}

func (s *service) compensate(ctx context.Context, userID string) {
	if err := s.provider.DeleteUser(context.WithoutCancel(ctx), userID); err != nil {
		s.logger.Error("Compensating provider account deletion failed; left for reconciliation",
			zap.String("userID", userID), zap.Error(err))
		return
	}
	s.logger.Warn("Provider account deleted after failed profile insert", zap.String("userID", userID))
}

// RefreshToken exchanges the refresh token for a new cookie pair.
// An empty token fails with 401 before the provider is called.
func (s *service) RefreshToken(ctx context.Context, refreshToken string, remember bool) (*RefreshResult, error) {
	o := s.begin(OpRefreshToken)

	if refreshToken == "" {
		return nil, s.finish(ctx, o, common.ErrUnauthenticated)
	}

	sess, err := s.provider.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, s.finish(ctx, o, err)
	}
	if !hasBothTokens(sess) {
		s.logger.Error("Provider refresh returned without both tokens")
		return nil, s.finish(ctx, o, common.ErrTokenGenerationFailed)
	}

	return &RefreshResult{Cookies: s.transport.Issue(sess, remember)}, s.finish(ctx, o, nil)
}

// RequestPasswordReset sets a new password for the signed-in user.
func (s *service) RequestPasswordReset(ctx context.Context, accessToken, newPassword string) error {
	o := s.begin(OpResetPassword)

	if newPassword == "" {
		return s.finish(ctx, o, common.NewValidationError("New password is required", nil))
	}
	if accessToken == "" {
		return s.finish(ctx, o, common.ErrUnauthenticated)
	}
	return s.finish(ctx, o, s.provider.UpdatePassword(ctx, accessToken, newPassword))
}

// RequestPasswordRecovery sends a password reset email.
func (s *service) RequestPasswordRecovery(ctx context.Context, email string) error {
	o := s.begin(OpForgotPassword)
	o.email = email

	if strings.TrimSpace(email) == "" {
		return s.finish(ctx, o, common.NewValidationError("Email is required", nil))
	}
	return s.finish(ctx, o, s.provider.SendPasswordReset(ctx, strings.TrimSpace(email)))
}

// VerifyEmail sends a verification email to the signed-in user.
func (s *service) VerifyEmail(ctx context.Context, accessToken string) error {
	o := s.begin(OpVerifyEmail)

	if accessToken == "" {
		return s.finish(ctx, o, common.ErrUnauthenticated)
	}
	return s.finish(ctx, o, s.provider.SendEmailVerification(ctx, accessToken))
}

// FetchProfile resolves the access token to its canonical user.
func (s *service) FetchProfile(ctx context.Context, accessToken string) (*profile.CanonicalUser, error) {
	o := s.begin(OpProfile)

	if accessToken == "" {
		return nil, s.finish(ctx, o, common.ErrUnauthenticated)
	}

	pu, err := s.provider.GetUserByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, s.finish(ctx, o, err)
	}
	o.userID = pu.ID
	o.email = pu.Email

	user, err := s.profiles.Resolve(ctx, pu)
	if err != nil {
		return nil, s.finish(ctx, o, err)
	}
	return user, s.finish(ctx, o, nil)
}
