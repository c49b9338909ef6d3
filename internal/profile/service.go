// File: internal/profile/service.go
package profile

import (
	"context"
	"net/http"
	"strings"
	"time"

	"session_broker_backend/internal/common"
	"session_broker_backend/internal/shared"

	"go.uber.org/zap"
)

// Service resolves canonical users and manages profile records.
type Service interface {
	Lookup(ctx context.Context, email string) (*Record, error)
	Resolve(ctx context.Context, pu *shared.ProviderUser) (*CanonicalUser, error)
	CreateFor(ctx context.Context, pu *shared.ProviderUser, fullname string) (*Record, error)
	HasProfile(ctx context.Context, userID string) (bool, error)
	UpdateFullname(ctx context.Context, email, fullname string) (*Record, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new profile service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger.Named("profile")}
}

func (s *service) Lookup(ctx context.Context, email string) (*Record, error) {
	return s.repo.FindByEmail(ctx, email)
}

// Resolve builds the canonical view of pu. A missing profile is not an error.
func (s *service) Resolve(ctx context.Context, pu *shared.ProviderUser) (*CanonicalUser, error) {
	var rec *Record
	if pu.Email != "" {
		found, err := s.Lookup(ctx, pu.Email)
		if err != nil {
			s.logger.Error("Profile lookup failed", zap.String("userID", pu.ID), zap.Error(err))
			return nil, err
		}
		rec = found
	}
	u := Merge(pu, rec)
	return &u, nil
}

// CreateFor persists the profile derived from a freshly registered provider user.
func (s *service) CreateFor(ctx context.Context, pu *shared.ProviderUser, fullname string) (*Record, error) {
	createdAt := pu.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := pu.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	rec := &Record{
		UserID:    pu.ID,
		Email:     pu.Email,
		Fullname:  strings.TrimSpace(fullname),
		Role:      DefaultRole,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("Profile created", zap.String("userID", rec.UserID), zap.String("profileID", rec.ID.String()))
	return rec, nil
}

func (s *service) HasProfile(ctx context.Context, userID string) (bool, error) {
	return s.repo.ExistsByUserID(ctx, userID)
}

// UpdateFullname trims fullname and checks it before the caller email.
func (s *service) UpdateFullname(ctx context.Context, email, fullname string) (*Record, error) {
	trimmed := strings.TrimSpace(fullname)
	if trimmed == "" {
		return nil, common.NewValidationError("Invalid fullname provided", nil)
	}
	if strings.TrimSpace(email) == "" {
		return nil, common.NewAuthenticationError(http.StatusForbidden, "User does not exist")
	}
	return s.repo.UpdateFullname(ctx, email, trimmed)
}
