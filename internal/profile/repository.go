// File: internal/profile/repository.go
package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"session_broker_backend/internal/common"

	"gorm.io/gorm"
)

// Repository defines the interface for profile data operations.
type Repository interface {
	// FindByEmail returns nil, nil when no profile exists for email.
	FindByEmail(ctx context.Context, email string) (*Record, error)
	// ExistsByUserID reports whether a profile is linked to the provider user.
	ExistsByUserID(ctx context.Context, userID string) (bool, error)
	Create(ctx context.Context, rec *Record) error
	// UpdateFullname returns common.ErrNotFound when no profile matches email.
	UpdateFullname(ctx context.Context, email, fullname string) (*Record, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM profile repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// FindByEmail retrieves a profile by email.
func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*Record, error) {
	var rec Record
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, common.NewPersistenceError(err)
	}
	return &rec, nil
}

func (r *gormRepository) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Record{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, common.NewPersistenceError(err)
	}
	return count > 0, nil
}

// Create inserts a new profile record.
func (r *gormRepository) Create(ctx context.Context, rec *Record) error {
	rec.Email = normalizeEmail(rec.Email)
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithMessage("A profile for this user already exists.").Wrap(err)
		}
		return common.NewPersistenceError(err)
	}
	return nil
}

// UpdateFullname sets the fullname of the profile identified by email and
// returns the updated record.
func (r *gormRepository) UpdateFullname(ctx context.Context, email, fullname string) (*Record, error) {
	normalized := normalizeEmail(email)
	var rec Record
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Record{}).
			Where("email = ?", normalized).
			Updates(map[string]interface{}{"fullname": fullname, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return common.NewPersistenceError(res.Error)
		}
		if res.RowsAffected == 0 {
			return common.ErrNotFound.WithMessage("No profile found for this user.")
		}
		if err := tx.Where("email = ?", normalized).First(&rec).Error; err != nil {
			return common.NewPersistenceError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
