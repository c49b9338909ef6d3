// File: internal/profile/model.go
package profile

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultRole is assigned to every new profile and reported when none exists.
const DefaultRole = "USER"

// Record is the application-level profile of a user, keyed by email.
type Record struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(128);not null;uniqueIndex:idx_profiles_user_id" json:"user_id"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_profiles_email" json:"email"`
	Fullname  string    `gorm:"type:varchar(255);not null;default:''" json:"fullname"`
	Role      string    `gorm:"type:varchar(50);not null;default:'USER'" json:"role"`
	Avatar    *string   `gorm:"type:text" json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Record model.
func (Record) TableName() string {
	return "profiles"
}

// BeforeCreate assigns an ID and the default role when they are unset.
func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Role == "" {
		r.Role = DefaultRole
	}
	return nil
}

// CanonicalUser is the merged provider/profile view returned to clients.
type CanonicalUser struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Fullname   string    `json:"fullname"`
	Avatar     *string   `json:"avatar"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	IsVerified bool      `json:"isUserVerified"`
}

// UpdateFullnameRequest is the body of PUT /user/update-user-fullname.
type UpdateFullnameRequest struct {
	Fullname string `json:"fullname" binding:"max=255"`
}
