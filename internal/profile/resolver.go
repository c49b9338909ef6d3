// File: internal/profile/resolver.go
package profile

import "session_broker_backend/internal/shared"

// Merge combines a provider user with its (possibly missing) profile record.
// Identity, timestamps and verification come from the provider; role,
// fullname and avatar from the profile. A nil record yields the defaults.
func Merge(pu *shared.ProviderUser, rec *Record) CanonicalUser {
	u := CanonicalUser{
		ID:         pu.ID,
		Email:      pu.Email,
		Role:       DefaultRole,
		CreatedAt:  pu.CreatedAt,
		UpdatedAt:  pu.UpdatedAt,
		IsVerified: pu.EmailVerified,
	}
	if rec == nil {
		return u
	}
	if rec.Role != "" {
		u.Role = rec.Role
	}
	u.Fullname = rec.Fullname
	if rec.Avatar != nil {
		avatar := *rec.Avatar
		u.Avatar = &avatar
	}
	return u
}
