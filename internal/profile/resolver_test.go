package profile

import (
	"testing"
	"time"

	"session_broker_backend/internal/shared"

	"github.com/stretchr/testify/assert"
)

func sampleProviderUser() *shared.ProviderUser {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &shared.ProviderUser{
		ID:            "uid-123",
		Email:         "a@b.com",
		EmailVerified: true,
		CreatedAt:     created,
		UpdatedAt:     created.Add(time.Hour),
	}
}

func TestMerge_NoRecordFallsBackToDefaults(t *testing.T) {
	u := Merge(sampleProviderUser(), nil)

	assert.Equal(t, "uid-123", u.ID)
	assert.Equal(t, "a@b.com", u.Email)
	assert.Equal(t, DefaultRole, u.Role)
	assert.Equal(t, "", u.Fullname)
	assert.Nil(t, u.Avatar)
	assert.True(t, u.IsVerified)
}

func TestMerge_Precedence(t *testing.T) {
	pu := sampleProviderUser()
	avatar := "https://cdn.example.com/a.png"
	rec := &Record{
		UserID:    pu.ID,
		Email:     pu.Email,
		Fullname:  "A B",
		Role:      "ADMIN",
		Avatar:    &avatar,
		CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	u := Merge(pu, rec)

	assert.Equal(t, "ADMIN", u.Role)
	assert.Equal(t, "A B", u.Fullname)
	if assert.NotNil(t, u.Avatar) {
		assert.Equal(t, avatar, *u.Avatar)
	}
	// provider owns identity timestamps
	assert.Equal(t, pu.CreatedAt, u.CreatedAt)
	assert.Equal(t, pu.UpdatedAt, u.UpdatedAt)
}

func TestMerge_Idempotent(t *testing.T) {
	pu := sampleProviderUser()
	avatar := "x"
	rec := &Record{Fullname: "A B", Role: "USER", Avatar: &avatar}

	assert.Equal(t, Merge(pu, rec), Merge(pu, rec))
	assert.Equal(t, Merge(pu, nil), Merge(pu, nil))
}

func TestMerge_EmptyRoleKeepsDefault(t *testing.T) {
	u := Merge(sampleProviderUser(), &Record{Fullname: "A"})
	assert.Equal(t, DefaultRole, u.Role)
}
