package profile

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"session_broker_backend/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Record{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestRepository_CreateAndFind(t *testing.T) {
	repo := NewGORMRepository(newTestDB(t))
	ctx := context.Background()

	rec := &Record{UserID: "uid-1", Email: " A@B.com ", Fullname: "A B"}
	require.NoError(t, repo.Create(ctx, rec))
	assert.NotEqual(t, "", rec.ID.String())
	assert.Equal(t, DefaultRole, rec.Role)
	assert.Equal(t, "a@b.com", rec.Email)

	found, err := repo.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "uid-1", found.UserID)
	assert.Equal(t, "A B", found.Fullname)

	exists, err := repo.ExistsByUserID(ctx, "uid-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepository_FindByEmailMissingIsNil(t *testing.T) {
	repo := NewGORMRepository(newTestDB(t))

	found, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_CreateDuplicateIsConflict(t *testing.T) {
	repo := NewGORMRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Record{UserID: "uid-1", Email: "a@b.com"}))
	err := repo.Create(ctx, &Record{UserID: "uid-2", Email: "a@b.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestRepository_UpdateFullname(t *testing.T) {
	repo := NewGORMRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Record{UserID: "uid-1", Email: "a@b.com", Fullname: "Old"}))

	updated, err := repo.UpdateFullname(ctx, "A@B.com", "New Name")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Fullname)

	_, err = repo.UpdateFullname(ctx, "missing@b.com", "X")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
