package auth

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/salesapp/sales-management/internal/hash"
	"github.com/salesapp/sales-management/internal/models"
	"github.com/salesapp/sales-management/internal/repo"
)

var testSecret = []byte("test-jwt-secret")

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repo.Migrate(db))
	return repo.New(db)
}

func seedUser(t *testing.T, r *repo.GormRepo, username, password string, active bool) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: pwHash,
		FullName:     "Test " + username,
		Role:         models.RoleStaff,
		IsActive:     active,
	}
	require.NoError(t, r.CreateUser(context.Background(), user))
	return user
}
