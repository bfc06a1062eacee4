package auth

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labvault/backend/internal/database"
	"github.com/labvault/backend/internal/models"
	"github.com/labvault/backend/pkg/logger"
	"gorm.io/gorm"
)

func init() {
	logger.Init()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed migrating models: %v", err)
	}

	return db
}

func createUser(t *testing.T, db *gorm.DB, username, password string, role models.UserRole, passwords *PasswordService) *models.User {
	t.Helper()

	user := &models.User{
		Username:    username,
		DisplayName: "Test User",
		Role:        role,
	}
	if password != "" {
		hash, err := passwords.Hash(password)
		if err != nil {
			t.Fatalf("failed hashing password: %v", err)
		}
		user.HashedPassword = hash
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}
	return user
}

// recordingSink collects join notifications for assertions.
type recordingSink struct {
	joined []*models.User
}

func (s *recordingSink) UserJoined(_ context.Context, user *models.User) error {
	s.joined = append(s.joined, user)
	return nil
}
