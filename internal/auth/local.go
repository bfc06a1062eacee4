package auth

import (
	"context"

	"github.com/labvault/backend/internal/models"
	"github.com/labvault/backend/pkg/logger"
	"gorm.io/gorm"
)

// LocalStrategy checks a username/password pair against the store. It is
// stateless and registered once at boot.
type LocalStrategy struct {
	db        *gorm.DB
	passwords *PasswordService
}

func NewLocalStrategy(db *gorm.DB, passwords *PasswordService) *LocalStrategy {
	return &LocalStrategy{db: db, passwords: passwords}
}

func (s *LocalStrategy) Authenticate(ctx context.Context, creds Credentials) (*models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Where("username = ?", creds.Username).Find(&users).Error; err != nil {
		return nil, err
	}

	if len(users) == 0 {
		return nil, ErrNoSuchUser
	}
	if len(users) > 1 {
		// Data integrity fault. Log it loudly; the caller only ever
		// sees a generic authentication failure.
		logger.Error("ambiguous_username", ErrAmbiguousUser, map[string]interface{}{
			"username": creds.Username,
			"matches":  len(users),
		})
		return nil, ErrAmbiguousUser
	}

	user := users[0]
	if !models.IsLoginEligible(user.Role) {
		return nil, ErrRoleNotLoginEligible
	}
	if user.HashedPassword == "" {
		return nil, ErrNoPasswordSet
	}

	ok, err := s.passwords.Verify(creds.Password, user.HashedPassword)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBadCredentials
	}

	return &user, nil
}
