package database

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/labvault/backend/internal/config"
	"github.com/labvault/backend/internal/models"
	"github.com/labvault/backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Bootstrap credentials for an empty store. Creating a well-known
// admin/admin account is an operational hazard by first-run convenience;
// the warning at creation time is intentionally loud.
const (
	FirstUserUsername = "admin"
	FirstUserPassword = "admin"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.FederatedIdentity{},
		&models.Settings{},
		&models.Event{},
	)
}

// LoadSettings reads the singleton settings row. A store without one is
// provisioned with fresh random secrets; any other failure is returned
// to the caller, which must refuse to serve without secret material.
func LoadSettings(db *gorm.DB) (*models.Settings, error) {
	var settings models.Settings
	err := db.First(&settings, "id = ?", models.SettingsID).Error
	if err == gorm.ErrRecordNotFound {
		return provisionSettings(db)
	}
	if err != nil {
		return nil, err
	}
	if settings.JWTSecret == "" || settings.PasswordSalt == "" {
		return nil, errors.New("settings row is missing secret material")
	}
	return &settings, nil
}

func provisionSettings(db *gorm.DB) (*models.Settings, error) {
	jwtSecret, err := randomSecret()
	if err != nil {
		return nil, err
	}
	passwordSalt, err := randomSecret()
	if err != nil {
		return nil, err
	}

	settings := models.Settings{
		ID:           models.SettingsID,
		JWTSecret:    jwtSecret,
		PasswordSalt: passwordSalt,
	}
	if err := db.Create(&settings).Error; err != nil {
		return nil, err
	}

	logger.Warn("settings_provisioned", map[string]interface{}{
		"reason": "no settings row found, generated fresh secrets",
	})

	return &settings, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// EnsureAdminUser creates the first admin account when the store holds
// no users at all. Must complete before the listener starts.
func EnsureAdminUser(db *gorm.DB, hash func(string) (string, error)) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := hash(FirstUserPassword)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:       FirstUserUsername,
		DisplayName:    "Admin",
		HashedPassword: hashed,
		Role:           models.UserRoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	logger.Warn("first_user_created", map[string]interface{}{
		"username": FirstUserUsername,
		"password": FirstUserPassword,
		"warning":  "no users found, created a default admin account; change its password",
	})

	return nil
}

// UsernameTaken reports whether a non-deleted user currently holds the
// username. Deleted users release their name. The check is read-then-
// write with no store-level constraint, so two concurrent writers can
// both pass it; the race is documented and accepted.
func UsernameTaken(db *gorm.DB, username string) (bool, error) {
	if username == "" {
		return true, nil
	}
	var count int64
	err := db.Model(&models.User{}).
		Where("username = ? AND role <> ?", username, models.UserRoleDeleted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
