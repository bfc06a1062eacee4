package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/labvault/backend/internal/models"
	"github.com/labvault/backend/pkg/logger"
	"gorm.io/gorm"
)

// JWTStrategy resolves a signed session token into its subject user. A
// cryptographically valid token whose subject no longer resolves (the
// user was deleted after issuance) fails authorization here even though
// the signature still verifies.
type JWTStrategy struct {
	db     *gorm.DB
	tokens *TokenService
}

func NewJWTStrategy(db *gorm.DB, tokens *TokenService) *JWTStrategy {
	return &JWTStrategy{db: db, tokens: tokens}
}

func (s *JWTStrategy) Authenticate(ctx context.Context, creds Credentials) (*models.User, error) {
	claims, err := s.tokens.Verify(creds.Token)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubjectClaim
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrMissingSubjectClaim
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Warn("jwt_subject_not_found", map[string]interface{}{
				"user_id": claims.Subject,
			})
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// APITokenStrategy matches an opaque bearer string against the API
// tokens users have minted. Tokens are random hex with no expiry; they
// live until replaced wholesale on the owning user.
type APITokenStrategy struct {
	db *gorm.DB
}

func NewAPITokenStrategy(db *gorm.DB) *APITokenStrategy {
	return &APITokenStrategy{db: db}
}

func (s *APITokenStrategy) Authenticate(ctx context.Context, creds Credentials) (*models.User, error) {
	if creds.Token == "" {
		return nil, ErrUserNotFound
	}

	// api_tokens is a JSON text column; tokens are hex strings, so a
	// quoted substring match cannot false-positive across entries.
	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("api_tokens LIKE ?", `%"`+creds.Token+`"%`).
		Find(&users).Error; err != nil {
		return nil, err
	}

	for i := range users {
		for _, token := range users[i].APITokens {
			if token == creds.Token {
				return &users[i], nil
			}
		}
	}
	return nil, ErrUserNotFound
}
