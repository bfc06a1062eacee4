package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenValidity is the fixed lifetime of issued session tokens. There is
// no revocation list: a token stays valid until it expires, regardless of
// later account changes. Only rotating the shared secret (and restarting)
// invalidates outstanding tokens, all of them at once.
const TokenValidity = 7 * 24 * time.Hour

type Claims struct {
	jwt.RegisteredClaims
}

// TokenService signs and verifies session bearer tokens. The secret is
// loaded once at boot from the settings row.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// Issue signs a token with the user id as the sub claim, usable
// immediately and for the next seven days.
func (s *TokenService) Issue(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(time.Unix(0, 0)),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenValidity)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
