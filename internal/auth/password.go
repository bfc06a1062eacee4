package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor for stored hashes. Raising it
// does not invalidate existing hashes but makes new logins slower.
const bcryptCost = 10

// PasswordService hashes and verifies local passwords. The process-wide
// salt is prepended to the plaintext before bcrypt adds its own per-hash
// random salt, so two hashes of the same password never match each other.
type PasswordService struct {
	salt string
}

func NewPasswordService(salt string) *PasswordService {
	return &PasswordService{salt: salt}
}

func (s *PasswordService) salted(plain string) []byte {
	return []byte(s.salt + plain)
}

func (s *PasswordService) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(s.salted(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plain matches hash. A mismatch is a normal
// (false, nil) result; an error means the hash primitive itself failed,
// e.g. on a corrupted stored hash.
func (s *PasswordService) Verify(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), s.salted(plain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
