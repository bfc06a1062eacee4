package auth

import (
	"context"

	"github.com/labvault/backend/internal/models"
)

// Strategy names the registry knows about.
const (
	StrategyLocal  = "local"
	StrategyGoogle = "google"
	StrategyJWT    = "jwt"
	StrategyToken  = "token"
)

// Credentials carries the inputs of any strategy. Each strategy reads
// only the fields it understands: local takes Username/Password, the
// bearer strategies take Token, google takes the authorization Code.
type Credentials struct {
	Username string
	Password string
	Token    string
	Code     string
}

// Strategy authenticates a set of credentials into a principal. A
// strategy instance is an immutable value; reconfiguration swaps whole
// instances in the registry rather than mutating one in place.
type Strategy interface {
	Authenticate(ctx context.Context, creds Credentials) (*models.User, error)
}
