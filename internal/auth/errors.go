package auth

import "errors"

// Strategy failures. Handlers collapse all of these into a generic 401;
// the distinctions exist for logging and for tests.
var (
	// ErrNoSuchUser means zero users matched the presented username.
	ErrNoSuchUser = errors.New("incorrect username or password")

	// ErrAmbiguousUser means more than one user matched an exact
	// username lookup. This is a server-side integrity fault: it is
	// logged loudly and must never leak detail to the caller.
	ErrAmbiguousUser = errors.New("more than one user matched username")

	// ErrRoleNotLoginEligible rejects bot and deleted accounts even
	// when the password would have matched.
	ErrRoleNotLoginEligible = errors.New("role is not allowed to login with a password")

	// ErrNoPasswordSet means the account exists but has no local
	// password; an admin has to set one first.
	ErrNoPasswordSet = errors.New("account has no password set")

	ErrBadCredentials = errors.New("incorrect username or password")

	// ErrStrategyNotConfigured is returned when authenticating against
	// a strategy name with no registered instance, e.g. Google login
	// while the OAuth settings are incomplete.
	ErrStrategyNotConfigured = errors.New("authentication strategy is not configured")

	// ErrMissingSubjectClaim rejects tokens that verified but carry no
	// sub claim to resolve a user from.
	ErrMissingSubjectClaim = errors.New("token is missing the sub claim")

	// ErrUserNotFound means the credential was valid but its subject no
	// longer resolves, e.g. the user was deleted after issuance.
	ErrUserNotFound = errors.New("user not found")

	ErrTokenInvalid = errors.New("invalid or expired token")
)

var failures = []error{
	ErrNoSuchUser,
	ErrAmbiguousUser,
	ErrRoleNotLoginEligible,
	ErrNoPasswordSet,
	ErrBadCredentials,
	ErrStrategyNotConfigured,
	ErrMissingSubjectClaim,
	ErrUserNotFound,
	ErrTokenInvalid,
}

// IsFailure reports whether err is an authentication failure rather than
// an infrastructure error. Failures become 401 responses; anything else
// is a 500.
func IsFailure(err error) bool {
	for _, failure := range failures {
		if errors.Is(err, failure) {
			return true
		}
	}
	return false
}
