package models

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleUser    UserRole = "user"
	UserRoleBot     UserRole = "bot"
	UserRoleDeleted UserRole = "deleted"
)

// IsValidRole reports whether role belongs to the closed role set.
func IsValidRole(role UserRole) bool {
	switch role {
	case UserRoleAdmin, UserRoleUser, UserRoleBot, UserRoleDeleted:
		return true
	default:
		return false
	}
}

// IsLoginEligible reports whether users with this role may authenticate
// with a password. Bots hold API tokens only; deleted users hold nothing.
func IsLoginEligible(role UserRole) bool {
	return role == UserRoleAdmin || role == UserRoleUser
}

// User rows are never physically removed; deletion is a transition to
// the "deleted" role. Username uniqueness is enforced in code against
// non-deleted rows only, so the column carries a plain index.
type User struct {
	BaseModel
	Username       string   `json:"username" gorm:"type:varchar(255);not null;index"`
	DisplayName    string   `json:"display_name" gorm:"type:varchar(255);not null"`
	Email          string   `json:"email,omitempty" gorm:"type:varchar(255)"`
	HashedPassword string   `json:"-" gorm:"type:text"`
	Role           UserRole `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	// Stored as JSON text rather than jsonb so the token-match query
	// behaves the same on postgres and the sqlite test database.
	APITokens []string `json:"-" gorm:"type:text;serializer:json"`
}

// SanitizedUser is the externally visible view of a User. It never
// carries the password hash, only whether one is set.
type SanitizedUser struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email,omitempty"`
	Role        UserRole `json:"role"`
	HasPassword bool     `json:"has_password"`
}

func (u *User) Sanitized() SanitizedUser {
	return SanitizedUser{
		ID:          u.ID.String(),
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        u.Role,
		HasPassword: u.HashedPassword != "",
	}
}
