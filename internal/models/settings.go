package models

// SettingsID is the fixed identifier of the singleton settings row.
const SettingsID = 1

type GoogleSettings struct {
	IsEnabled    bool   `json:"is_enabled"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
	HostedDomain string `json:"hosted_domain"`
}

// IsConfigured reports whether the federated strategy can be registered:
// the admin enabled it and every required OAuth field is present.
func (g GoogleSettings) IsConfigured() bool {
	return g.IsEnabled && g.ClientID != "" && g.ClientSecret != "" && g.RedirectURI != ""
}

// Settings holds process-wide secret material and admin-mutable strategy
// configuration. Secrets are read once at boot; rotating them requires a
// restart and invalidates every outstanding session token.
type Settings struct {
	ID           int            `json:"-" gorm:"primaryKey"`
	JWTSecret    string         `json:"-" gorm:"type:text;not null"`
	PasswordSalt string         `json:"-" gorm:"type:text;not null"`
	Google       GoogleSettings `json:"google" gorm:"type:text;serializer:json"`
}
