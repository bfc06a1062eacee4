package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labvault/backend/internal/database"
	"github.com/labvault/backend/internal/models"
	"github.com/labvault/backend/pkg/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

// EventSink receives lifecycle notifications for the change-feed relay.
type EventSink interface {
	UserJoined(ctx context.Context, user *models.User) error
}

// GoogleStrategy exchanges an OAuth authorization code for a Google
// profile and resolves it to a local user, provisioning one on first
// login. Instances are immutable; settings changes build a new instance
// and swap it into the registry.
type GoogleStrategy struct {
	db           *gorm.DB
	cfg          *oauth2.Config
	hostedDomain string
	events       EventSink
}

func NewGoogleStrategy(db *gorm.DB, settings models.GoogleSettings, events EventSink) *GoogleStrategy {
	return &GoogleStrategy{
		db: db,
		cfg: &oauth2.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			RedirectURL:  settings.RedirectURI,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
		hostedDomain: settings.HostedDomain,
		events:       events,
	}
}

// AuthCodeURL builds the redirect into the Google consent flow.
func (s *GoogleStrategy) AuthCodeURL(state string) string {
	opts := []oauth2.AuthCodeOption{}
	if s.hostedDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", s.hostedDomain))
	}
	return s.cfg.AuthCodeURL(state, opts...)
}

// GoogleProfile is the slice of the userinfo payload the strategy needs.
type GoogleProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *GoogleStrategy) Authenticate(ctx context.Context, creds Credentials) (*models.User, error) {
	token, err := s.cfg.Exchange(ctx, creds.Code)
	if err != nil {
		logger.Warn("google_exchange_failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, ErrBadCredentials
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	return s.ResolveUser(ctx, profile, token)
}

// ResolveUser maps a provider profile to the linked local user, creating
// one on first contact.
func (s *GoogleStrategy) ResolveUser(ctx context.Context, profile *GoogleProfile, token *oauth2.Token) (*models.User, error) {
	var identity models.FederatedIdentity
	err := s.db.WithContext(ctx).
		First(&identity, "id = ? AND provider = ?", profile.ID, models.FederatedProviderGoogle).Error
	switch {
	case err == nil:
		var user models.User
		if err := s.db.WithContext(ctx).First(&user, "id = ?", identity.LocalUserID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		return &user, nil
	case err == gorm.ErrRecordNotFound:
		return s.provision(ctx, profile, token)
	default:
		return nil, err
	}
}

func (s *GoogleStrategy) fetchProfile(ctx context.Context, token *oauth2.Token) (*GoogleProfile, error) {
	client := s.cfg.Client(ctx, token)

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("google api returned status %d: %s", resp.StatusCode, string(body))
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// provision creates a local user plus the linking identity row for a
// Google account seen for the first time. The username is taken from the
// local part of the email; if that name is in use the provider's subject
// id is used instead.
func (s *GoogleStrategy) provision(ctx context.Context, profile *GoogleProfile, token *oauth2.Token) (*models.User, error) {
	username := strings.SplitN(profile.Email, "@", 2)[0]
	taken, err := database.UsernameTaken(s.db.WithContext(ctx), username)
	if err != nil {
		return nil, err
	}
	if taken || username == "" {
		username = profile.ID
	}

	user := models.User{
		Username:    username,
		DisplayName: profile.Name,
		Email:       profile.Email,
		Role:        models.UserRoleUser,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	identity := models.FederatedIdentity{
		ID:           profile.ID,
		Provider:     models.FederatedProviderGoogle,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Profile: map[string]interface{}{
			"id":    profile.ID,
			"email": profile.Email,
			"name":  profile.Name,
		},
		LocalUserID: user.ID,
	}
	if err := s.db.WithContext(ctx).Create(&identity).Error; err != nil {
		return nil, err
	}

	if err := s.events.UserJoined(ctx, &user); err != nil {
		return nil, err
	}

	logger.Info("google_user_provisioned", map[string]interface{}{
		"user_id":  user.ID.String(),
		"username": user.Username,
	})

	return &user, nil
}
