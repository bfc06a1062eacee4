package handlers

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/gofiber/fiber/v2"
	"github.com/labvault/backend/internal/auth"
	"github.com/labvault/backend/internal/middleware"
	"github.com/labvault/backend/internal/models"
	"github.com/labvault/backend/pkg/logger"
	"github.com/labvault/backend/pkg/utils"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB       *gorm.DB
	Registry *auth.Registry
	Tokens   *auth.TokenService
}

func NewAuthHandler(db *gorm.DB, registry *auth.Registry, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{DB: db, Registry: registry, Tokens: tokens}
}

// AvailableStrategies reports which login methods the frontend can
// offer. Local login always exists; Google only while its settings are
// complete.
func (h *AuthHandler) AvailableStrategies(c *fiber.Ctx) error {
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"local":  true,
		"google": h.Registry.Has(auth.StrategyGoogle),
	})
}

type localLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) LoginLocal(c *fiber.Ctx) error {
	var req localLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "username and password are required")
	}

	user, err := h.Registry.Authenticate(
		c.Context(),
		[]string{auth.StrategyLocal},
		auth.Credentials{Username: req.Username, Password: req.Password},
	)
	if err != nil {
		return h.loginFailure(c, req.Username, err)
	}

	return h.issueToken(c, user)
}

// loginFailure maps strategy errors onto responses. Integrity faults are
// already logged by the strategy and must surface generically.
func (h *AuthHandler) loginFailure(c *fiber.Ctx, username string, err error) error {
	if !auth.IsFailure(err) {
		logger.Error("login_infrastructure_error", err, map[string]interface{}{
			"username": username,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "login failed")
	}

	logger.Warn("login_rejected", map[string]interface{}{
		"username": username,
		"reason":   err.Error(),
	})

	message := err.Error()
	if err == auth.ErrAmbiguousUser {
		message = auth.ErrBadCredentials.Error()
	}
	return utils.Error(c, fiber.StatusUnauthorized, message)
}

func (h *AuthHandler) issueToken(c *fiber.Ctx, user *models.User) error {
	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to generate token")
	}

	logger.Info("login_success", map[string]interface{}{
		"user_id":  user.ID.String(),
		"username": user.Username,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"access_token": token})
}

// GoogleRedirect sends the browser into the Google consent flow.
func (h *AuthHandler) GoogleRedirect(c *fiber.Ctx) error {
	strategy, ok := h.Registry.Get(auth.StrategyGoogle)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, auth.ErrStrategyNotConfigured.Error())
	}
	google, ok := strategy.(*auth.GoogleStrategy)
	if !ok {
		return utils.Error(c, fiber.StatusInternalServerError, "misconfigured strategy")
	}

	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to generate state")
	}
	state := base64.URLEncoding.EncodeToString(nonce)

	return c.Redirect(google.AuthCodeURL(state))
}

func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return utils.Error(c, fiber.StatusBadRequest, "authorization code is required")
	}

	user, err := h.Registry.Authenticate(
		c.Context(),
		[]string{auth.StrategyGoogle},
		auth.Credentials{Code: code},
	)
	if err != nil {
		return h.loginFailure(c, "google", err)
	}

	return h.issueToken(c, user)
}

func (h *AuthHandler) Self(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, user.Sanitized())
}

func (h *AuthHandler) GoogleSettingsGet(c *fiber.Ctx) error {
	var settings models.Settings
	if err := h.DB.First(&settings, "id = ?", models.SettingsID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading settings")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"google_settings": settings.Google})
}

type googleSettingsRequest struct {
	GoogleSettings models.GoogleSettings `json:"google_settings"`
}

// GoogleSettingsUpdate persists new federated-login settings and swaps
// the registered strategy immediately, so the next login attempt already
// uses the new configuration.
func (h *AuthHandler) GoogleSettingsUpdate(c *fiber.Ctx) error {
	var req googleSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var settings models.Settings
	if err := h.DB.First(&settings, "id = ?", models.SettingsID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading settings")
	}

	settings.Google = req.GoogleSettings
	if err := h.DB.Model(&models.Settings{}).
		Where("id = ?", models.SettingsID).
		Update("google", settings.Google).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed saving settings")
	}

	h.Registry.Reconfigure(&settings)

	logger.Info("google_settings_updated", map[string]interface{}{
		"is_enabled": settings.Google.IsEnabled,
		"registered": h.Registry.Has(auth.StrategyGoogle),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"google_settings": settings.Google})
}
