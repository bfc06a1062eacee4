package handlers

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gofiber/fiber/v2"
	"github.com/labvault/backend/internal/models"
	"github.com/labvault/backend/pkg/logger"
	"github.com/labvault/backend/pkg/utils"
	"gorm.io/gorm"
)

// apiTokenLength is the entropy in bytes of a minted token; it is
// returned hex-encoded.
const apiTokenLength = 20

type APITokensHandler struct {
	DB *gorm.DB
}

func NewAPITokensHandler(db *gorm.DB) *APITokensHandler {
	return &APITokensHandler{DB: db}
}

func (h *APITokensHandler) List(c *fiber.Ctx) error {
	target, apiErr := loadTargetUser(h.DB, c)
	if apiErr != nil {
		return utils.Error(c, apiErr.status, apiErr.message)
	}

	tokens := target.APITokens
	if tokens == nil {
		tokens = []string{}
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"api_tokens": tokens})
}

// Create mints a new opaque bearer token and appends it to the user's
// list. The list is append-only from the user's perspective; there is no
// per-token revocation.
func (h *APITokensHandler) Create(c *fiber.Ctx) error {
	target, apiErr := loadTargetUser(h.DB, c)
	if apiErr != nil {
		return utils.Error(c, apiErr.status, apiErr.message)
	}

	buf := make([]byte, apiTokenLength)
	if _, err := rand.Read(buf); err != nil {
		logger.Error("api_token_generation_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "error generating new token")
	}
	token := hex.EncodeToString(buf)

	tokens := append(target.APITokens, token)
	if err := h.DB.Model(&models.User{}).
		Where("id = ?", target.ID).
		Update("api_tokens", tokens).Error; err != nil {
		logger.Error("api_token_save_failed", err, map[string]interface{}{
			"user_id": target.ID.String(),
		})
		return utils.Error(c, fiber.StatusInternalServerError, "error generating new token")
	}

	logger.Info("api_token_created", map[string]interface{}{
		"user_id": target.ID.String(),
		"count":   len(tokens),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"api_token": token})
}
