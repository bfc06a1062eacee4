package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/labvault/backend/internal/models"
	"gorm.io/gorm"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// apiError carries a status/message pair up through the user-update
// pipeline so a single response site can render it.
type apiError struct {
	status  int
	message string
}

// loadTargetUser resolves the :id path parameter into a user row.
func loadTargetUser(db *gorm.DB, c *fiber.Ctx) (*models.User, *apiError) {
	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return nil, &apiError{fiber.StatusBadRequest, "invalid user id"}
	}

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apiError{fiber.StatusNotFound, "user not found"}
		}
		return nil, &apiError{fiber.StatusInternalServerError, "failed fetching user"}
	}
	return &user, nil
}
