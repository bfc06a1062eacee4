package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/labvault/backend/internal/auth"
	"github.com/labvault/backend/internal/database"
	"github.com/labvault/backend/internal/middleware"
	"github.com/labvault/backend/internal/models"
	"github.com/labvault/backend/internal/services"
	"github.com/labvault/backend/pkg/logger"
	"github.com/labvault/backend/pkg/utils"
	"gorm.io/gorm"
)

type UsersHandler struct {
	DB        *gorm.DB
	Passwords *auth.PasswordService
	Events    *services.EventService
}

func NewUsersHandler(db *gorm.DB, passwords *auth.PasswordService, events *services.EventService) *UsersHandler {
	return &UsersHandler{DB: db, Passwords: passwords, Events: events}
}

func (h *UsersHandler) List(c *fiber.Ctx) error {
	var users []models.User
	if err := h.DB.Order("created_at ASC").Find(&users).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing users")
	}

	sanitized := make([]models.SanitizedUser, len(users))
	for i := range users {
		sanitized[i] = users[i].Sanitized()
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"objects": sanitized})
}

func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, apiErr := loadTargetUser(h.DB, c)
	if apiErr != nil {
		return utils.Error(c, apiErr.status, apiErr.message)
	}
	return utils.Success(c, fiber.StatusOK, user.Sanitized())
}

type createUserRequest struct {
	Username    string          `json:"username"`
	DisplayName string          `json:"display_name"`
	Email       string          `json:"email"`
	Role        models.UserRole `json:"role"`
}

func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Username == "" || req.DisplayName == "" || req.Role == "" {
		return utils.Error(c, fiber.StatusBadRequest, "one of these fields is missing: username, display_name, role")
	}
	if !models.IsValidRole(req.Role) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid role")
	}

	taken, err := database.UsernameTaken(h.DB, req.Username)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking username")
	}
	if taken {
		return utils.Error(c, fiber.StatusConflict, "username already in use")
	}

	user := models.User{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        req.Role,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	// The join event must exist before the caller is acknowledged.
	if err := h.Events.UserJoined(c.Context(), &user); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed recording user event")
	}

	logger.Info("user_created", map[string]interface{}{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"role":     string(user.Role),
	})

	return utils.Success(c, fiber.StatusCreated, user.Sanitized())
}

type passwordChangeRequest struct {
	Current     string `json:"current"`
	NewPassword string `json:"new_password"`
}

type updateUserRequest struct {
	Username    *string                `json:"username"`
	Password    *passwordChangeRequest `json:"password"`
	DisplayName *string                `json:"display_name"`
	Email       *string                `json:"email"`
	Role        *models.UserRole       `json:"role"`
}

// Update applies the independently-optional sub-updates in a fixed
// order (username, password, display name, email, role), accumulating
// changes and short-circuiting on the first failure, then writes them as
// a single store update.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	actor := middleware.GetCurrentUser(c)
	if actor == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	target, apiErr := loadTargetUser(h.DB, c)
	if apiErr != nil {
		return utils.Error(c, apiErr.status, apiErr.message)
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	changes := map[string]interface{}{}
	steps := []func(actor, target *models.User, req *updateUserRequest, changes map[string]interface{}) *apiError{
		h.applyUsername,
		h.applyPassword,
		h.applyDisplayName,
		h.applyEmail,
		h.applyRole,
	}
	for _, step := range steps {
		if apiErr := step(actor, target, &req, changes); apiErr != nil {
			return utils.Error(c, apiErr.status, apiErr.message)
		}
	}

	if len(changes) > 0 {
		if err := h.DB.Model(&models.User{}).Where("id = ?", target.ID).Updates(changes).Error; err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed updating user")
		}
	}

	var updated models.User
	if err := h.DB.First(&updated, "id = ?", target.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching updated user")
	}

	logger.Info("user_updated", map[string]interface{}{
		"user_id":  target.ID.String(),
		"actor_id": actor.ID.String(),
		"fields":   len(changes),
	})

	return utils.Success(c, fiber.StatusOK, updated.Sanitized())
}

func (h *UsersHandler) applyUsername(_, _ *models.User, req *updateUserRequest, changes map[string]interface{}) *apiError {
	if req.Username == nil || *req.Username == "" {
		return nil
	}
	taken, err := database.UsernameTaken(h.DB, *req.Username)
	if err != nil {
		return &apiError{fiber.StatusInternalServerError, "failed checking username"}
	}
	if taken {
		return &apiError{fiber.StatusConflict, "username already taken"}
	}
	changes["username"] = *req.Username
	return nil
}

func (h *UsersHandler) applyPassword(actor, target *models.User, req *updateUserRequest, changes map[string]interface{}) *apiError {
	if req.Password == nil {
		return nil
	}
	if req.Password.NewPassword == "" {
		return &apiError{fiber.StatusBadRequest, "no new password given"}
	}

	// Admins may reset anyone's password without knowing the current
	// one; so may anyone whose account has no password yet.
	if actor.Role != models.UserRoleAdmin && target.HashedPassword != "" {
		ok, err := h.Passwords.Verify(req.Password.Current, target.HashedPassword)
		if err != nil {
			return &apiError{fiber.StatusInternalServerError, "failed verifying password"}
		}
		if !ok {
			return &apiError{fiber.StatusForbidden, "current password is incorrect"}
		}
	}

	hashed, err := h.Passwords.Hash(req.Password.NewPassword)
	if err != nil {
		return &apiError{fiber.StatusInternalServerError, "failed hashing password"}
	}
	changes["hashed_password"] = hashed
	return nil
}

func (h *UsersHandler) applyDisplayName(_, _ *models.User, req *updateUserRequest, changes map[string]interface{}) *apiError {
	if req.DisplayName != nil && *req.DisplayName != "" {
		changes["display_name"] = *req.DisplayName
	}
	return nil
}

func (h *UsersHandler) applyEmail(_, _ *models.User, req *updateUserRequest, changes map[string]interface{}) *apiError {
	if req.Email != nil && *req.Email != "" {
		changes["email"] = *req.Email
	}
	return nil
}

func (h *UsersHandler) applyRole(actor, _ *models.User, req *updateUserRequest, changes map[string]interface{}) *apiError {
	if req.Role == nil || *req.Role == "" {
		return nil
	}
	if actor.Role != models.UserRoleAdmin {
		return &apiError{fiber.StatusForbidden, "you can't update your own role"}
	}
	if !models.IsValidRole(*req.Role) {
		return &apiError{fiber.StatusBadRequest, "updated role is invalid"}
	}
	changes["role"] = *req.Role
	return nil
}

// Delete is a soft delete: the row stays, the role becomes "deleted",
// which revokes login eligibility and releases the username.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	actor := middleware.GetCurrentUser(c)
	if actor == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	target, apiErr := loadTargetUser(h.DB, c)
	if apiErr != nil {
		return utils.Error(c, apiErr.status, apiErr.message)
	}

	if target.ID == actor.ID {
		return utils.Error(c, fiber.StatusConflict, "you can't delete your own user")
	}

	if err := h.DB.Model(&models.User{}).
		Where("id = ?", target.ID).
		Update("role", models.UserRoleDeleted).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting user")
	}

	logger.Info("user_deleted", map[string]interface{}{
		"user_id":  target.ID.String(),
		"actor_id": actor.ID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
