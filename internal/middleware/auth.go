package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/labvault/backend/internal/auth"
	"github.com/labvault/backend/internal/models"
	"github.com/labvault/backend/pkg/logger"
	"github.com/labvault/backend/pkg/utils"
)

const currentUserKey = "currentUser"

type AuthMiddleware struct {
	Registry *auth.Registry
}

func NewAuthMiddleware(registry *auth.Registry) *AuthMiddleware {
	return &AuthMiddleware{Registry: registry}
}

func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	})
}

// RequireAuth resolves the bearer token through the jwt strategy first
// and the opaque API-token strategy second, attaching the principal on
// success.
func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return unauthorized(c, "missing authorization header")
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if tokenString == authHeader || tokenString == "" {
		return unauthorized(c, "invalid authorization format")
	}

	user, err := a.Registry.Authenticate(
		c.Context(),
		[]string{auth.StrategyJWT, auth.StrategyToken},
		auth.Credentials{Token: tokenString},
	)
	if err != nil {
		logger.Warn("bearer_auth_failed", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		return unauthorized(c, "unauthorized")
	}

	c.Locals(currentUserKey, user)
	return c.Next()
}

// RequireRole gates an already-authenticated request on the principal's
// role.
func RequireRole(allowed ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetCurrentUser(c)
		if user == nil {
			return unauthorized(c, "unauthorized")
		}
		for _, role := range allowed {
			if user.Role == role {
				return c.Next()
			}
		}
		return forbidden(c, "insufficient role")
	}
}

// AdminOnly is the single-role configuration the management routes use.
var AdminOnly = RequireRole(models.UserRoleAdmin)

// SelfOrAdmin allows the request through when the :id path parameter
// names the principal itself, or the principal is an admin. The id is
// parsed before comparing so any uuid spelling of the principal's own
// id passes.
func SelfOrAdmin(c *fiber.Ctx) error {
	user := GetCurrentUser(c)
	if user == nil {
		return unauthorized(c, "unauthorized")
	}
	if user.Role == models.UserRoleAdmin {
		return c.Next()
	}
	if targetID, err := uuid.Parse(c.Params("id")); err == nil && targetID == user.ID {
		return c.Next()
	}
	return forbidden(c, "you're not allowed to act on this user")
}

func GetCurrentUser(c *fiber.Ctx) *models.User {
	value := c.Locals(currentUserKey)
	if value == nil {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

func unauthorized(c *fiber.Ctx, message string) error {
	return utils.Error(c, fiber.StatusUnauthorized, message)
}

func forbidden(c *fiber.Ctx, message string) error {
	return utils.Error(c, fiber.StatusForbidden, message)
}
