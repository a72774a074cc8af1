package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/findmypet/internal/config"
	"github.com/example/findmypet/internal/utils"
)

const adminContextKey = "currentAdmin"

// AdminAuthMiddleware validates admin JWT tokens issued by the admin login.
func AdminAuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		username, err := utils.ParseAdminToken(cfg.AdminJWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(adminContextKey, username)
		return c.Next()
	}
}
