package middleware

import (
	"strings"

	"imgstore/internal/security"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LocalsUsername is the fiber.Ctx locals key holding the authenticated subject.
const LocalsUsername = "username"

// AuthRequired is a Fiber middleware that admits requests carrying a valid
// "Authorization: Bearer <token>" header. The resulting principal is stored
// in the request's user context and its subject under LocalsUsername.
func AuthRequired(validator security.TokenValidator, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		principal, err := validator.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.SetUserContext(security.WithPrincipal(c.UserContext(), principal))
		c.Locals(LocalsUsername, principal.Subject)

		return c.Next()
	}
}

// Username returns the subject stored by AuthRequired, or "" when the
// request was not authenticated.
func Username(c *fiber.Ctx) string {
	if p, ok := security.PrincipalFromContext(c.UserContext()); ok {
		return p.Subject
	}
	username, _ := c.Locals(LocalsUsername).(string)
	return username
}
