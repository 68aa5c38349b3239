package middleware

import (
	"log"
	"strings"

	"bizdir/internal/models"
	"bizdir/internal/services"

	"github.com/gofiber/fiber/v2"
)

// IdentityKey is the Locals key under which AuthRequired stores the resolved
// models.Identity.
const IdentityKey = "identity"

// AuthRequired is a Fiber middleware that validates the bearer token and
// resolves the acting identity for downstream handlers.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		identity, err := authService.Authenticate(parts[1])
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals(IdentityKey, identity)
		return c.Next()
	}
}

// OptionalAuth resolves the identity when a valid bearer token is present but
// never rejects the request. For public routes whose response varies by
// viewer, such as the listing detail view.
func OptionalAuth(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		parts := strings.SplitN(c.Get("Authorization"), " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			if identity, err := authService.Authenticate(parts[1]); err == nil {
				c.Locals(IdentityKey, identity)
			}
		}
		return c.Next()
	}
}

// IdentityFromCtx returns the identity stored by AuthRequired. The zero
// Identity is returned on routes that skipped the middleware.
func IdentityFromCtx(c *fiber.Ctx) models.Identity {
	identity, _ := c.Locals(IdentityKey).(models.Identity)
	return identity
}
