package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/contentwriter/api/pkg/response"
)

// GatewayAuthMiddleware reads user identity from X-User-* headers
// set by the gateway's ForwardAuth call to /auth/verify.
func GatewayAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-Id")
		if userID == "" {
			return response.Unauthorized(c, "Missing user identity headers")
		}

		c.Locals("userId", userID)
		c.Locals("name", c.Get("X-User-Name"))
		c.Locals("sessionId", c.Get("X-Session-Id"))

		return c.Next()
	}
}
