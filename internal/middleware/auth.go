package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/contentwriter/api/internal/auth"
	"github.com/contentwriter/api/pkg/response"
)

// SessionChecker reports whether a login session is still open
type SessionChecker interface {
	CheckSession(ctx context.Context, sessionID, username string) error
}

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtSecret string
	sessions  SessionChecker
	verifier  auth.TokenVerifier // optional OIDC provider tokens
}

// NewAuthMiddleware creates auth middleware for session tokens issued at login
func NewAuthMiddleware(jwtSecret string, sessions SessionChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		sessions:  sessions,
	}
}

// WithVerifier also accepts tokens of an external identity provider
func (m *AuthMiddleware) WithVerifier(verifier auth.TokenVerifier) *AuthMiddleware {
	m.verifier = verifier
	return m
}

// Authenticate validates the bearer token from the Authorization header
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			if c.Get("Authorization") == "" {
				return response.Unauthorized(c, "Missing authorization header")
			}
			return response.Unauthorized(c, "Invalid authorization header format")
		}

		identity, err := m.Identify(c.Context(), tokenString)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		c.Locals("userId", identity.UserID)
		c.Locals("name", identity.Name)
		c.Locals("sessionId", identity.SessionID)
		return c.Next()
	}
}

// Identify resolves a bearer token to the caller. Session tokens are tried
// first and must belong to an open session.
func (m *AuthMiddleware) Identify(ctx context.Context, tokenString string) (*auth.Identity, error) {
	claims, err := auth.ValidateSessionToken(tokenString, m.jwtSecret)
	if err == nil {
		if m.sessions != nil {
			if err := m.sessions.CheckSession(ctx, claims.SessionID(), claims.UserID); err != nil {
				return nil, err
			}
		}
		return &auth.Identity{
			UserID:    claims.UserID,
			Name:      claims.UserID,
			SessionID: claims.SessionID(),
		}, nil
	}

	if m.verifier != nil {
		return m.verifier.Validate(tokenString)
	}
	return nil, err
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.SplitN(c.Get("Authorization"), " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals("userId").(string); ok {
		return userID
	}
	return ""
}

// GetUserName extracts user name from context
func GetUserName(c *fiber.Ctx) string {
	if name, ok := c.Locals("name").(string); ok {
		return name
	}
	return ""
}

// GetSessionID extracts the login session from context
func GetSessionID(c *fiber.Ctx) string {
	if id, ok := c.Locals("sessionId").(string); ok {
		return id
	}
	return ""
}
