package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/contentwriter/api/internal/middleware"
	"github.com/contentwriter/api/internal/model"
	"github.com/contentwriter/api/internal/service"
	"github.com/contentwriter/api/pkg/response"
)

// AuthHandler handles sign-up, login and gateway verification
type AuthHandler struct {
	service   *service.AuthService
	auth      *middleware.AuthMiddleware
	validator *validator.Validate
}

func NewAuthHandler(svc *service.AuthService, authMiddleware *middleware.AuthMiddleware, v *validator.Validate) *AuthHandler {
	return &AuthHandler{
		service:   svc,
		auth:      authMiddleware,
		validator: v,
	}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req model.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Signup(c.Context(), &req)
	if err != nil {
		return authError(c, err)
	}

	return response.Created(c, result)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req model.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Login(c.Context(), &req)
	if err != nil {
		return authError(c, err)
	}

	return response.OK(c, result)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.service.Logout(c.Context(), middleware.GetSessionID(c)); err != nil {
		return response.ServiceError(c, "Failed to log out")
	}
	return response.NoContent(c)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	name := middleware.GetUserName(c)
	if name == "" {
		name = middleware.GetUserID(c)
	}
	return response.OK(c, model.MeResponse{Username: name})
}

// Verify handles GET /auth/verify, called by the gateway's ForwardAuth.
// Returns 200 with X-User-* headers on success, 401 on failure.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	tokenString, ok := bearer(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	identity, err := h.auth.Identify(c.Context(), tokenString)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	c.Set("X-User-Id", identity.UserID)
	c.Set("X-User-Name", identity.Name)
	if identity.SessionID != "" {
		c.Set("X-Session-Id", identity.SessionID)
	}
	return c.SendStatus(fiber.StatusOK)
}

func authError(c *fiber.Ctx, err error) error {
	var authErr *service.AuthError
	if !errors.As(err, &authErr) {
		return response.ServiceError(c, "Authentication service unavailable")
	}

	switch authErr {
	case service.ErrInvalidCredentials:
		return response.Unauthorized(c, authErr.Message)
	case service.ErrUsernameTaken:
		return response.Conflict(c, authErr.Message)
	default:
		return response.ValidationError(c, authErr.Message, nil)
	}
}
