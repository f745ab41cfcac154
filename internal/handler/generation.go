package handler

import (
	"errors"
	"mime"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/contentwriter/api/internal/middleware"
	"github.com/contentwriter/api/internal/model"
	"github.com/contentwriter/api/internal/service"
	"github.com/contentwriter/api/pkg/response"
)

type GenerationHandler struct {
	service   *service.GenerationService
	validator *validator.Validate
}

func NewGenerationHandler(svc *service.GenerationService, v *validator.Validate) *GenerationHandler {
	return &GenerationHandler{
		service:   svc,
		validator: v,
	}
}

// Generate handles POST /api/generate
func (h *GenerationHandler) Generate(c *fiber.Ctx) error {
	var req model.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Generate(c.Context(), middleware.GetUserID(c), req)
	if err != nil {
		return response.ServiceError(c, "Failed to store generation result")
	}
	if result.IsFailure() {
		return response.GenerationFailure(c, result)
	}

	return response.OK(c, result)
}

// Last handles GET /api/generations/last
func (h *GenerationHandler) Last(c *fiber.Ctx) error {
	result, err := h.service.Last(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return lookupError(c, err)
	}
	return response.OK(c, result)
}

// Copy handles POST /api/generations/last/copy
func (h *GenerationHandler) Copy(c *fiber.Ctx) error {
	var req model.CopyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.ValidationError(c, "Invalid request body", nil)
		}
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Copy(c.Context(), middleware.GetUserID(c), req.SegmentID)
	if err != nil {
		return lookupError(c, err)
	}
	return response.OK(c, result)
}

// Download handles GET /api/generations/last/download
func (h *GenerationHandler) Download(c *fiber.Ctx) error {
	data, mimeType, filename, err := h.service.Download(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return lookupError(c, err)
	}

	c.Set(fiber.HeaderContentType, mimeType)
	c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	return c.Send(data)
}

// Segments handles POST /api/segments
func (h *GenerationHandler) Segments(c *fiber.Ctx) error {
	var req model.SegmentsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	return response.OK(c, model.SegmentsResponse{Segments: h.service.RenderSegments(req.Text)})
}

// Options handles GET /api/options
func (h *GenerationHandler) Options(c *fiber.Ctx) error {
	return response.OK(c, model.Options())
}

func lookupError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNoResult):
		return response.NotFound(c, "No generation result yet")
	case errors.Is(err, service.ErrNotTextResult):
		return response.Conflict(c, "The last result has no text to copy")
	case errors.Is(err, service.ErrNotImageResult):
		return response.Conflict(c, "The last result has no image to download")
	case errors.Is(err, service.ErrSegmentNotFound):
		return response.NotFound(c, "Code segment not found")
	default:
		return response.ServiceError(c, "Failed to load generation result")
	}
}
