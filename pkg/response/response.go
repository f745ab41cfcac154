package response

import (
	"github.com/gofiber/fiber/v2"

	"github.com/contentwriter/api/internal/model"
)

// Error codes
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeRateLimited         = "RATE_LIMITED"
	CodeServiceError        = "SERVICE_ERROR"
	CodeEmptyInput          = "EMPTY_INPUT"
	CodeAIAuthFailed        = "AI_AUTH_FAILED"
	CodeAIQuotaExceeded     = "AI_QUOTA_EXCEEDED"
	CodeAIContentFiltered   = "AI_CONTENT_FILTERED"
	CodeAIError             = "AI_ERROR"
	CodeAIMalformedResponse = "AI_MALFORMED_RESPONSE"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type failureMapping struct {
	status int
	code   string
}

var generationFailures = map[model.ErrorKind]failureMapping{
	model.ErrorKindEmptyInput:        {fiber.StatusBadRequest, CodeEmptyInput},
	model.ErrorKindAuthFailure:       {fiber.StatusBadGateway, CodeAIAuthFailed},
	model.ErrorKindQuotaExceeded:     {fiber.StatusTooManyRequests, CodeAIQuotaExceeded},
	model.ErrorKindContentFiltered:   {fiber.StatusUnprocessableEntity, CodeAIContentFiltered},
	model.ErrorKindBackendError:      {fiber.StatusBadGateway, CodeAIError},
	model.ErrorKindMalformedResponse: {fiber.StatusBadGateway, CodeAIMalformedResponse},
}

func Error(c *fiber.Ctx, status int, code, message string, details interface{}) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// GenerationFailure writes a failed generation. The failed result is sent as
// details so clients can show it like any other result.
func GenerationFailure(c *fiber.Ctx, result *model.GenerationResult) error {
	m, ok := generationFailures[result.Failure.Kind]
	if !ok {
		m = failureMapping{fiber.StatusBadGateway, CodeAIError}
	}
	return Error(c, m.status, m.code, result.Failure.Message, result)
}

func ValidationError(c *fiber.Ctx, message string, details interface{}) error {
	return Error(c, fiber.StatusBadRequest, CodeValidationError, message, details)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, CodeForbidden, message, nil)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, CodeNotFound, message, nil)
}

func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, CodeConflict, message, nil)
}

func RateLimited(c *fiber.Ctx) error {
	return Error(c, fiber.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded", nil)
}

func ServiceError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, CodeServiceError, message, nil)
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
