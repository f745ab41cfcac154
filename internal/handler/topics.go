package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/contentwriter/api/internal/middleware"
	"github.com/contentwriter/api/internal/service"
	"github.com/contentwriter/api/pkg/response"
)

type TopicsHandler struct {
	service *service.TopicsService
}

func NewTopicsHandler(svc *service.TopicsService) *TopicsHandler {
	return &TopicsHandler{service: svc}
}

// Last handles GET /api/topics/last
func (h *TopicsHandler) Last(c *fiber.Ctx) error {
	topics, err := h.service.Last(c.Context(), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrNoTopics) {
			return response.NotFound(c, "No related topics for the last result")
		}
		return response.ServiceError(c, "Failed to load related topics")
	}
	return response.OK(c, topics)
}
