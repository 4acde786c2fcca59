package handler

import (
	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/internal/middleware"
	"github.com/raflytch/prepwise-server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type SubscriptionHandler struct {
	subscriptionService domain.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService domain.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		return response.Unauthorized(c, "user not authenticated")
	}

	subscription, err := h.subscriptionService.Cancel(c.UserContext(), user.ID)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "subscription canceled", subscription)
}
