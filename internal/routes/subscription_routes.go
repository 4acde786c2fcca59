package routes

import (
	"github.com/raflytch/prepwise-server/internal/handler"
	"github.com/raflytch/prepwise-server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func setupSubscriptionRoutes(api fiber.Router, h *handler.SubscriptionHandler, auth *middleware.AuthMiddleware) {
	subscriptions := api.Group("/subscriptions", auth.Authenticate())
	subscriptions.Post("/cancel", h.Cancel)
}
