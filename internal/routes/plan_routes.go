package routes

import (
	"github.com/raflytch/prepwise-server/internal/handler"
	"github.com/raflytch/prepwise-server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func setupPlanRoutes(router fiber.Router, h *handler.PlanHandler, authMiddleware *middleware.AuthMiddleware) {
	plans := router.Group("/plans")

	plans.Get("/", authMiddleware.OptionalAuthenticate(), h.GetAll)
	plans.Get("/:id", h.GetByID)

	admin := plans.Group("", authMiddleware.Authenticate(), middleware.RequireAdmin())
	admin.Post("/", h.Create)
	admin.Put("/:id", h.Update)
	admin.Delete("/:id", h.Delete)
}
