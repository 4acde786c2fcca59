package routes

import (
	"github.com/raflytch/prepwise-server/internal/handler"
	"github.com/raflytch/prepwise-server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func setupInterviewRoutes(router fiber.Router, h *handler.InterviewHandler, auth *middleware.AuthMiddleware) {
	interviews := router.Group("/interviews")

	interviews.Use(auth.Authenticate())

	interviews.Post("/", h.Create)
	interviews.Get("/", h.List)
	interviews.Get("/stats", h.Stats)
	interviews.Get("/:id", h.GetByID)
	interviews.Get("/:id/report", h.Report)
	interviews.Patch("/:id", h.Update)
	interviews.Delete("/:id", h.Delete)
}
