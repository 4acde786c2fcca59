package routes

import (
	"github.com/raflytch/prepwise-server/internal/handler"

	"github.com/gofiber/fiber/v2"
)

func setupAuthRoutes(router fiber.Router, h *handler.AuthHandler) {
	auth := router.Group("/auth")

	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)

	google := auth.Group("/google")
	google.Get("/login", h.GoogleLogin)
	google.Get("/callback", h.GoogleCallback)
}
