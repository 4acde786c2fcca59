package routes

import (
	"github.com/raflytch/prepwise-server/internal/handler"
	"github.com/raflytch/prepwise-server/internal/metrics"
	"github.com/raflytch/prepwise-server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Interview    *handler.InterviewHandler
	Plan         *handler.PlanHandler
	Transaction  *handler.TransactionHandler
	Subscription *handler.SubscriptionHandler
}

type Middlewares struct {
	Auth *middleware.AuthMiddleware
}

type Options struct {
	Metrics bool
}

func Setup(app *fiber.App, handlers Handlers, middlewares Middlewares, opts Options) {
	app.Get("/health", healthCheck)
	if opts.Metrics {
		app.Get("/metrics", metrics.Handler())
	}

	api := app.Group("/api/v1")

	setupAuthRoutes(api, handlers.Auth)
	setupUserRoutes(api, handlers.User, middlewares.Auth)
	setupInterviewRoutes(api, handlers.Interview, middlewares.Auth)
	setupPlanRoutes(api, handlers.Plan, middlewares.Auth)
	setupTransactionRoutes(api, handlers.Transaction, middlewares.Auth)
	setupSubscriptionRoutes(api, handlers.Subscription, middlewares.Auth)
}

func healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": "server is running",
	})
}
