package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	v1 "melina-board/internal/api/routes/v1"
	"melina-board/internal/handlers"
)

func Register(app *fiber.App, deps v1.Deps) *handlers.BoardHandler {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 group
	api := app.Group("/api")
	v1Group := api.Group("/v1")

	// Register v1 routes
	return v1.RegisterRoutes(v1Group, deps)
}
