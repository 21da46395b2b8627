package v1

import (
	"github.com/gofiber/fiber/v2"

	"melina-board/internal/handlers"
)

func registerHealth(r fiber.Router, d Deps) {
	healthHandler := handlers.NewHealthHandler(d.Health)

	r.Get("/health", healthHandler.Health)
}
