package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"melina-board/internal/handlers"
	"melina-board/internal/imageimport"
	"melina-board/internal/libraries"
	"melina-board/internal/repo"
)

// Deps is everything the v1 handlers share.
type Deps struct {
	Boards  repo.BoardRepoInterface
	Hub     *libraries.Hub
	Relay   handlers.Relay
	Images  imageimport.ImageStore
	Health  map[string]handlers.Pinger
	BaseURL string
	Logger  zerolog.Logger
}

// RegisterRoutes wires the v1 API. It returns the board handler so the
// caller can feed relayed updates into it.
func RegisterRoutes(r fiber.Router, d Deps) *handlers.BoardHandler {
	registerHealth(r, d)
	boardHandler := registerBoard(r, d)
	registerImages(r, d)
	registerWebsocket(r, d, boardHandler)
	return boardHandler
}
