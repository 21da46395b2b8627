package v1

import (
	"github.com/gofiber/fiber/v2"

	"melina-board/internal/libraries"
)

func registerWebsocket(r fiber.Router, d Deps, processor libraries.BoardWriteProcessor) {
	r.Get("/ws", libraries.WebSocketHandler(d.Hub, processor))
}
