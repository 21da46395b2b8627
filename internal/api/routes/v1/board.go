package v1

import (
	"github.com/gofiber/fiber/v2"

	"melina-board/internal/handlers"
)

func registerBoard(r fiber.Router, d Deps) *handlers.BoardHandler {
	// Initialize handler
	boardHandler := handlers.NewBoardHandler(d.Boards, d.Hub, d.Relay, d.BaseURL, d.Logger)

	// Register routes
	r.Get("/boards", boardHandler.GetAllBoards)
	r.Post("/boards", boardHandler.CreateBoard)
	r.Get("/boards/:boardId", boardHandler.GetBoardByID)
	r.Put("/boards/:boardId", boardHandler.SaveBoard)
	r.Delete("/boards/:boardId/clear", boardHandler.ClearBoard)
	r.Get("/boards/:boardId/share", boardHandler.ShareLinks)
	r.Get("/boards/:boardId/export.pdf", boardHandler.ExportPDF)

	return boardHandler
}
