package v1

import (
	"github.com/gofiber/fiber/v2"

	"melina-board/internal/handlers"
	"melina-board/internal/imageimport"
)

func registerImages(r fiber.Router, d Deps) {
	imageHandler := handlers.NewImageHandler(imageimport.NewImporter(d.Images), d.Logger)

	r.Post("/images", imageHandler.UploadImage)
}
