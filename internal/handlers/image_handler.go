package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"melina-board/internal/imageimport"
)

type ImageHandler struct {
	importer *imageimport.Importer
	logger   zerolog.Logger
}

func NewImageHandler(importer *imageimport.Importer, logger zerolog.Logger) *ImageHandler {
	return &ImageHandler{importer: importer, logger: logger}
}

// UploadImage turns the multipart "image" file into an image shape. The
// client inserts it into its document as a regular committed edit.
func (h *ImageHandler) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No image provided",
		})
	}
	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid form data",
		})
	}
	defer f.Close()

	shape, err := h.importer.Import(c.UserContext(), f)
	if errors.Is(err, imageimport.ErrUnsupportedImage) {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"error": "Unsupported image",
		})
	}
	if err != nil {
		h.logger.Error().Err(err).Str("filename", file.Filename).Msg("error importing image")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store image",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"shape": shape,
	})
}
