// Package imageimport turns an uploaded image file into an image shape.
package imageimport

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"melina-board/internal/metrics"
	"melina-board/internal/models"
)

// Imported images are placed here regardless of where the pointer is.
const (
	DefaultX = 100
	DefaultY = 100

	MaxBytes = 20 << 20
)

var ErrUnsupportedImage = errors.New("unsupported image")

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"webp": "image/webp",
}

// ImageStore keeps the image bytes and returns the reference put in the
// shape's src.
type ImageStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// DataURLStore inlines the image into the document.
type DataURLStore struct{}

func (DataURLStore) Put(_ context.Context, _, contentType string, data []byte) (string, error) {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

type Importer struct {
	store ImageStore
	newID func() string
}

func NewImporter(store ImageStore) *Importer {
	if store == nil {
		store = DataURLStore{}
	}
	return &Importer{store: store, newID: uuid.NewString}
}

// Import reads an image and returns a shape sized to its natural dimensions.
// The shape is not added to any document.
func (i *Importer) Import(ctx context.Context, r io.Reader) (models.Shape, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return models.Shape{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxBytes {
		return models.Shape{}, fmt.Errorf("%w: larger than %d bytes", ErrUnsupportedImage, MaxBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.Shape{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return models.Shape{}, fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}

	id := i.newID()
	src, err := i.store.Put(ctx, "images/"+id+"."+format, contentTypes[format], data)
	if err != nil {
		return models.Shape{}, fmt.Errorf("store image: %w", err)
	}

	metrics.ImagesImported.WithLabelValues(format).Inc()
	return models.NewImage(id, DefaultX, DefaultY, src, float64(cfg.Width), float64(cfg.Height)), nil
}
