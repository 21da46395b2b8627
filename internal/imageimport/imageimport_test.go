package imageimport

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"melina-board/internal/models"
)

func encoded(t *testing.T, w, h int, enc func(*bytes.Buffer, image.Image) error) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, enc(&buf, img))
	return buf.Bytes()
}

func pngEncode(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) }
func bmpEncode(b *bytes.Buffer, img image.Image) error { return bmp.Encode(b, img) }

type memoryStore struct {
	names, types []string
	fail         error
}

func (m *memoryStore) Put(_ context.Context, name, contentType string, _ []byte) (string, error) {
	if m.fail != nil {
		return "", m.fail
	}
	m.names = append(m.names, name)
	m.types = append(m.types, contentType)
	return "https://cdn.example.com/" + name, nil
}

func TestImportPNGAsDataURL(t *testing.T) {
	imp := NewImporter(nil)
	shape, err := imp.Import(context.Background(), bytes.NewReader(encoded(t, 64, 32, pngEncode)))
	require.NoError(t, err)

	assert.Equal(t, models.Image, shape.Type)
	assert.Equal(t, 100.0, shape.X)
	assert.Equal(t, 100.0, shape.Y)
	assert.Equal(t, 64.0, shape.Width)
	assert.Equal(t, 32.0, shape.Height)
	assert.True(t, strings.HasPrefix(shape.Src, "data:image/png;base64,"))
	assert.NotEmpty(t, shape.ID)
	require.NoError(t, models.Document{shape}.Validate())
}

func TestImportBMPThroughStore(t *testing.T) {
	store := &memoryStore{}
	imp := NewImporter(store)
	imp.newID = func() string { return "img-1" }

	shape, err := imp.Import(context.Background(), bytes.NewReader(encoded(t, 10, 20, bmpEncode)))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/img-1.bmp", shape.Src)
	assert.Equal(t, []string{"image/bmp"}, store.types)
	assert.Equal(t, 20.0, shape.Height)
}

func TestImportRejectsNonImages(t *testing.T) {
	imp := NewImporter(nil)
	_, err := imp.Import(context.Background(), strings.NewReader("%PDF-1.4 not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = imp.Import(context.Background(), bytes.NewReader(make([]byte, MaxBytes+1)))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestImportStoreFailure(t *testing.T) {
	boom := errors.New("bucket unavailable")
	imp := NewImporter(&memoryStore{fail: boom})
	_, err := imp.Import(context.Background(), bytes.NewReader(encoded(t, 4, 4, pngEncode)))
	assert.ErrorIs(t, err, boom)
}
