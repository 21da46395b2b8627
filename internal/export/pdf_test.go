package export

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"melina-board/internal/models"
)

func dataURL(t *testing.T, mime string, encode func(*bytes.Buffer, image.Image) error) string {
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestPDF(t *testing.T) {
	stroke := models.NewStroke("s", 10, 10, "#ff0000", 5, false)
	stroke.Points = append(stroke.Points, 20, 20, 30, 10)
	dot := models.NewStroke("d", 50, 50, "#00f", 3, true)

	doc := models.Document{
		stroke,
		dot,
		models.NewSegment("l", 0, 0, 100, 100, "#000000", 2),
		models.NewRectangle("r", 10, 10, 40, 40, "not-a-color", 1),
		models.NewCircle("c", 150, 150, 30, "#123456", 2),
		models.NewText("t", 20, 300, "héllo", "#000000", 24, 200),
		models.NewImage("png", 300, 10, dataURL(t, "image/png", func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) }), 40, 40),
		models.NewImage("bmp", 300, 60, dataURL(t, "image/bmp", func(b *bytes.Buffer, i image.Image) error { return bmp.Encode(b, i) }), 40, 40),
		models.NewImage("remote", 300, 120, "https://storage.googleapis.com/b/x.png", 40, 40),
	}

	var buf bytes.Buffer
	require.NoError(t, PDF(&buf, doc))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPDFEmptyDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PDF(&buf, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestParseColor(t *testing.T) {
	cases := map[string][3]int{
		"#ff0000": {255, 0, 0},
		"#0f0":    {0, 255, 0},
		"123456":  {0x12, 0x34, 0x56},
		"red":     {0, 0, 0},
		"#zzzzzz": {0, 0, 0},
		"":        {0, 0, 0},
	}
	for in, want := range cases {
		r, g, b := parseColor(in)
		assert.Equal(t, want, [3]int{r, g, b}, in)
	}
}

func TestImageData(t *testing.T) {
	_, err := imageData("https://example.com/a.png")
	assert.Error(t, err)
	_, err = imageData("data:image/png,raw")
	assert.Error(t, err)

	data, err := imageData(dataURL(t, "image/bmp", func(b *bytes.Buffer, i image.Image) error { return bmp.Encode(b, i) }))
	require.NoError(t, err)
	_, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}
