// Package export renders a board document to PDF.
package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"melina-board/internal/models"
)

const (
	margin  = 20
	minSide = 200
)

var ErrExport = errors.New("pdf export failed")

// PDF writes d on a single page sized to fit every shape, one PDF point per
// document unit.
func PDF(w io.Writer, d models.Document) error {
	maxX, maxY := d.Bounds()
	width := max(maxX+margin, minSide)
	height := max(maxY+margin, minSide)

	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")
	tr := p.UnicodeTranslatorFromDescriptor("")

	for i, s := range d {
		switch s.Type {
		case models.Stroke:
			drawStroke(p, s)
		case models.Segment:
			setStroke(p, s.Color, s.StrokeWidth)
			drawPath(p, s.X, s.Y, s.Points)
		case models.Rect:
			setStroke(p, s.Color, s.StrokeWidth)
			p.Rect(s.X, s.Y, s.Width, s.Height, "D")
		case models.Circle:
			setStroke(p, s.Color, s.StrokeWidth)
			p.Circle(s.X, s.Y, s.Radius, "D")
		case models.Text:
			drawText(p, tr, s)
		case models.Image:
			drawImage(p, fmt.Sprintf("img%d", i), s)
		}
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	return nil
}

func drawStroke(p *gofpdf.Fpdf, s models.Shape) {
	color := s.Color
	if s.IsEraser {
		color = "#ffffff"
	}
	setStroke(p, color, s.BrushSize)
	if len(s.Points) == 2 {
		// a click without movement still leaves a dot
		r, g, b := parseColor(color)
		p.SetFillColor(r, g, b)
		p.Circle(s.X+s.Points[0], s.Y+s.Points[1], s.BrushSize/2, "F")
		return
	}
	drawPath(p, s.X, s.Y, s.Points)
}

func drawPath(p *gofpdf.Fpdf, x, y float64, pts []float64) {
	if len(pts) < 4 {
		return
	}
	p.MoveTo(x+pts[0], y+pts[1])
	for i := 2; i+1 < len(pts); i += 2 {
		p.LineTo(x+pts[i], y+pts[i+1])
	}
	p.DrawPath("D")
}

func drawText(p *gofpdf.Fpdf, tr func(string) string, s models.Shape) {
	size := s.FontSize
	if size <= 0 {
		size = 24
	}
	r, g, b := parseColor(s.Color)
	p.SetTextColor(r, g, b)
	p.SetFont("Helvetica", "", size)
	p.SetXY(s.X, s.Y)
	p.MultiCell(s.Width, size*1.2, tr(s.Text), "", "L", false)
}

// drawImage embeds inline images. Remote ones are drawn as an outlined
// placeholder.
func drawImage(p *gofpdf.Fpdf, name string, s models.Shape) {
	data, err := imageData(s.Src)
	if err != nil {
		p.SetDrawColor(180, 180, 180)
		p.SetLineWidth(1)
		p.Rect(s.X, s.Y, s.Width, s.Height, "D")
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	p.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	p.ImageOptions(name, s.X, s.Y, s.Width, s.Height, false, opts, 0, "")
}

// imageData decodes a data URL and re-encodes it as PNG, which covers the
// formats gofpdf cannot read directly.
func imageData(src string) ([]byte, error) {
	if !strings.HasPrefix(src, "data:") {
		return nil, fmt.Errorf("not an inline image")
	}
	comma := strings.IndexByte(src, ',')
	if comma < 0 || !strings.HasSuffix(src[:comma], ";base64") {
		return nil, fmt.Errorf("unsupported data url")
	}
	raw, err := base64.StdEncoding.DecodeString(src[comma+1:])
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setStroke(p *gofpdf.Fpdf, color string, width float64) {
	r, g, b := parseColor(color)
	p.SetDrawColor(r, g, b)
	if width <= 0 {
		width = 1
	}
	p.SetLineWidth(width)
}

// parseColor reads #rgb and #rrggbb, anything else is black.
func parseColor(c string) (r, g, b int) {
	c = strings.TrimPrefix(c, "#")
	if len(c) == 3 {
		c = string([]byte{c[0], c[0], c[1], c[1], c[2], c[2]})
	}
	if len(c) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(c, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int((v >> 16) & 0xff), int((v >> 8) & 0xff), int(v & 0xff)
}
