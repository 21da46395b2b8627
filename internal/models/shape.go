package models

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Type is the variant tag of a shape
type Type string

const (
	Stroke  Type = "line"
	Text    Type = "text"
	Image   Type = "image"
	Rect    Type = "rectangle"
	Circle  Type = "circle"
	Segment Type = "simple-line"
)

// Shape is one drawable unit on the board. Only the fields of its variant are set;
// the rest stay at their zero value and are omitted on the wire.
type Shape struct {
	ID   string  `json:"id"`
	Type Type    `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`

	// line: flat x,y pairs relative to the origin. simple-line: x1,y1,x2,y2.
	Points []float64 `json:"points,omitempty"`

	Color       string  `json:"color,omitempty"`
	BrushSize   float64 `json:"brushSize,omitempty"`
	IsEraser    bool    `json:"isEraser,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`

	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`

	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Radius float64 `json:"radius,omitempty"`

	Src string `json:"src,omitempty"`
}

func NewStroke(id string, x, y float64, color string, brushSize float64, eraser bool) Shape {
	return Shape{
		ID:        id,
		Type:      Stroke,
		Points:    []float64{x, y},
		Color:     color,
		BrushSize: brushSize,
		IsEraser:  eraser,
	}
}

func NewText(id string, x, y float64, text, color string, fontSize, width float64) Shape {
	return Shape{ID: id, Type: Text, X: x, Y: y, Text: text, Color: color, FontSize: fontSize, Width: width}
}

func NewImage(id string, x, y float64, src string, width, height float64) Shape {
	return Shape{ID: id, Type: Image, X: x, Y: y, Src: src, Width: width, Height: height}
}

func NewRectangle(id string, x, y, width, height float64, color string, strokeWidth float64) Shape {
	return Shape{ID: id, Type: Rect, X: x, Y: y, Width: width, Height: height, Color: color, StrokeWidth: strokeWidth}
}

func NewCircle(id string, x, y, radius float64, color string, strokeWidth float64) Shape {
	return Shape{ID: id, Type: Circle, X: x, Y: y, Radius: radius, Color: color, StrokeWidth: strokeWidth}
}

// NewSegment builds a straight line from (x1,y1) to (x2,y2) with the origin at 0,0
func NewSegment(id string, x1, y1, x2, y2 float64, color string, strokeWidth float64) Shape {
	return Shape{ID: id, Type: Segment, Points: []float64{x1, y1, x2, y2}, Color: color, StrokeWidth: strokeWidth}
}

// Clone returns a copy that shares no memory with s
func (s Shape) Clone() Shape {
	if s.Points != nil {
		s.Points = append([]float64(nil), s.Points...)
	}
	return s
}

// Validate checks the variant tag and the geometry the variant needs.
func (s Shape) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: shape without id", ErrInvalidDocument)
	}
	if !finite(s.X, s.Y, s.BrushSize, s.StrokeWidth, s.FontSize, s.Width, s.Height, s.Radius) || !finite(s.Points...) {
		return fmt.Errorf("%w: shape %s has a non-finite coordinate", ErrInvalidDocument, s.ID)
	}
	// JSON replaces invalid bytes, such a shape would not survive a round trip
	if !validUTF8(s.ID, s.Text, s.Src, s.Color) {
		return fmt.Errorf("%w: shape %q has text that is not valid UTF-8", ErrInvalidDocument, s.ID)
	}

	switch s.Type {
	case Stroke:
		if len(s.Points)%2 != 0 {
			return fmt.Errorf("%w: stroke %s has an odd number of coordinates", ErrInvalidDocument, s.ID)
		}
	case Segment:
		if len(s.Points) != 4 {
			return fmt.Errorf("%w: line %s needs exactly 4 coordinates", ErrInvalidDocument, s.ID)
		}
	case Text, Image, Rect, Circle:
	default:
		return fmt.Errorf("%w: shape %s has unknown type %q", ErrInvalidDocument, s.ID, s.Type)
	}
	return nil
}

// Extent returns the far corner of the shape in document coordinates.
func (s Shape) Extent() (maxX, maxY float64) {
	switch s.Type {
	case Stroke, Segment:
		maxX, maxY = s.X, s.Y
		for i := 0; i+1 < len(s.Points); i += 2 {
			maxX = math.Max(maxX, s.X+s.Points[i])
			maxY = math.Max(maxY, s.Y+s.Points[i+1])
		}
	case Rect, Image:
		maxX, maxY = s.X+s.Width, s.Y+s.Height
	case Text:
		// text height is not stored, 1.5 line heights is what the canvas reserves
		maxX, maxY = s.X+s.Width, s.Y+s.FontSize*1.5
	case Circle:
		maxX, maxY = s.X+s.Radius, s.Y+s.Radius
	default:
		maxX, maxY = s.X, s.Y
	}
	return maxX, maxY
}

func validUTF8(vals ...string) bool {
	for _, v := range vals {
		if !utf8.ValidString(v) {
			return false
		}
	}
	return true
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
