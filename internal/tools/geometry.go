package tools

import (
	"math"

	"melina-board/internal/models"
)

// size floors applied when a resize ends
const (
	minBoxSide  = 20
	minRadius   = 10
	minFontSize = 8
	minTextWide = 20
)

func distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func hasExtent(s models.Shape) bool {
	switch s.Type {
	case models.Rect:
		return s.Width != 0 || s.Height != 0
	case models.Circle:
		return s.Radius > minCircleRadius
	case models.Segment:
		p := s.Points
		return len(p) == 4 && (p[0] != p[2] || p[1] != p[3])
	}
	return false
}

// normalize flips a rectangle dragged up or left so width and height are not
// negative.
func normalize(s models.Shape) models.Shape {
	if s.Type != models.Rect {
		return s
	}
	if s.Width < 0 {
		s.X += s.Width
		s.Width = -s.Width
	}
	if s.Height < 0 {
		s.Y += s.Height
		s.Height = -s.Height
	}
	return s
}

func applyTransform(s models.Shape, t Transform) models.Shape {
	s.X, s.Y = t.X, t.Y
	switch s.Type {
	case models.Rect, models.Image:
		s.Width = math.Max(minBoxSide, s.Width*t.ScaleX)
		s.Height = math.Max(minBoxSide, s.Height*t.ScaleY)
	case models.Circle:
		// one averaged factor keeps circles round
		s.Radius = math.Max(minRadius, s.Radius*(t.ScaleX+t.ScaleY)/2)
	case models.Text:
		s.Width = math.Max(minTextWide, s.Width*t.ScaleX)
		s.FontSize = math.Max(minFontSize, s.FontSize*t.ScaleY)
	}
	return s
}
