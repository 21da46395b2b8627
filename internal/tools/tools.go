// Package tools turns pointer gestures into document mutations. A gesture
// either mutates one shape continuously while in progress, or produces one
// committed mutation when it ends.
package tools

import (
	"strings"

	"github.com/google/uuid"

	"melina-board/internal/document"
	"melina-board/internal/models"
)

type Tool string

const (
	Select    Tool = "SELECT"
	Pencil    Tool = "PENCIL"
	Eraser    Tool = "ERASER"
	Text      Tool = "TEXT"
	Rectangle Tool = "RECTANGLE"
	Circle    Tool = "CIRCLE"
	Line      Tool = "LINE"
)

func (t Tool) Valid() bool {
	switch t {
	case Select, Pencil, Eraser, Text, Rectangle, Circle, Line:
		return true
	}
	return false
}

type State int

const (
	Idle State = iota
	DrawingFreehand
	DraggingShape
	EditingText
	TransformingSelection
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DrawingFreehand:
		return "drawing_freehand"
	case DraggingShape:
		return "dragging_shape"
	case EditingText:
		return "editing_text"
	case TransformingSelection:
		return "transforming_selection"
	}
	return "unknown"
}

const (
	DefaultColor     = "#000000"
	DefaultBrushSize = 5

	PlaceholderText = "Double click to edit"
	TextFontSize    = 24
	TextWidth       = 200

	minCircleRadius = 2
)

// Point is a position in document coordinates.
type Point struct {
	X, Y float64
}

// Document is the store the machine proposes mutations to.
type Document interface {
	Apply(m document.Mutation, committed bool) document.Change
	Snapshot() models.Document
}

// Transform is the final geometry the rendering surface reports when a resize
// gesture ends: the new origin and the scale applied to the shape.
type Transform struct {
	X, Y           float64
	ScaleX, ScaleY float64
}

// Frame is everything the rendering surface needs to draw one frame.
type Frame struct {
	Shapes    models.Document
	Draft     *models.Shape
	Editing   *models.Shape
	Selected  string
	Tool      Tool
	Color     string
	BrushSize float64
	State     State
}

type Option func(*Machine)

// WithIDGenerator replaces the shape id source, uuid by default.
func WithIDGenerator(f func() string) Option {
	return func(m *Machine) { m.newID = f }
}

// Machine is driven by one event loop and is not safe for concurrent use.
type Machine struct {
	doc   Document
	newID func() string

	tool      Tool
	color     string
	brushSize float64

	state State
	start Point

	// freehand
	strokeID string
	last     Point

	draft   *models.Shape
	editing *models.Shape

	selected     string
	transforming string
}

func New(doc Document, opts ...Option) *Machine {
	m := &Machine{
		doc:       doc,
		newID:     uuid.NewString,
		tool:      Select,
		color:     DefaultColor,
		brushSize: DefaultBrushSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) Tool() Tool         { return m.tool }
func (m *Machine) State() State       { return m.state }
func (m *Machine) Selected() string   { return m.selected }
func (m *Machine) Color() string      { return m.color }
func (m *Machine) BrushSize() float64 { return m.brushSize }

// SetTool switches the active tool. A stroke in progress is committed and a
// shape draft is discarded.
func (m *Machine) SetTool(t Tool) {
	if !t.Valid() || t == m.tool {
		return
	}
	switch m.state {
	case DrawingFreehand:
		m.PointerUp()
	case DraggingShape:
		m.draft = nil
		m.state = Idle
	}
	m.tool = t
}

func (m *Machine) SetColor(c string) {
	if c != "" {
		m.color = c
	}
}

func (m *Machine) SetBrushSize(size float64) {
	if size > 0 {
		m.brushSize = size
	}
}

// Frame snapshots the state for the rendering surface. The shape under text
// edit is left out, the edit draft is drawn in its place.
func (m *Machine) Frame() Frame {
	shapes := m.doc.Snapshot()
	f := Frame{
		Tool:      m.tool,
		Color:     m.color,
		BrushSize: m.brushSize,
		State:     m.state,
	}
	if m.selected != "" && shapes.Index(m.selected) >= 0 {
		f.Selected = m.selected
	}
	if m.draft != nil {
		d := m.draft.Clone()
		f.Draft = &d
	}
	if m.editing != nil {
		e := m.editing.Clone()
		f.Editing = &e
		if i := shapes.Index(e.ID); i >= 0 {
			shapes = append(shapes[:i], shapes[i+1:]...)
		}
	}
	f.Shapes = shapes
	return f
}

// PointerDown starts a gesture. target is the id of the shape under the
// pointer, empty for bare canvas.
func (m *Machine) PointerDown(p Point, target string) {
	if target == "" {
		m.selected = ""
	} else if m.tool == Select && m.state != EditingText {
		m.selected = target
	}

	if m.tool == Select || m.state != Idle {
		return
	}
	m.start = p

	switch m.tool {
	case Pencil, Eraser:
		id := m.newID()
		stroke := models.NewStroke(id, p.X, p.Y, m.color, m.brushSize, m.tool == Eraser)
		m.doc.Apply(func(d models.Document) models.Document {
			return append(d, stroke)
		}, false)
		m.strokeID = id
		m.last = p
		m.state = DrawingFreehand
	case Rectangle:
		d := models.NewRectangle(m.newID(), p.X, p.Y, 0, 0, m.color, m.brushSize)
		m.beginDraft(d)
	case Circle:
		d := models.NewCircle(m.newID(), p.X, p.Y, 0, m.color, m.brushSize)
		m.beginDraft(d)
	case Line:
		d := models.NewSegment(m.newID(), p.X, p.Y, p.X, p.Y, m.color, m.brushSize)
		m.beginDraft(d)
	}
}

func (m *Machine) beginDraft(s models.Shape) {
	m.draft = &s
	m.state = DraggingShape
}

// PointerMove extends the gesture in progress. Redelivered positions are
// harmless.
func (m *Machine) PointerMove(p Point) {
	switch m.state {
	case DrawingFreehand:
		if p == m.last {
			return
		}
		m.last = p
		id := m.strokeID
		m.doc.Apply(func(d models.Document) models.Document {
			if i := d.Index(id); i >= 0 && d[i].Type == models.Stroke {
				d[i].Points = append(d[i].Points, p.X, p.Y)
			}
			return d
		}, false)
	case DraggingShape:
		m.resizeDraft(p)
	}
}

func (m *Machine) resizeDraft(p Point) {
	d := m.draft
	switch d.Type {
	case models.Rect:
		d.Width = p.X - m.start.X
		d.Height = p.Y - m.start.Y
	case models.Circle:
		d.Radius = distance(m.start, p)
		d.X, d.Y = m.start.X, m.start.Y
	case models.Segment:
		d.Points = []float64{m.start.X, m.start.Y, p.X, p.Y}
	}
}

// PointerUp ends the gesture. A stroke is committed as drawn; a shape draft is
// committed only when it has a visible extent.
func (m *Machine) PointerUp() {
	switch m.state {
	case DrawingFreehand:
		m.state = Idle
		m.strokeID = ""
		m.doc.Apply(document.Identity, true)
	case DraggingShape:
		d := m.draft
		m.draft = nil
		m.state = Idle
		if d == nil || !hasExtent(*d) {
			return
		}
		shape := normalize(*d)
		shape.ID = m.newID()
		m.doc.Apply(func(doc models.Document) models.Document {
			return append(doc, shape)
		}, true)
	}
}

// Click places a new text shape when the text tool is active and the click
// hit bare canvas.
func (m *Machine) Click(p Point, target string) {
	if m.tool != Text || m.state == EditingText || target != "" {
		return
	}
	shape := models.NewText(m.newID(), p.X, p.Y, PlaceholderText, m.color, TextFontSize, TextWidth)
	m.doc.Apply(func(d models.Document) models.Document {
		return append(d, shape)
	}, true)
}

// DoubleClick opens a text shape for editing. screen is the shape's absolute
// position on the rendering surface, where the editor is placed.
func (m *Machine) DoubleClick(target string, screen Point) {
	if m.tool != Select || target == "" {
		return
	}
	s, ok := m.doc.Snapshot().Find(target)
	if !ok || s.Type != models.Text {
		return
	}
	m.selected = ""
	m.draft = nil
	m.transforming = ""
	s.X, s.Y = screen.X, screen.Y
	m.editing = &s
	m.state = EditingText
}

// EditText updates the edit draft only, the document is untouched until blur.
// Invalid UTF-8 is replaced so the committed shape stays encodable.
func (m *Machine) EditText(text string) {
	if m.editing != nil {
		m.editing.Text = strings.ToValidUTF8(text, "\uFFFD")
	}
}

// BlurText commits the edited content at the shape's document position.
func (m *Machine) BlurText() {
	if m.editing == nil {
		return
	}
	edited := *m.editing
	m.editing = nil
	m.state = Idle
	m.doc.Apply(func(d models.Document) models.Document {
		if i := d.Index(edited.ID); i >= 0 {
			edited.X, edited.Y = d[i].X, d[i].Y
			d[i] = edited
		}
		return d
	}, true)
}

// BeginTransform marks id as the one shape being dragged or resized. It fails
// while another gesture is active.
func (m *Machine) BeginTransform(id string) bool {
	if m.tool != Select || m.state != Idle {
		return false
	}
	if m.doc.Snapshot().Index(id) < 0 {
		return false
	}
	m.selected = id
	m.transforming = id
	m.state = TransformingSelection
	return true
}

// DragEnd commits the new origin of a dragged shape.
func (m *Machine) DragEnd(id string, x, y float64) {
	if !m.endTransform(id) {
		return
	}
	m.doc.Apply(func(d models.Document) models.Document {
		if i := d.Index(id); i >= 0 {
			d[i].X, d[i].Y = x, y
		}
		return d
	}, true)
}

// TransformEnd commits the geometry of a resized shape.
func (m *Machine) TransformEnd(id string, t Transform) {
	if !m.endTransform(id) {
		return
	}
	m.doc.Apply(func(d models.Document) models.Document {
		if i := d.Index(id); i >= 0 {
			d[i] = applyTransform(d[i], t)
		}
		return d
	}, true)
}

func (m *Machine) endTransform(id string) bool {
	switch {
	case m.state == TransformingSelection && m.transforming == id:
	case m.state == Idle && m.tool == Select:
	default:
		return false
	}
	m.state = Idle
	m.transforming = ""
	return true
}
