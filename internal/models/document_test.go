package models

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{
		NewStroke("s1", 10, 10, "#000000", 5, false),
		NewText("t1", 40, 40, "hello", "#ff0000", 24, 200),
		NewImage("i1", 100, 100, "data:image/png;base64,AAAA", 64, 32),
		NewRectangle("r1", 10, 10, 40, 40, "#00ff00", 2),
		NewCircle("c1", 100, 100, 10, "#0000ff", 3),
		NewSegment("l1", 0, 0, 30, 40, "#111111", 1),
	}
}

func TestEqualTreatsNilAsEmpty(t *testing.T) {
	assert.True(t, Equal(nil, Document{}))
	assert.True(t, Equal(Document{}, nil))
	assert.False(t, Equal(nil, sampleDocument()))

	doc := sampleDocument()
	assert.True(t, Equal(doc, doc.Clone()))

	moved := doc.Clone()
	moved[3].X = 11
	assert.False(t, Equal(doc, moved))
	assert.NotEmpty(t, Diff(doc, moved))
}

func TestCloneDoesNotAlias(t *testing.T) {
	doc := sampleDocument()
	clone := doc.Clone()
	clone[0].Points[0] = 99

	assert.Equal(t, 10.0, doc[0].Points[0])
	assert.Nil(t, Document(nil).Clone())
}

func TestValidate(t *testing.T) {
	require.NoError(t, sampleDocument().Validate())
	require.NoError(t, Document{}.Validate())

	dup := Document{NewCircle("a", 0, 0, 5, "#000", 1), NewCircle("a", 1, 1, 5, "#000", 1)}
	assert.True(t, errors.Is(dup.Validate(), ErrInvalidDocument))

	unknown := Document{{ID: "x", Type: "triangle"}}
	assert.ErrorIs(t, unknown.Validate(), ErrInvalidDocument)

	badSegment := Document{{ID: "x", Type: Segment, Points: []float64{1, 2}}}
	assert.ErrorIs(t, badSegment.Validate(), ErrInvalidDocument)

	oddStroke := Document{{ID: "x", Type: Stroke, Points: []float64{1, 2, 3}}}
	assert.ErrorIs(t, oddStroke.Validate(), ErrInvalidDocument)

	nan := Document{NewCircle("n", math.NaN(), 0, 5, "#000", 1)}
	assert.ErrorIs(t, nan.Validate(), ErrInvalidDocument)

	badText := Document{NewText("t", 0, 0, "caf\xe9", "#000", 24, 200)}
	assert.ErrorIs(t, badText.Validate(), ErrInvalidDocument)

	noID := Document{{Type: Circle}}
	assert.ErrorIs(t, noID.Validate(), ErrInvalidDocument)
}

func TestDocumentJSON(t *testing.T) {
	data, err := MarshalDocument(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	doc := sampleDocument()
	data, err = MarshalDocument(doc)
	require.NoError(t, err)

	decoded, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.True(t, Equal(doc, decoded), Diff(doc, decoded))

	_, err = UnmarshalDocument([]byte(`{"not":"a list"}`))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestUnmarshalOriginalClientPayload(t *testing.T) {
	payload := `[{"id":"1700000000000","type":"line","points":[1,2,3,4],"color":"#000000","brushSize":5,"isEraser":true,"x":0,"y":0},
	{"id":"1700000000001","type":"simple-line","points":[0,0,10,10],"color":"#000000","strokeWidth":5,"x":0,"y":0}]`

	doc, err := UnmarshalDocument([]byte(payload))
	require.NoError(t, err)
	require.Len(t, doc, 2)
	assert.True(t, doc[0].IsEraser)
	assert.Equal(t, Segment, doc[1].Type)
}

func TestBounds(t *testing.T) {
	doc := Document{
		NewRectangle("r", 10, 10, 40, 20, "#000", 1),
		NewCircle("c", 100, 100, 10, "#000", 1),
		{ID: "s", Type: Stroke, X: 5, Y: 5, Points: []float64{0, 0, 200, 3}},
	}
	maxX, maxY := doc.Bounds()
	assert.Equal(t, 205.0, maxX)
	assert.Equal(t, 110.0, maxY)

	maxX, maxY = Document{}.Bounds()
	assert.Zero(t, maxX)
	assert.Zero(t, maxY)
}

func TestFind(t *testing.T) {
	doc := sampleDocument()
	s, ok := doc.Find("c1")
	require.True(t, ok)
	assert.Equal(t, Circle, s.Type)
	assert.Equal(t, -1, doc.Index("missing"))
}

func TestBoardShapes(t *testing.T) {
	b := &Board{ID: "board-1"}
	doc, err := b.Shapes()
	require.NoError(t, err)
	assert.Empty(t, doc)

	data, err := MarshalDocument(sampleDocument())
	require.NoError(t, err)
	b.Document = data
	doc, err = b.Shapes()
	require.NoError(t, err)
	assert.Len(t, doc, 6)
}
