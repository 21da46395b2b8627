package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var ErrInvalidDocument = errors.New("invalid document")

// Document is the ordered shape list of a board. Order is z-order, later shapes
// are drawn on top. A nil Document is an empty board.
type Document []Shape

var equalOpts = []cmp.Option{cmpopts.EquateEmpty()}

// Equal reports structural equality. nil and empty collections compare equal.
func Equal(a, b Document) bool {
	return cmp.Equal(a, b, equalOpts...)
}

// Diff is a human readable difference, used in logs and tests
func Diff(a, b Document) string {
	return cmp.Diff(a, b, equalOpts...)
}

func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for i, s := range d {
		out[i] = s.Clone()
	}
	return out
}

func (d Document) Index(id string) int {
	for i, s := range d {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (d Document) Find(id string) (Shape, bool) {
	if i := d.Index(id); i >= 0 {
		return d[i], true
	}
	return Shape{}, false
}

// Validate checks every shape and that no two shapes share an id.
func (d Document) Validate() error {
	seen := make(map[string]struct{}, len(d))
	for _, s := range d {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: duplicate shape id %s", ErrInvalidDocument, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// Bounds returns the largest x and y any shape reaches.
func (d Document) Bounds() (maxX, maxY float64) {
	for _, s := range d {
		x, y := s.Extent()
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
	}
	return maxX, maxY
}

// MarshalDocument encodes d as a JSON array, an empty board is "[]".
func MarshalDocument(d Document) ([]byte, error) {
	if d == nil {
		d = Document{}
	}
	return json.Marshal(d)
}

// UnmarshalDocument decodes and validates a JSON shape list.
func UnmarshalDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
