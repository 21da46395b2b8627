package models

import (
	"time"

	"gorm.io/datatypes"
)

// Board is the stored cell of one board id. The whole shape list lives in
// Document and every write replaces it.
type Board struct {
	ID        string         `gorm:"primarykey;size:128" json:"id"`
	Title     string         `json:"title"`
	Document  datatypes.JSON `json:"document,omitempty"`
	Revision  int64          `gorm:"not null;default:0" json:"revision"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Shapes decodes the stored document, an unwritten board is empty
func (b *Board) Shapes() (Document, error) {
	if len(b.Document) == 0 {
		return Document{}, nil
	}
	return UnmarshalDocument(b.Document)
}
