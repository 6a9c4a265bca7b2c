package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ReferenceColumn is one header cell of the imported reference dataset.
type ReferenceColumn struct {
	Position int    `gorm:"primaryKey;autoIncrement:false"`
	Name     string `gorm:"size:128;uniqueIndex"`
}

// ReferenceRow stores one reference record; cells are kept verbatim as a JSON array.
type ReferenceRow struct {
	ID        uint   `gorm:"primaryKey"`
	CellsJSON string `gorm:"type:text"`
	CreatedAt time.Time
}

// ReferenceImport records where the stored dataset came from.
type ReferenceImport struct {
	ID        uint   `gorm:"primaryKey"`
	Source    string `gorm:"size:512"`
	Columns   int
	Rows      int
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// SetCells persists the raw cells as JSON.
func (r *ReferenceRow) SetCells(cells []string) {
	if cells == nil {
		r.CellsJSON = "[]"
		return
	}
	payload, _ := json.Marshal(cells)
	r.CellsJSON = string(payload)
}

// Cells returns the decoded raw cells.
func (r *ReferenceRow) Cells() ([]string, error) {
	if strings.TrimSpace(r.CellsJSON) == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(r.CellsJSON), &out); err != nil {
		return nil, fmt.Errorf("decode reference row %d: %w", r.ID, err)
	}
	return out, nil
}
