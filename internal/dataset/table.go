package dataset

import (
	"errors"
	"fmt"
	"strings"

	"stroke-risk-api/internal/encoder"
)

// naValues are the cell spellings read as missing, matching the CSV reader the
// reference data was fit with.
var naValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsMissing reports whether a raw cell denotes a missing value.
func IsMissing(cell string) bool {
	_, ok := naValues[cell]
	return ok
}

// Table is the reference dataset as raw cell text.
type Table struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// NewTable validates the header and row shapes.
func NewTable(columns []string, rows [][]string) (*Table, error) {
	if len(columns) == 0 {
		return nil, errors.New("dataset has no header")
	}
	names := make([]string, len(columns))
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		name = strings.TrimSpace(name)
		names[i] = name
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i+1)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column %s", name)
		}
		index[name] = i
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", i+1, len(row), len(columns))
		}
	}
	return &Table{Columns: names, Rows: rows, index: index}, nil
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the raw cells of the named column.
func (t *Table) Column(name string) ([]string, error) {
	pos, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("dataset has no column %s", name)
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[pos]
	}
	return out, nil
}

// Values returns the named column as categorical observations.
func (t *Table) Values(name string) ([]encoder.Value, error) {
	cells, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]encoder.Value, len(cells))
	for i, cell := range cells {
		if IsMissing(cell) {
			out[i] = encoder.Value{Missing: true}
			continue
		}
		out[i] = encoder.Value{Text: cell}
	}
	return out, nil
}
