package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"stroke-risk-api/internal/store"
)

const utf8BOM = "\ufeff"

// Load reads the reference dataset, choosing the reader from the file extension.
func Load(path string) (*Table, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("dataset path is empty")
	}
	var (
		table *Table
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		table, err = LoadCSV(path)
	case ".db", ".sqlite", ".sqlite3":
		table, err = LoadSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("dataset %s has no records", path)
	}
	return table, nil
}

// LoadCSV reads a CSV file with a header row.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	table, err := ReadCSV(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// ReadCSV parses a header row followed by records.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("dataset is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, record)
	}
	return NewTable(header, rows)
}

// LoadSQLite reads the reference table written by refimport.
func LoadSQLite(path string) (*Table, error) {
	db, err := store.OpenReadOnly(path, true)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	columns, err := db.ReferenceColumns()
	if err != nil {
		return nil, fmt.Errorf("read reference columns: %w", err)
	}
	rows, err := db.ReferenceRows()
	if err != nil {
		return nil, fmt.Errorf("read reference rows: %w", err)
	}
	imp, err := db.LatestImport()
	if err != nil {
		return nil, fmt.Errorf("read reference import: %w", err)
	}
	if imp.Rows != len(rows) || imp.Columns != len(columns) {
		return nil, fmt.Errorf("reference import from %s recorded %dx%d cells, database holds %dx%d",
			imp.Source, imp.Rows, imp.Columns, len(rows), len(columns))
	}
	logrus.WithFields(logrus.Fields{
		"db":          path,
		"source":      imp.Source,
		"rows":        imp.Rows,
		"imported_at": imp.CreatedAt,
	}).Info("reference dataset read from sqlite")
	return NewTable(columns, rows)
}
