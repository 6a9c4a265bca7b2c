package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"stroke-risk-api/internal/encoder"
	"stroke-risk-api/internal/store"
)

const sample = "\ufeffgender,age,smoking_status\nMale,67,formerly smoked\nFemale,61,\nMale,80,N/A\n"

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(table.Columns, []string{"gender", "age", "smoking_status"}) {
		t.Fatalf("unexpected header %v", table.Columns)
	}
	if table.Len() != 3 {
		t.Fatalf("expected 3 rows got %d", table.Len())
	}

	values, err := table.Values("smoking_status")
	if err != nil {
		t.Fatalf("values: %v", err)
	}
	expected := []encoder.Value{{Text: "formerly smoked"}, {Missing: true}, {Missing: true}}
	if !reflect.DeepEqual(values, expected) {
		t.Fatalf("expected %v got %v", expected, values)
	}

	if _, err := table.Column("bmi"); err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestReadCSVRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"ragged", "a,b\n1,2\n3\n"},
		{"duplicate header", "a,a\n1,2\n"},
		{"blank header", "a,\n1,2\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tc.doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestIsMissing(t *testing.T) {
	for _, cell := range []string{"", "NA", "NaN", "null", "None", "#N/A"} {
		if !IsMissing(cell) {
			t.Fatalf("expected %q to be missing", cell)
		}
	}
	for _, cell := range []string{"Unknown", " ", "0", "none"} {
		if IsMissing(cell) {
			t.Fatalf("expected %q to be a value", cell)
		}
	}
}

func TestLoadDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "reference.csv")
	if err := os.WriteFile(csvPath, []byte(sample), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	fromCSV, err := Load(csvPath)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}

	dbPath := filepath.Join(dir, "reference.db")
	db, err := store.Open(dbPath, true)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := db.ReplaceReference(csvPath, fromCSV.Columns, fromCSV.Rows); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	fromDB, err := Load(dbPath)
	if err != nil {
		t.Fatalf("load sqlite: %v", err)
	}
	if !reflect.DeepEqual(fromDB.Columns, fromCSV.Columns) || !reflect.DeepEqual(fromDB.Rows, fromCSV.Rows) {
		t.Fatalf("sqlite table %v differs from csv table %v", fromDB.Rows, fromCSV.Rows)
	}

	for _, path := range []string{
		filepath.Join(dir, "reference.parquet"),
		filepath.Join(dir, "missing.csv"),
		"",
	} {
		if _, err := Load(path); err == nil {
			t.Fatalf("expected error loading %q", path)
		}
	}

	headerOnly := filepath.Join(dir, "header.csv")
	if err := os.WriteFile(headerOnly, []byte("gender,age\n"), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if _, err := Load(headerOnly); err == nil {
		t.Fatal("expected error for dataset without records")
	}
}

func TestLoadSQLiteRequiresImportRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := store.Open(path, true)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := LoadSQLite(path); !errors.Is(err, store.ErrNoImport) {
		t.Fatalf("expected ErrNoImport got %v", err)
	}
}
