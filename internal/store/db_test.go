package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func openTemp(t *testing.T) (*Database, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reference.db")
	db, err := Open(path, true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func TestReplaceReferenceRoundTrip(t *testing.T) {
	db, _ := openTemp(t)

	columns := []string{"gender", "age", "smoking_status"}
	rows := [][]string{
		{"Male", "67", "formerly smoked"},
		{"Female", "61", ""},
		{"Male", "80", "never smoked"},
	}
	if err := db.ReplaceReference("brain_stroke.csv", columns, rows); err != nil {
		t.Fatalf("replace: %v", err)
	}

	gotColumns, err := db.ReferenceColumns()
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	if !reflect.DeepEqual(gotColumns, columns) {
		t.Fatalf("expected columns %v got %v", columns, gotColumns)
	}
	gotRows, err := db.ReferenceRows()
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if !reflect.DeepEqual(gotRows, rows) {
		t.Fatalf("expected rows %v got %v", rows, gotRows)
	}

	imp, err := db.LatestImport()
	if err != nil {
		t.Fatalf("latest import: %v", err)
	}
	if imp.Source != "brain_stroke.csv" || imp.Rows != 3 || imp.Columns != 3 {
		t.Fatalf("unexpected import record %+v", imp)
	}
}

func TestReplaceReferenceSwapsPreviousData(t *testing.T) {
	db, _ := openTemp(t)
	if err := db.ReplaceReference("first.csv", []string{"a", "b"}, [][]string{{"1", "2"}, {"3", "4"}}); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if err := db.ReplaceReference("second.csv", []string{"b"}, [][]string{{"x"}}); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	count, err := db.CountReferenceRows()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row got %d", count)
	}
	columns, _ := db.ReferenceColumns()
	if !reflect.DeepEqual(columns, []string{"b"}) {
		t.Fatalf("unexpected columns %v", columns)
	}
}

func TestReplaceReferenceRejectsRaggedRows(t *testing.T) {
	db, _ := openTemp(t)
	if err := db.ReplaceReference("bad.csv", []string{"a", "b"}, [][]string{{"1"}}); err == nil {
		t.Fatal("expected error for ragged row")
	}
	if err := db.ReplaceReference("bad.csv", nil, nil); err == nil {
		t.Fatal("expected error for empty header")
	}
}

func TestOpenReadOnly(t *testing.T) {
	db, path := openTemp(t)
	if err := db.ReplaceReference("ref.csv", []string{"gender"}, [][]string{{"Male"}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ro, err := OpenReadOnly(path, true)
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	defer ro.Close()

	rows, err := ro.ReferenceRows()
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if !reflect.DeepEqual(rows, [][]string{{"Male"}}) {
		t.Fatalf("unexpected rows %v", rows)
	}
	if err := ro.ReplaceReference("other.csv", []string{"gender"}, nil); err == nil {
		t.Fatal("expected read-only database to refuse writes")
	}

	if _, err := OpenReadOnly(filepath.Join(t.TempDir(), "missing.db"), true); err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestPathsWithURIDelimiters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ref?v=1#draft")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "100%.db")

	db, err := Open(path, true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.ReplaceReference("ref.csv", []string{"gender"}, [][]string{{"Female"}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database at %s: %v", path, err)
	}

	ro, err := OpenReadOnly(path, true)
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	defer ro.Close()
	rows, err := ro.ReferenceRows()
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if !reflect.DeepEqual(rows, [][]string{{"Female"}}) {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestSQLiteURI(t *testing.T) {
	tests := []struct {
		path  string
		query string
		want  string
	}{
		{"data/reference.db", "", "file:data/reference.db"},
		{"/tmp/a?b#c.db", "mode=ro", "file:/tmp/a%3Fb%23c.db?mode=ro"},
		{"50%.db", "", "file:50%25.db"},
	}
	for _, tc := range tests {
		if got := sqliteURI(tc.path, tc.query); got != tc.want {
			t.Fatalf("sqliteURI(%q, %q): expected %s got %s", tc.path, tc.query, tc.want, got)
		}
	}
}

func TestLatestImportOnEmptyDatabase(t *testing.T) {
	db, _ := openTemp(t)
	if _, err := db.LatestImport(); !errors.Is(err, ErrNoImport) {
		t.Fatalf("expected ErrNoImport got %v", err)
	}
}
