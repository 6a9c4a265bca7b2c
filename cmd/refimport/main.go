package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"stroke-risk-api/internal/dataset"
	"stroke-risk-api/internal/encoder"
	"stroke-risk-api/internal/features"
	"stroke-risk-api/internal/store"
)

func main() {
	var (
		csvPath    = flag.String("csv", "brain_stroke.csv", "Reference dataset CSV to import")
		dbPath     = flag.String("db", filepath.FromSlash("data/reference.db"), "Path to SQLite database")
		silent     = flag.Bool("silent", true, "Silence GORM query logging")
		outputPath = flag.String("codes", "", "Optional path to write the fitted code tables as JSON")
	)
	flag.Parse()

	table, err := dataset.LoadCSV(*csvPath)
	if err != nil {
		logrus.Fatalf("load csv: %v", err)
	}
	logrus.WithFields(logrus.Fields{
		"file":    *csvPath,
		"columns": len(table.Columns),
		"rows":    table.Len(),
	}).Info("reference csv parsed")

	if dir := filepath.Dir(*dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logrus.Fatalf("create database directory: %v", err)
		}
	}
	db, err := store.Open(*dbPath, *silent)
	if err != nil {
		logrus.Fatalf("open database: %v", err)
	}
	if err := db.ReplaceReference(*csvPath, table.Columns, table.Rows); err != nil {
		_ = db.Close()
		logrus.Fatalf("store reference dataset: %v", err)
	}
	count, err := db.CountReferenceRows()
	if err != nil {
		_ = db.Close()
		logrus.Fatalf("count stored rows: %v", err)
	}
	if count != int64(table.Len()) {
		_ = db.Close()
		logrus.Fatalf("stored %d rows, expected %d", count, table.Len())
	}
	if err := db.Close(); err != nil {
		logrus.WithError(err).Warn("close database")
	}

	// Read back through the same path the server uses.
	stored, err := dataset.LoadSQLite(*dbPath)
	if err != nil {
		logrus.Fatalf("reload reference dataset: %v", err)
	}
	schema := features.StrokeSchema()
	enc, err := encoder.Fit(stored, schema.Categorical(), encoder.PolicyZero)
	if err != nil {
		logrus.Fatalf("fit encoder on stored dataset: %v", err)
	}
	for _, name := range enc.Features() {
		logrus.WithFields(logrus.Fields{
			"feature":    name,
			"categories": len(enc.Codes(name)),
			"width":      enc.Width(name),
		}).Info("categorical feature")
	}
	logrus.WithFields(logrus.Fields{
		"db":      *dbPath,
		"rows":    stored.Len(),
		"columns": len(enc.Columns()) + len(schema.Numerical()),
	}).Info("reference import complete")

	if *outputPath != "" {
		if err := writeCodes(*outputPath, enc); err != nil {
			logrus.Fatalf("write codes: %v", err)
		}
		logrus.WithField("path", *outputPath).Info("code tables written to file")
	}
}

func writeCodes(path string, enc *encoder.Binary) error {
	tables := make(map[string][]encoder.Code, len(enc.Features()))
	for _, name := range enc.Features() {
		tables[name] = enc.Codes(name)
	}
	payload, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return fmt.Errorf("encode code tables: %w", err)
	}
	return os.WriteFile(path, payload, 0o644)
}
