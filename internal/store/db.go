package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNoImport is returned when the database holds no import record.
var ErrNoImport = errors.New("no reference import recorded")

// Database wraps the GORM DB handle and exposes the reference dataset helpers.
type Database struct {
	gorm     *gorm.DB
	mu       sync.Mutex
	readOnly bool
}

var models = []any{&ReferenceColumn{}, &ReferenceRow{}, &ReferenceImport{}}

// Open initializes the SQLite-backed database at the provided path, creating
// the tables if needed.
func Open(path string, silent bool) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(sqliteURI(path, "")), gormConfig(silent))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Database{gorm: db}, nil
}

// OpenReadOnly opens an existing database without migrating or writing to it.
func OpenReadOnly(path string, silent bool) (*Database, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(sqliteURI(path, "mode=ro")), gormConfig(silent))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	for _, model := range models {
		if !db.Migrator().HasTable(model) {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			return nil, fmt.Errorf("database %s has no reference tables; run refimport first", path)
		}
	}
	return &Database{gorm: db, readOnly: true}, nil
}

var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// sqliteURI returns a file: URI for path; SQLite decodes the %XX escapes.
func sqliteURI(path, query string) string {
	uri := "file:" + uriPathEscaper.Replace(path)
	if query != "" {
		uri += "?" + query
	}
	return uri
}

func gormConfig(silent bool) *gorm.Config {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	return cfg
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ReplaceReference swaps the stored reference dataset for the given header and rows.
func (d *Database) ReplaceReference(source string, columns []string, rows [][]string) error {
	if d == nil {
		return errors.New("database is nil")
	}
	if d.readOnly {
		return errors.New("database opened read-only")
	}
	if len(columns) == 0 {
		return errors.New("reference dataset has no columns")
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row %d has %d cells, expected %d", i+1, len(row), len(columns))
		}
	}

	header := make([]ReferenceColumn, len(columns))
	for i, name := range columns {
		header[i] = ReferenceColumn{Position: i + 1, Name: name}
	}
	records := make([]ReferenceRow, len(rows))
	for i, row := range rows {
		records[i].SetCells(row)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&ReferenceRow{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&ReferenceColumn{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&header).Error; err != nil {
			return fmt.Errorf("store columns: %w", err)
		}
		if len(records) > 0 {
			const batchSize = 500
			if err := tx.CreateInBatches(records, batchSize).Error; err != nil {
				return fmt.Errorf("store rows: %w", err)
			}
		}
		return tx.Create(&ReferenceImport{Source: source, Columns: len(columns), Rows: len(rows)}).Error
	})
}

// ReferenceColumns returns the stored header in column order.
func (d *Database) ReferenceColumns() ([]string, error) {
	var header []ReferenceColumn
	if err := d.gorm.Order("position ASC").Find(&header).Error; err != nil {
		return nil, err
	}
	names := make([]string, len(header))
	for i, col := range header {
		names[i] = col.Name
	}
	return names, nil
}

// ReferenceRows returns every stored row in insertion order.
func (d *Database) ReferenceRows() ([][]string, error) {
	var records []ReferenceRow
	if err := d.gorm.Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	rows := make([][]string, len(records))
	for i := range records {
		cells, err := records[i].Cells()
		if err != nil {
			return nil, err
		}
		rows[i] = cells
	}
	return rows, nil
}

// CountReferenceRows returns the number of stored reference rows.
func (d *Database) CountReferenceRows() (int64, error) {
	var count int64
	if err := d.gorm.Model(&ReferenceRow{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// LatestImport returns the most recent import record.
func (d *Database) LatestImport() (*ReferenceImport, error) {
	var imp ReferenceImport
	if err := d.gorm.Order("id DESC").First(&imp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoImport
		}
		return nil, err
	}
	return &imp, nil
}
