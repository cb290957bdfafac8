package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"
)

// DatedColumn names a date column of the target store and the column that
// identifies its rows in reports
type DatedColumn struct {
	Table  string
	Key    string
	Column string
}

// DatedColumns lists every business date stored by the migration
func DatedColumns() []DatedColumn {
	return []DatedColumn{
		{Table: purchasesTable, Key: "header_id", Column: "date"},
		{Table: purchasesTable, Key: "header_id", Column: "due_date"},
		{Table: salesTable, Key: "invoice_number", Column: "date"},
		{Table: salesTable, Key: "invoice_number", Column: "due_date"},
	}
}

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// GormAuditRepository streams raw column values for read-only diagnostics
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// ScanDates calls fn for every row of c.Table with the row key and the
// column value; a NULL column yields a nil time. Rows are visited in key order.
func (r *GormAuditRepository) ScanDates(ctx context.Context, c DatedColumn, fn func(key string, t *time.Time) error) error {
	for _, id := range []string{c.Table, c.Key, c.Column} {
		if !identifier.MatchString(id) {
			return fmt.Errorf("invalid identifier %q", id)
		}
	}

	rows, err := r.db.WithContext(ctx).
		Table(c.Table).
		Select(c.Key, c.Column).
		Order(c.Key).
		Rows()
	if err != nil {
		return fmt.Errorf("scan %s.%s: %w", c.Table, c.Column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			val sql.NullTime
		)
		if err := rows.Scan(&key, &val); err != nil {
			return fmt.Errorf("scan %s.%s: %w", c.Table, c.Column, err)
		}
		var t *time.Time
		if val.Valid {
			u := val.Time.UTC()
			t = &u
		}
		if err := fn(key, t); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of rows in table
func (r *GormAuditRepository) Count(ctx context.Context, table string) (int64, error) {
	if !identifier.MatchString(table) {
		return 0, fmt.Errorf("invalid identifier %q", table)
	}
	var n int64
	err := r.db.WithContext(ctx).Table(table).Count(&n).Error
	return n, err
}
