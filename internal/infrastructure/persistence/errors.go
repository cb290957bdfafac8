package persistence

import (
	"errors"
	"strings"

	"github.com/erp/migrator/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

const sqliteUniqueMessage = "UNIQUE constraint failed: "

// classifyWriteError turns driver-level unique violations into
// *shared.UniqueViolationError naming the colliding column. Other errors
// pass through unchanged.
func classifyWriteError(table string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := shared.AsUniqueViolation(err); ok {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		t := pgErr.TableName
		if t == "" {
			t = table
		}
		return &shared.UniqueViolationError{
			Table: t,
			Field: fieldFromConstraint(t, pgErr.ConstraintName),
			Err:   err,
		}
	}

	if msg := err.Error(); strings.Contains(msg, sqliteUniqueMessage) {
		t, field := fieldFromSQLite(msg)
		if t == "" {
			t = table
		}
		return &shared.UniqueViolationError{Table: t, Field: field, Err: err}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &shared.UniqueViolationError{Table: table, Err: err}
	}
	return err
}

// IsUniqueViolation reports whether err is a unique violation from any
// supported driver. The gorm logger uses it to demote expected conflicts.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	_, ok := shared.AsUniqueViolation(err)
	return ok || (err != nil && strings.Contains(err.Error(), sqliteUniqueMessage))
}

// fieldFromConstraint recovers the column from an index named uq_<table>_<column>
func fieldFromConstraint(table, constraint string) string {
	prefix := "uq_" + table + "_"
	if strings.HasPrefix(constraint, prefix) {
		return strings.TrimPrefix(constraint, prefix)
	}
	return ""
}

// fieldFromSQLite parses "UNIQUE constraint failed: table.col[, table.col2]".
// Composite keys report their first column.
func fieldFromSQLite(msg string) (table, field string) {
	_, rest, _ := strings.Cut(msg, sqliteUniqueMessage)
	first, _, _ := strings.Cut(rest, ",")
	table, field, ok := strings.Cut(strings.TrimSpace(first), ".")
	if !ok {
		return "", ""
	}
	return table, field
}

// notFound maps gorm.ErrRecordNotFound to shared.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}
