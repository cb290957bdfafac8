package diagnosticsapp

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/migrator/internal/domain/sheetdate"
	"github.com/erp/migrator/internal/infrastructure/persistence"
)

// Date problems reported by the store audit
const (
	ProblemNull        = "null"
	ProblemInvalid     = "invalid"
	ProblemNonPositive = "zero_or_negative"
	ProblemSuspect     = "suspect"
)

// DateScanner streams the values of a dated column
type DateScanner interface {
	ScanDates(ctx context.Context, c persistence.DatedColumn, fn func(key string, t *time.Time) error) error
}

// AuditExample is one offending row
type AuditExample struct {
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Problem string `json:"problem"`
}

// ColumnAudit counts the problems of one dated column. A value can have
// more than one problem.
type ColumnAudit struct {
	Table       string         `json:"table"`
	Column      string         `json:"column"`
	Rows        int            `json:"rows"`
	Nulls       int            `json:"nulls"`
	Invalid     int            `json:"invalid"`
	NonPositive int            `json:"zero_or_negative"`
	Suspect     int            `json:"suspect"`
	Examples    []AuditExample `json:"examples,omitempty"`
}

// AuditDates scans every column and keeps up to examples offending rows
// per column
func AuditDates(ctx context.Context, scanner DateScanner, cols []persistence.DatedColumn, examples int) ([]ColumnAudit, error) {
	out := make([]ColumnAudit, 0, len(cols))
	for _, c := range cols {
		a := ColumnAudit{Table: c.Table, Column: c.Column}
		err := scanner.ScanDates(ctx, c, func(key string, t *time.Time) error {
			a.Rows++
			for _, problem := range dateProblems(t) {
				switch problem {
				case ProblemNull:
					a.Nulls++
				case ProblemInvalid:
					a.Invalid++
				case ProblemNonPositive:
					a.NonPositive++
				case ProblemSuspect:
					a.Suspect++
				}
				// nulls are legal for due dates; they are counted, not listed
				if problem != ProblemNull && len(a.Examples) < examples {
					a.Examples = append(a.Examples, AuditExample{Key: key, Value: t.Format(time.RFC3339), Problem: problem})
				}
			}
			return nil
		})
		if err != nil {
			return out, fmt.Errorf("audit %s.%s: %w", c.Table, c.Column, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func dateProblems(t *time.Time) []string {
	if t == nil {
		return []string{ProblemNull}
	}
	var out []string
	if y := t.Year(); y < 1900 || y > 2100 {
		out = append(out, ProblemInvalid)
	}
	if t.UnixMilli() <= 0 {
		out = append(out, ProblemNonPositive)
	}
	if sheetdate.IsSuspect(*t) {
		out = append(out, ProblemSuspect)
	}
	return out
}
