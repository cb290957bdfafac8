package diagnosticsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/erp/migrator/internal/infrastructure/logger"
	"github.com/erp/migrator/internal/infrastructure/persistence"
	"github.com/erp/migrator/internal/infrastructure/telemetry"
	"github.com/erp/migrator/internal/infrastructure/workbook"
	"go.uber.org/zap"
)

// Report is the diagnostic artifact
type Report struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Sheets      []SheetProfile `json:"sheets"`
	Store       []ColumnAudit  `json:"store,omitempty"`
}

// ArtifactWriter stores the JSON report at a local path or s3:// URI
type ArtifactWriter interface {
	Write(ctx context.Context, uri string, data []byte, contentType string) error
}

// Options tune a diagnostic run
type Options struct {
	Samples  int // example values per column
	Examples int // offending rows per dated column
}

// Reporter builds diagnostic reports. It never writes to the store.
type Reporter struct {
	scanner DateScanner
	opts    Options
	clock   func() time.Time
}

// NewReporter creates a reporter. A nil scanner skips the store audit.
func NewReporter(scanner DateScanner, opts Options) *Reporter {
	if opts.Samples <= 0 {
		opts.Samples = 5
	}
	if opts.Examples <= 0 {
		opts.Examples = 10
	}
	return &Reporter{scanner: scanner, opts: opts, clock: time.Now}
}

// Build profiles every sheet of the workbooks and audits the store dates
func (r *Reporter) Build(ctx context.Context, workbooks ...*workbook.Workbook) (*Report, error) {
	ctx, span := telemetry.StartSpan(ctx, "diagnostics.build")
	defer span.End()

	rep := &Report{GeneratedAt: r.clock().UTC()}
	for _, wb := range workbooks {
		for _, name := range wb.SheetNames() {
			s, err := wb.Sheet(name)
			if errors.Is(err, workbook.ErrNoHeader) {
				rep.Sheets = append(rep.Sheets, SheetProfile{Workbook: wb.Name(), Sheet: name, Columns: []ColumnProfile{}})
				logger.L(ctx).Debug("Blank sheet profiled", zap.String("workbook", wb.Name()), zap.String("sheet", name))
				continue
			}
			if err != nil {
				telemetry.RecordError(span, err)
				return nil, fmt.Errorf("profile %s: %w", wb.Name(), err)
			}
			rep.Sheets = append(rep.Sheets, ProfileSheet(wb.Name(), s, r.opts.Samples))
			logger.L(ctx).Debug("Sheet profiled", zap.String("workbook", wb.Name()), zap.String("sheet", name), zap.Int("rows", len(s.Rows)))
		}
	}

	if r.scanner != nil {
		audits, err := AuditDates(ctx, r.scanner, persistence.DatedColumns(), r.opts.Examples)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		rep.Store = audits
	}
	telemetry.SetAttributes(span, "diagnostics.sheets", len(rep.Sheets), "diagnostics.columns", len(rep.Store))
	return rep, nil
}

// JSON renders the report as indented JSON
func (rep *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(rep, "", "  ")
}

// Save writes the JSON artifact to uri
func (rep *Report) Save(ctx context.Context, w ArtifactWriter, uri string) error {
	data, err := rep.JSON()
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := w.Write(ctx, uri, data, "application/json"); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.L(ctx).Info("Diagnostic report written", zap.String("uri", uri), zap.Int("bytes", len(data)))
	return nil
}

// WriteTables prints the report as aligned console tables
func (rep *Report) WriteTables(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, s := range rep.Sheets {
		fmt.Fprintf(tw, "\n%s / %s (%d rows)\n", s.Workbook, s.Sheet, s.Rows)
		fmt.Fprintln(tw, "COLUMN\tFILL\tDISTINCT\tTYPE\tSAMPLES")
		for _, c := range s.Columns {
			fmt.Fprintf(tw, "%s\t%.0f%%\t%d\t%s\t%s\n", c.Name, c.FillRate*100, c.Cardinality, c.Type, strings.Join(c.Samples, ", "))
		}
	}
	if len(rep.Store) > 0 {
		fmt.Fprintln(tw, "\nSTORE DATES")
		fmt.Fprintln(tw, "TABLE\tCOLUMN\tROWS\tNULL\tINVALID\tZERO/NEG\tSUSPECT")
		for _, a := range rep.Store {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n", a.Table, a.Column, a.Rows, a.Nulls, a.Invalid, a.NonPositive, a.Suspect)
		}
		for _, a := range rep.Store {
			for _, e := range a.Examples {
				fmt.Fprintf(tw, "  %s.%s\t%s\t%s\t%s\n", a.Table, a.Column, e.Key, e.Value, e.Problem)
			}
		}
	}
	return tw.Flush()
}
