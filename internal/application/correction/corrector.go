// Package correctionapp repairs records a previous migration stored with
// wrong values: dates decoded near the Unix epoch and synthetic customers
// missing their reconciliation marker.
package correctionapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/migrator/internal/domain/partner"
	"github.com/erp/migrator/internal/domain/sheetdate"
	"github.com/erp/migrator/internal/domain/trade"
	"github.com/erp/migrator/internal/infrastructure/logger"
	"github.com/erp/migrator/internal/infrastructure/telemetry"
	"github.com/erp/migrator/internal/infrastructure/workbook"
	"go.uber.org/zap"
)

// Repositories are the store ports the corrector reads and writes
type Repositories struct {
	Purchases trade.PurchaseRepository
	Sales     trade.SaleRepository
	Customers partner.CustomerRepository
}

// DateSource holds the re-read header rows, keyed by purchase header id and
// sale invoice number
type DateSource struct {
	Purchases map[string]workbook.PurchaseRecord
	Sales     map[string]workbook.SaleRecord
}

// NewDateSource indexes decoded header rows. The first row of a repeated
// key wins, as in the migration.
func NewDateSource(purchases []workbook.PurchaseRecord, sales []workbook.SaleRecord) *DateSource {
	src := &DateSource{
		Purchases: make(map[string]workbook.PurchaseRecord, len(purchases)),
		Sales:     make(map[string]workbook.SaleRecord, len(sales)),
	}
	for _, p := range purchases {
		key := strings.TrimSpace(p.HeaderID)
		if _, ok := src.Purchases[key]; !ok {
			src.Purchases[key] = p
		}
	}
	for _, s := range sales {
		key := strings.TrimSpace(s.InvoiceNumber)
		if _, ok := src.Sales[key]; !ok {
			src.Sales[key] = s
		}
	}
	return src
}

// LoadDateSource decodes the purchase and sale header sheets. Rows that
// fail to decode are dropped; their records count as missing_source.
func LoadDateSource(ctx context.Context, purchases, sales *workbook.Workbook, purchaseSheet, saleSheet string, n *sheetdate.Normalizer, maxErrors int) (*DateSource, error) {
	ps, err := purchases.Sheet(purchaseSheet)
	if err != nil {
		return nil, err
	}
	precs, perrs, err := workbook.Decode[workbook.PurchaseRecord](ps, n, maxErrors)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", purchaseSheet, err)
	}
	ss, err := sales.Sheet(saleSheet)
	if err != nil {
		return nil, err
	}
	srecs, serrs, err := workbook.Decode[workbook.SaleRecord](ss, n, maxErrors)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", saleSheet, err)
	}
	if dropped := perrs.TotalCount() + serrs.TotalCount(); dropped > 0 {
		logger.L(ctx).Warn("Header rows dropped", zap.Int("count", dropped))
	}
	return NewDateSource(precs, srecs), nil
}

// Corrector runs the post-migration repairs
type Corrector struct {
	repos Repositories
}

// NewCorrector creates a corrector over repos
func NewCorrector(repos Repositories) *Corrector {
	return &Corrector{repos: repos}
}

// FixDates re-derives suspect purchase and sale dates from src. A stored
// value is only replaced by a Valid, non-suspect source value, so running
// it again changes nothing.
func (c *Corrector) FixDates(ctx context.Context, src *DateSource) (*Report, error) {
	ctx, span := telemetry.StartSpan(ctx, "correction.fix_dates")
	defer span.End()

	report := NewReport()
	threshold := sheetdate.SuspectBefore()

	purchases, err := c.repos.Purchases.FindDatedBefore(ctx, threshold)
	if err != nil {
		telemetry.RecordError(span, err)
		return report, fmt.Errorf("select suspect purchases: %w", err)
	}
	tr := report.Table(TablePurchases)
	for _, p := range purchases {
		rec, ok := src.Purchases[p.HeaderID]
		var cells *headerDates
		if ok {
			cells = &headerDates{date: rec.Date, due: rec.DueDate}
		}
		if err := c.fix(ctx, tr, p.HeaderID, p.Date, p.DueDate, cells, p.SetDates, func(ctx context.Context) error {
			return c.repos.Purchases.Update(ctx, p)
		}); err != nil {
			telemetry.RecordError(span, err)
			return report, err
		}
	}

	sales, err := c.repos.Sales.FindDatedBefore(ctx, threshold)
	if err != nil {
		telemetry.RecordError(span, err)
		return report, fmt.Errorf("select suspect sales: %w", err)
	}
	tr = report.Table(TableSales)
	for _, s := range sales {
		rec, ok := src.Sales[s.InvoiceNumber]
		var cells *headerDates
		if ok {
			cells = &headerDates{date: rec.Date, due: rec.DueDate}
		}
		if err := c.fix(ctx, tr, s.InvoiceNumber, s.Date, s.DueDate, cells, s.SetDates, func(ctx context.Context) error {
			return c.repos.Sales.Update(ctx, s)
		}); err != nil {
			telemetry.RecordError(span, err)
			return report, err
		}
	}

	report.Log(logger.L(ctx))
	return report, nil
}

type headerDates struct {
	date workbook.DateCell
	due  workbook.DateCell
}

// fix repairs one header. cells is nil when the source no longer has the row.
func (c *Corrector) fix(
	ctx context.Context,
	tr *TableReport,
	key string,
	date time.Time,
	due *time.Time,
	cells *headerDates,
	set func(time.Time, *time.Time),
	update func(context.Context) error,
) error {
	tr.Scanned++
	log := logger.L(ctx).With(zap.String("table", tr.Table), zap.String("key", key))
	if cells == nil {
		tr.MissingSource++
		log.Warn("Suspect dates but source row not found")
		return nil
	}

	newDate, newDue := date, (*time.Time)(nil)
	fixed, unresolved := false, false

	if sheetdate.IsSuspect(date) {
		if usable(cells.date) {
			newDate = cells.date.Time.UTC()
			fixed = true
		} else {
			unresolved = true
		}
	}
	if due != nil && sheetdate.IsSuspect(*due) {
		if usable(cells.due) {
			newDue = cells.due.Ptr()
			fixed = true
		} else {
			unresolved = true
		}
	}

	if unresolved {
		tr.Unresolved++
		log.Warn("Source value is not a usable date",
			zap.String("date", cells.date.Raw),
			zap.String("due_date", cells.due.Raw),
		)
	}
	if !fixed {
		return nil
	}
	set(newDate, newDue)
	if err := update(ctx); err != nil {
		return fmt.Errorf("update %s %q: %w", tr.Table, key, err)
	}
	tr.Updated++
	log.Info("Dates corrected", zap.Time("date", newDate))
	return nil
}

func usable(c workbook.DateCell) bool {
	return c.IsValid() && !sheetdate.IsSuspect(c.Time)
}

// ApplyMarkers prefixes the names of synthetic customers that lost the
// reconciliation marker
func (c *Corrector) ApplyMarkers(ctx context.Context) (*TableReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "correction.apply_markers")
	defer span.End()

	tr := &TableReport{Table: TableCustomers}
	candidates, err := c.repos.Customers.FindMarkerCandidates(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return tr, fmt.Errorf("select marker candidates: %w", err)
	}
	for _, cust := range candidates {
		tr.Scanned++
		if !cust.ApplyMarker() {
			continue
		}
		if err := c.repos.Customers.Update(ctx, cust); err != nil {
			telemetry.RecordError(span, err)
			return tr, fmt.Errorf("update customer %q: %w", cust.Code, err)
		}
		tr.Updated++
		logger.L(ctx).Info("Customer marked", zap.String("code", cust.Code), zap.String("name", cust.Name))
	}
	telemetry.SetAttributes(span, "correction.scanned", tr.Scanned, "correction.updated", tr.Updated)
	return tr, nil
}
