// Package migrationapp runs the workbook migration: ordered phases that
// resolve every source row against the target store and thread the
// resulting key maps into the phases that reference them.
package migrationapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/migrator/internal/domain/catalog"
	"github.com/erp/migrator/internal/domain/inventory"
	"github.com/erp/migrator/internal/domain/partner"
	"github.com/erp/migrator/internal/domain/trade"
	"github.com/erp/migrator/internal/infrastructure/logger"
	"github.com/erp/migrator/internal/infrastructure/persistence"
	"github.com/erp/migrator/internal/infrastructure/telemetry"
	"github.com/erp/migrator/internal/infrastructure/workbook"
	"go.uber.org/zap"
)

// Phase names in run order
const (
	PhaseCatalogs         = "catalogs"
	PhaseSuppliers        = "suppliers"
	PhaseCustomers        = "customers"
	PhaseProducts         = "products"
	PhaseExpenseTypes     = "expense_types"
	PhasePurchases        = "purchases"
	PhasePurchaseLines    = "purchase_lines"
	PhasePurchaseExpenses = "purchase_expenses"
	PhaseSales            = "sales"
	PhaseSaleLines        = "sale_lines"
	PhaseInventory        = "inventory_snapshots"
	PhaseSummary          = "summary"
)

// Phases returns every phase in run order
func Phases() []string {
	return []string{
		PhaseCatalogs, PhaseSuppliers, PhaseCustomers, PhaseProducts, PhaseExpenseTypes,
		PhasePurchases, PhasePurchaseLines, PhasePurchaseExpenses,
		PhaseSales, PhaseSaleLines, PhaseInventory, PhaseSummary,
	}
}

// Repositories are the store ports used by a run
type Repositories struct {
	Entries   catalog.EntryRepository
	Suppliers partner.SupplierRepository
	Customers partner.CustomerRepository
	Products  catalog.ProductRepository
	Purchases trade.PurchaseRepository
	Sales     trade.SaleRepository
	Snapshots inventory.SnapshotRepository
}

// StoreRepositories exposes the repositories of a gorm-backed store
func StoreRepositories(s *persistence.Store) Repositories {
	return Repositories{
		Entries:   s.Entries,
		Suppliers: s.Suppliers,
		Customers: s.Customers,
		Products:  s.Products,
		Purchases: s.Purchases,
		Sales:     s.Sales,
		Snapshots: s.Snapshots,
	}
}

// Options tune a run
type Options struct {
	FlagLimit        int
	Placeholders     partner.PlaceholderPolicy
	DefaultCurrency  string
	DefaultBranch    string
	DefaultWarehouse string
}

// Orchestrator runs the phases of a migration
type Orchestrator struct {
	repos   Repositories
	opts    Options
	logger  *zap.Logger
	metrics *telemetry.RunMetrics
	clock   func() time.Time
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithMetrics records row outcomes and phase durations on m
func WithMetrics(m *telemetry.RunMetrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithClock replaces the wall clock used for timestamps and fallback tokens
func WithClock(clock func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// NewOrchestrator creates an orchestrator over repos
func NewOrchestrator(repos Repositories, opts Options, log *zap.Logger, options ...OrchestratorOption) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "PYG"
	}
	if opts.DefaultBranch == "" {
		opts.DefaultBranch = "CENTRAL"
	}
	if opts.DefaultWarehouse == "" {
		opts.DefaultWarehouse = "DEP-01"
	}
	o := &Orchestrator{repos: repos, opts: opts, logger: log, clock: time.Now}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// run is the state of one execution. Entity maps are not stored here; each
// phase receives the frozen maps it reads and returns the one it builds.
type run struct {
	repos    Repositories
	opts     Options
	session  *Session
	summary  *Summary
	resolver *Resolver
	metrics  *telemetry.RunMetrics
	source   *Source
}

// Run executes every phase over src. The summary is returned even when the
// run fails; rows written before the failure stay in the store.
func (o *Orchestrator) Run(ctx context.Context, src *Source) (*Summary, error) {
	session := NewSession(o.clock)
	runID := session.ID.String()
	summary := NewSummary(runID, o.opts.FlagLimit)
	summary.StartedAt = session.CreatedAt

	ctx = logger.WithRunID(logger.WithContext(ctx, o.logger), runID)
	ctx, span := telemetry.StartSpan(ctx, "migration.run", telemetry.SpanAttrRunID, runID)
	defer span.End()

	r := &run{
		repos:    o.repos,
		opts:     o.opts,
		session:  session,
		summary:  summary,
		resolver: NewResolver(NewFallbackKeysWithClock(o.clock)),
		metrics:  o.metrics,
		source:   src,
	}

	if err := session.Start(); err != nil {
		return summary, err
	}
	logger.L(ctx).Info("Migration started")

	err := r.execute(ctx)
	if err != nil {
		_ = session.Fail(err)
		summary.Error = err.Error()
		telemetry.RecordError(span, err)
	} else {
		_ = session.Complete()
	}
	summary.State = session.State
	summary.FinishedAt = o.clock().UTC()

	t := summary.Totals()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCreated, t.Created,
		telemetry.SpanAttrUpdated, t.Updated,
		telemetry.SpanAttrSkipped, t.Skipped,
	)
	summary.Log(logger.L(ctx))
	if err != nil {
		logger.L(ctx).Error("Migration failed", zap.String("phase", session.Phase), zap.Error(err))
		return summary, err
	}
	logger.L(ctx).Info("Migration completed")
	return summary, nil
}

func (r *run) execute(ctx context.Context) error {
	src := r.source

	var cats catalogMaps
	if err := r.phase(ctx, PhaseCatalogs, func(ctx context.Context) (err error) {
		cats, err = r.catalogs(ctx, src)
		return err
	}); err != nil {
		return err
	}

	var suppliers *EntityMap
	if err := r.phase(ctx, PhaseSuppliers, func(ctx context.Context) (err error) {
		suppliers, err = r.suppliers(ctx, src.Suppliers)
		return err
	}); err != nil {
		return err
	}

	var customers *EntityMap
	if err := r.phase(ctx, PhaseCustomers, func(ctx context.Context) (err error) {
		customers, err = r.customers(ctx, src.Customers)
		return err
	}); err != nil {
		return err
	}

	var products *EntityMap
	if err := r.phase(ctx, PhaseProducts, func(ctx context.Context) (err error) {
		products, err = r.products(ctx, src.Products)
		return err
	}); err != nil {
		return err
	}

	var expenseTypes *EntityMap
	if err := r.phase(ctx, PhaseExpenseTypes, func(ctx context.Context) (err error) {
		expenseTypes, err = r.expenseTypes(ctx, src.PurchaseExpenses)
		return err
	}); err != nil {
		return err
	}

	var purchases *EntityMap
	if err := r.phase(ctx, PhasePurchases, func(ctx context.Context) (err error) {
		purchases, err = r.purchases(ctx, src.Purchases, suppliers, cats.currencies)
		return err
	}); err != nil {
		return err
	}

	if err := r.phase(ctx, PhasePurchaseLines, func(ctx context.Context) error {
		return r.purchaseLines(ctx, src.PurchaseLines, purchases, products, cats.warehouses)
	}); err != nil {
		return err
	}

	if err := r.phase(ctx, PhasePurchaseExpenses, func(ctx context.Context) error {
		return r.purchaseExpenses(ctx, src.PurchaseExpenses, purchases, expenseTypes)
	}); err != nil {
		return err
	}

	var sales *EntityMap
	if err := r.phase(ctx, PhaseSales, func(ctx context.Context) (err error) {
		sales, customers, err = r.sales(ctx, src.Sales, customers, cats)
		return err
	}); err != nil {
		return err
	}

	if err := r.phase(ctx, PhaseSaleLines, func(ctx context.Context) error {
		return r.saleLines(ctx, src.SaleLines, sales, products, cats.warehouses)
	}); err != nil {
		return err
	}

	if err := r.phase(ctx, PhaseInventory, func(ctx context.Context) error {
		return r.inventory(ctx, src.Stock, products, cats)
	}); err != nil {
		return err
	}

	return r.phase(ctx, PhaseSummary, func(ctx context.Context) error {
		logger.L(ctx).Debug("Entity maps",
			zap.Int("suppliers", suppliers.Len()),
			zap.Int("customers", customers.Len()),
			zap.Int("products", products.Len()),
			zap.Int("purchases", purchases.Len()),
			zap.Int("sales", sales.Len()),
		)
		return nil
	})
}

// phase runs fn inside a span with the phase recorded on the session and
// the context logger.
func (r *run) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.session.EnterPhase(name); err != nil {
		return err
	}
	ctx = logger.WithPhase(ctx, name)
	ctx, span := telemetry.StartSpan(ctx, "migration.phase."+name, telemetry.SpanAttrPhase, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	r.summary.Phase(name).Duration = elapsed
	r.metrics.RecordPhase(ctx, name, elapsed)

	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("phase %s: %w", name, err)
	}
	logger.L(ctx).Info("Phase completed", zap.Duration("elapsed", elapsed))
	return nil
}

// record counts a resolved row and flags rows stored with synthesized values
func (r *run) record(ctx context.Context, phase, kind string, meta workbook.Meta, outcome Outcome, fallbacks []string, detail string) {
	fallbackUsed := len(fallbacks) > 0 && outcome == OutcomeCreated
	r.summary.Record(kind, outcome, fallbackUsed)
	r.metrics.AddRows(ctx, kind, string(outcome), 1)
	if !fallbackUsed {
		return
	}
	r.metrics.AddRows(ctx, kind, flagFallback, 1)
	value := fallbacks[len(fallbacks)-1]
	r.summary.Flag(phase, Flag{
		Sheet:    meta.Sheet,
		Row:      meta.Row,
		Category: flagFallback,
		Message:  detail,
		Value:    value,
	})
	logger.L(ctx).Warn("Stored with fallback value",
		zap.String("kind", kind),
		zap.String("sheet", meta.Sheet),
		zap.Int("row", meta.Row),
		zap.String("value", value),
		zap.String("detail", detail),
	)
}

// skip counts a row that is left out of the store
func (r *run) skip(ctx context.Context, phase, kind string, category SkipCategory, meta workbook.Meta, msg, value string) {
	r.summary.Skip(phase, kind, category, Flag{Sheet: meta.Sheet, Row: meta.Row, Message: msg, Value: value})
	r.metrics.AddRows(ctx, kind, "skipped", 1)
	logger.L(ctx).Debug("Row skipped",
		zap.String("kind", kind),
		zap.String("category", string(category)),
		zap.String("sheet", meta.Sheet),
		zap.Int("row", meta.Row),
		zap.String("reason", msg),
	)
}

// note flags an anomaly on a row that was still stored
func (r *run) note(phase string, meta workbook.Meta, category, msg, value string) {
	r.summary.Flag(phase, Flag{Sheet: meta.Sheet, Row: meta.Row, Category: category, Message: msg, Value: value})
}

// decodeErrors counts the rows of kind that never made it past decoding
func (r *run) decodeErrors(ctx context.Context, phase, kind string) {
	errs := r.source.RowErrors[kind]
	if errs == nil {
		return
	}
	// one row can fail on several columns; count it once
	seen := make(map[int]bool)
	for _, e := range errs.Errors() {
		if seen[e.Row] {
			continue
		}
		seen[e.Row] = true
		category := SkipInvalidRow
		if e.Code == workbook.ErrCodeMissingKey {
			category = SkipMissingKey
		}
		r.skip(ctx, phase, kind, category, workbook.Meta{Sheet: e.Sheet, Row: e.Row}, e.Message, e.Value)
	}
	if hidden := errs.TotalCount() - errs.Count(); hidden > 0 {
		r.summary.Kind(kind).Skipped += hidden
		r.summary.Skips[SkipInvalidRow] += hidden
		r.metrics.AddRows(ctx, kind, "skipped", hidden)
	}
	r.metrics.AddRowErrors(ctx, kind, errs.TotalCount())
}

// duplicate handles a row whose natural key was already resolved earlier in
// the same phase. The first row wins.
func (r *run) duplicate(phase, kind string, meta workbook.Meta, key string) {
	r.summary.Record(kind, OutcomeUnchanged, false)
	r.note(phase, meta, "duplicate_key", "natural key repeated in sheet, first row kept", key)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
