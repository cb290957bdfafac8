package migrationapp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/migrator/internal/domain/catalog"
	"github.com/erp/migrator/internal/domain/partner"
	"github.com/erp/migrator/internal/domain/sheetdate"
	"github.com/erp/migrator/internal/domain/trade"
	"github.com/erp/migrator/internal/infrastructure/workbook"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// lookupCatalog resolves a catalog reference; a blank code means def
func lookupCatalog(m *EntityMap, code, def string) (uuid.UUID, string, bool) {
	code = catalog.NormalizeCode(code)
	if code == "" {
		code = catalog.NormalizeCode(def)
	}
	id, ok := m.Lookup(code)
	return id, code, ok
}

// headerDates checks the date columns of an invoice header. The date is
// required; an undecodable due date is flagged and left empty.
func (r *run) headerDates(phase string, meta workbook.Meta, date, due workbook.DateCell) (time.Time, *time.Time, string, bool) {
	switch date.Status {
	case sheetdate.NoValue:
		return time.Time{}, nil, "date is empty", false
	case sheetdate.Invalid:
		return time.Time{}, nil, "date cannot be decoded", false
	}
	var dueDate *time.Time
	switch due.Status {
	case sheetdate.Valid:
		dueDate = due.Ptr()
	case sheetdate.Invalid:
		r.note(phase, meta, string(SkipInvalidDate), "due date cannot be decoded", due.Raw)
	}
	if sheetdate.IsSuspect(date.Time) {
		r.note(phase, meta, "suspect_date", "date is near the Unix epoch", date.Raw)
	}
	return date.Time, dueDate, "", true
}

// keepAmount returns the stored amount when the cell was blank
func keepAmount(in *decimal.Decimal, stored decimal.Decimal) decimal.Decimal {
	if in == nil {
		return stored
	}
	return *in
}

func amountOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func (r *run) purchases(ctx context.Context, recs []workbook.PurchaseRecord, suppliers, currencies *EntityMap) (*EntityMap, error) {
	r.decodeErrors(ctx, PhasePurchases, KindPurchase)
	b := NewMapBuilder(KindPurchase)
	repo := r.repos.Purchases

	for _, rec := range recs {
		headerID := strings.TrimSpace(rec.HeaderID)
		if _, ok := b.Lookup(headerID); ok {
			r.duplicate(PhasePurchases, KindPurchase, rec.Meta, headerID)
			continue
		}
		supplierKey := strconv.FormatInt(rec.SupplierCode, 10)
		supplierID, ok := suppliers.Lookup(supplierKey)
		if !ok {
			r.skip(ctx, PhasePurchases, KindPurchase, SkipUnresolvedReference, rec.Meta, "supplier not found", supplierKey)
			continue
		}
		date, due, reason, ok := r.headerDates(PhasePurchases, rec.Meta, rec.Date, rec.DueDate)
		if !ok {
			r.skip(ctx, PhasePurchases, KindPurchase, SkipInvalidDate, rec.Meta, reason, rec.Date.Raw)
			continue
		}
		currencyID, currency, ok := lookupCatalog(currencies, rec.Currency, r.opts.DefaultCurrency)
		if !ok {
			r.skip(ctx, PhasePurchases, KindPurchase, SkipUnresolvedReference, rec.Meta, "currency not found", currency)
			continue
		}

		in, err := trade.NewPurchase(headerID, supplierID, date)
		if err != nil {
			r.skip(ctx, PhasePurchases, KindPurchase, SkipInvalidRow, rec.Meta, err.Error(), headerID)
			continue
		}
		in.InvoiceNumber = strings.TrimSpace(rec.InvoiceNumber)
		in.CurrencyID = &currencyID
		in.DueDate = due
		in.Condition = trade.ParseCondition(rec.Condition)
		in.Total = amountOrZero(rec.Total)
		in.Balance = amountOrZero(rec.Balance)

		res, err := Resolve(ctx, r.resolver, Target[trade.Purchase]{
			Kind:       KindPurchase,
			NaturalKey: headerID,
			Incoming:   in,
			FindPrimary: func(ctx context.Context) (*trade.Purchase, error) {
				return repo.FindByHeaderID(ctx, headerID)
			},
			Merge: func(_ context.Context, existing, in *trade.Purchase) (bool, error) {
				if isBlank(rec.Condition) {
					in.Condition = ""
				}
				in.Total = keepAmount(rec.Total, existing.Total)
				in.Balance = keepAmount(rec.Balance, existing.Balance)
				return existing.Merge(in), nil
			},
			Create: repo.Create,
			Update: repo.Update,
		})
		if err != nil {
			return nil, err
		}
		r.record(ctx, PhasePurchases, KindPurchase, rec.Meta, res.Outcome, nil, "")
		if err := b.Put(headerID, res.Entity.ID); err != nil {
			return nil, err
		}
	}
	return b.Freeze(), nil
}

// lineNumbers hands out the ordinal of each detail row within its header,
// in sheet order.
type lineNumbers map[uuid.UUID]int

func (n lineNumbers) next(header uuid.UUID) int {
	n[header]++
	return n[header]
}

func (r *run) purchaseLines(ctx context.Context, recs []workbook.PurchaseLineRecord, purchases, products, warehouses *EntityMap) error {
	r.decodeErrors(ctx, PhasePurchaseLines, KindPurchaseLine)
	repo := r.repos.Purchases
	lines := lineNumbers{}

	for _, rec := range recs {
		headerID := strings.TrimSpace(rec.HeaderID)
		purchaseID, ok := purchases.Lookup(headerID)
		if !ok {
			r.skip(ctx, PhasePurchaseLines, KindPurchaseLine, SkipUnresolvedReference, rec.Meta, "purchase not found", headerID)
			continue
		}
		lineNo := lines.next(purchaseID)
		productID, ok := products.Lookup(rec.ProductCode)
		if !ok {
			r.skip(ctx, PhasePurchaseLines, KindPurchaseLine, SkipUnresolvedReference, rec.Meta, "product not found", rec.ProductCode)
			continue
		}
		warehouseID, warehouse, ok := lookupCatalog(warehouses, rec.Warehouse, r.opts.DefaultWarehouse)
		if !ok {
			r.skip(ctx, PhasePurchaseLines, KindPurchaseLine, SkipUnresolvedReference, rec.Meta, "warehouse not found", warehouse)
			continue
		}

		in := &trade.PurchaseLine{
			BaseEntity:  newBase(),
			PurchaseID:  purchaseID,
			LineNo:      lineNo,
			ProductID:   productID,
			WarehouseID: &warehouseID,
			Quantity:    amountOrZero(rec.Quantity),
			UnitCost:    amountOrZero(rec.UnitCost),
		}
		res, err := Resolve(ctx, r.resolver, Target[trade.PurchaseLine]{
			Kind:       KindPurchaseLine,
			NaturalKey: fmt.Sprintf("%s#%d", headerID, lineNo),
			Incoming:   in,
			FindPrimary: func(ctx context.Context) (*trade.PurchaseLine, error) {
				return repo.FindLine(ctx, purchaseID, lineNo)
			},
			Merge: func(_ context.Context, existing, in *trade.PurchaseLine) (bool, error) {
				in.UnitCost = keepAmount(rec.UnitCost, existing.UnitCost)
				return existing.Merge(in), nil
			},
			Create: repo.CreateLine,
			Update: repo.UpdateLine,
		})
		if err != nil {
			return err
		}
		r.record(ctx, PhasePurchaseLines, KindPurchaseLine, rec.Meta, res.Outcome, nil, "")
	}
	return nil
}

func (r *run) purchaseExpenses(ctx context.Context, recs []workbook.PurchaseExpenseRecord, purchases, expenseTypes *EntityMap) error {
	r.decodeErrors(ctx, PhasePurchaseExpenses, KindPurchaseExpense)
	repo := r.repos.Purchases
	lines := lineNumbers{}

	for _, rec := range recs {
		headerID := strings.TrimSpace(rec.HeaderID)
		purchaseID, ok := purchases.Lookup(headerID)
		if !ok {
			r.skip(ctx, PhasePurchaseExpenses, KindPurchaseExpense, SkipUnresolvedReference, rec.Meta, "purchase not found", headerID)
			continue
		}
		lineNo := lines.next(purchaseID)
		typeID, typeCode, ok := lookupCatalog(expenseTypes, rec.ExpenseType, "")
		if !ok {
			r.skip(ctx, PhasePurchaseExpenses, KindPurchaseExpense, SkipUnresolvedReference, rec.Meta, "expense type not found", typeCode)
			continue
		}

		in := &trade.PurchaseExpense{
			BaseEntity:    newBase(),
			PurchaseID:    purchaseID,
			LineNo:        lineNo,
			ExpenseTypeID: typeID,
			Description:   strings.TrimSpace(rec.Description),
			Amount:        amountOrZero(rec.Amount),
		}
		res, err := Resolve(ctx, r.resolver, Target[trade.PurchaseExpense]{
			Kind:       KindPurchaseExpense,
			NaturalKey: fmt.Sprintf("%s#%d", headerID, lineNo),
			Incoming:   in,
			FindPrimary: func(ctx context.Context) (*trade.PurchaseExpense, error) {
				return repo.FindExpense(ctx, purchaseID, lineNo)
			},
			Merge: func(_ context.Context, existing, in *trade.PurchaseExpense) (bool, error) {
				return existing.Merge(in), nil
			},
			Create: repo.CreateExpense,
			Update: repo.UpdateExpense,
		})
		if err != nil {
			return err
		}
		r.record(ctx, PhasePurchaseExpenses, KindPurchaseExpense, rec.Meta, res.Outcome, nil, "")
	}
	return nil
}

// sales loads sale headers. A sale whose customer is unknown gets a
// synthetic customer, so the customer map is extended and returned too.
func (r *run) sales(ctx context.Context, recs []workbook.SaleRecord, customers *EntityMap, cats catalogMaps) (*EntityMap, *EntityMap, error) {
	r.decodeErrors(ctx, PhaseSales, KindSale)
	b := NewMapBuilder(KindSale)
	known := Derive(customers)
	repo := r.repos.Sales

	for _, rec := range recs {
		invoice := strings.TrimSpace(rec.InvoiceNumber)
		if _, ok := b.Lookup(invoice); ok {
			r.duplicate(PhaseSales, KindSale, rec.Meta, invoice)
			continue
		}
		date, due, reason, ok := r.headerDates(PhaseSales, rec.Meta, rec.Date, rec.DueDate)
		if !ok {
			r.skip(ctx, PhaseSales, KindSale, SkipInvalidDate, rec.Meta, reason, rec.Date.Raw)
			continue
		}
		currencyID, currency, ok := lookupCatalog(cats.currencies, rec.Currency, r.opts.DefaultCurrency)
		if !ok {
			r.skip(ctx, PhaseSales, KindSale, SkipUnresolvedReference, rec.Meta, "currency not found", currency)
			continue
		}
		branchID, branch, ok := lookupCatalog(cats.branches, rec.Branch, r.opts.DefaultBranch)
		if !ok {
			r.skip(ctx, PhaseSales, KindSale, SkipUnresolvedReference, rec.Meta, "branch not found", branch)
			continue
		}

		customerCode := strings.TrimSpace(rec.CustomerCode)
		if customerCode == "" {
			customerCode = "S" + invoice
		}
		customerID, ok := known.Lookup(customerCode)
		if !ok {
			synthetic := partner.NewSyntheticCustomer(customerCode, rec.CustomerName, r.opts.Placeholders)
			res, err := r.resolveCustomer(ctx, PhaseSales, rec.Meta, synthetic)
			if err != nil {
				return nil, nil, err
			}
			if res.Outcome == OutcomeCreated {
				r.note(PhaseSales, rec.Meta, "synthetic_customer", "customer not in customer sheet, placeholder created", customerCode)
			}
			customerID = res.Entity.ID
			if err := known.Put(customerCode, customerID); err != nil {
				return nil, nil, err
			}
		}

		in, err := trade.NewSale(invoice, customerID, date)
		if err != nil {
			r.skip(ctx, PhaseSales, KindSale, SkipInvalidRow, rec.Meta, err.Error(), invoice)
			continue
		}
		in.BranchID = &branchID
		in.CurrencyID = &currencyID
		in.DueDate = due
		in.Condition = trade.ParseCondition(rec.Condition)
		in.Total = amountOrZero(rec.Total)
		in.Balance = amountOrZero(rec.Balance)

		res, err := Resolve(ctx, r.resolver, Target[trade.Sale]{
			Kind:       KindSale,
			NaturalKey: invoice,
			Incoming:   in,
			FindPrimary: func(ctx context.Context) (*trade.Sale, error) {
				return repo.FindByInvoiceNumber(ctx, invoice)
			},
			Merge: func(_ context.Context, existing, in *trade.Sale) (bool, error) {
				if isBlank(rec.Condition) {
					in.Condition = ""
				}
				in.Total = keepAmount(rec.Total, existing.Total)
				in.Balance = keepAmount(rec.Balance, existing.Balance)
				return existing.Merge(in), nil
			},
			Create: repo.Create,
			Update: repo.Update,
		})
		if err != nil {
			return nil, nil, err
		}
		r.record(ctx, PhaseSales, KindSale, rec.Meta, res.Outcome, nil, "")
		if err := b.Put(invoice, res.Entity.ID); err != nil {
			return nil, nil, err
		}
	}
	return b.Freeze(), known.Freeze(), nil
}

func (r *run) saleLines(ctx context.Context, recs []workbook.SaleLineRecord, sales, products, warehouses *EntityMap) error {
	r.decodeErrors(ctx, PhaseSaleLines, KindSaleLine)
	repo := r.repos.Sales
	lines := lineNumbers{}

	for _, rec := range recs {
		invoice := strings.TrimSpace(rec.InvoiceNumber)
		saleID, ok := sales.Lookup(invoice)
		if !ok {
			r.skip(ctx, PhaseSaleLines, KindSaleLine, SkipUnresolvedReference, rec.Meta, "sale not found", invoice)
			continue
		}
		lineNo := lines.next(saleID)
		productID, ok := products.Lookup(rec.ProductCode)
		if !ok {
			r.skip(ctx, PhaseSaleLines, KindSaleLine, SkipUnresolvedReference, rec.Meta, "product not found", rec.ProductCode)
			continue
		}
		warehouseID, warehouse, ok := lookupCatalog(warehouses, rec.Warehouse, r.opts.DefaultWarehouse)
		if !ok {
			r.skip(ctx, PhaseSaleLines, KindSaleLine, SkipUnresolvedReference, rec.Meta, "warehouse not found", warehouse)
			continue
		}

		in := &trade.SaleLine{
			BaseEntity:  newBase(),
			SaleID:      saleID,
			LineNo:      lineNo,
			ProductID:   productID,
			WarehouseID: &warehouseID,
			Quantity:    amountOrZero(rec.Quantity),
			UnitPrice:   amountOrZero(rec.UnitPrice),
			Discount:    amountOrZero(rec.Discount),
		}
		res, err := Resolve(ctx, r.resolver, Target[trade.SaleLine]{
			Kind:       KindSaleLine,
			NaturalKey: fmt.Sprintf("%s#%d", invoice, lineNo),
			Incoming:   in,
			FindPrimary: func(ctx context.Context) (*trade.SaleLine, error) {
				return repo.FindLine(ctx, saleID, lineNo)
			},
			Merge: func(_ context.Context, existing, in *trade.SaleLine) (bool, error) {
				in.UnitPrice = keepAmount(rec.UnitPrice, existing.UnitPrice)
				in.Discount = keepAmount(rec.Discount, existing.Discount)
				return existing.Merge(in), nil
			},
			Create: repo.CreateLine,
			Update: repo.UpdateLine,
		})
		if err != nil {
			return err
		}
		r.record(ctx, PhaseSaleLines, KindSaleLine, rec.Meta, res.Outcome, nil, "")
	}
	return nil
}
