package trade

import (
	"strings"
	"time"

	"github.com/erp/migrator/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Condition is the payment condition of an invoice
type Condition string

const (
	ConditionCash   Condition = "CONTADO"
	ConditionCredit Condition = "CREDITO"
)

// ParseCondition maps sheet text to a Condition. Anything that is not
// recognizably credit is cash.
func ParseCondition(s string) Condition {
	s = strings.ToUpper(strings.TrimSpace(s))
	if strings.HasPrefix(s, "CR") {
		return ConditionCredit
	}
	return ConditionCash
}

// Purchase is a purchase invoice header keyed by the source header id
type Purchase struct {
	shared.BaseEntity
	HeaderID      string
	InvoiceNumber string
	SupplierID    uuid.UUID
	CurrencyID    *uuid.UUID
	Date          time.Time
	DueDate       *time.Time
	Condition     Condition
	Total         decimal.Decimal
	Balance       decimal.Decimal
}

// NewPurchase creates a purchase header
func NewPurchase(headerID string, supplierID uuid.UUID, date time.Time) (*Purchase, error) {
	headerID = strings.TrimSpace(headerID)
	if headerID == "" {
		return nil, shared.NewDomainError("INVALID_HEADER_ID", "Purchase header id cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Purchase requires a supplier")
	}
	return &Purchase{
		BaseEntity: shared.NewBaseEntity(),
		HeaderID:   headerID,
		SupplierID: supplierID,
		Date:       date.UTC(),
		Condition:  ConditionCash,
		Total:      decimal.Zero,
		Balance:    decimal.Zero,
	}, nil
}

// Merge refreshes the header from a re-read source row
func (p *Purchase) Merge(in *Purchase) bool {
	changed := shared.MergeString(&p.InvoiceNumber, in.InvoiceNumber)
	if in.SupplierID != uuid.Nil && in.SupplierID != p.SupplierID {
		p.SupplierID = in.SupplierID
		changed = true
	}
	changed = shared.MergeUUID(&p.CurrencyID, in.CurrencyID) || changed
	if !in.Date.IsZero() && !in.Date.Equal(p.Date) {
		p.Date = in.Date.UTC()
		changed = true
	}
	changed = shared.MergeTime(&p.DueDate, in.DueDate) || changed
	if in.Condition != "" && in.Condition != p.Condition {
		p.Condition = in.Condition
		changed = true
	}
	changed = shared.MergeAmount(&p.Total, &in.Total) || changed
	changed = shared.MergeAmount(&p.Balance, &in.Balance) || changed
	if changed {
		p.Touch()
	}
	return changed
}

// SetDates overwrites the dates during post-migration correction
func (p *Purchase) SetDates(date time.Time, due *time.Time) {
	p.Date = date.UTC()
	if due != nil {
		d := due.UTC()
		p.DueDate = &d
	}
	p.Touch()
}

// PurchaseLine is a product line of a purchase, keyed by (PurchaseID, LineNo)
type PurchaseLine struct {
	shared.BaseEntity
	PurchaseID  uuid.UUID
	LineNo      int
	ProductID   uuid.UUID
	WarehouseID *uuid.UUID
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
}

// Subtotal returns quantity times unit cost
func (l *PurchaseLine) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// Merge overwrites the line with the re-read source values
func (l *PurchaseLine) Merge(in *PurchaseLine) bool {
	changed := false
	if in.ProductID != uuid.Nil && in.ProductID != l.ProductID {
		l.ProductID = in.ProductID
		changed = true
	}
	changed = shared.MergeUUID(&l.WarehouseID, in.WarehouseID) || changed
	changed = shared.MergeAmount(&l.Quantity, &in.Quantity) || changed
	changed = shared.MergeAmount(&l.UnitCost, &in.UnitCost) || changed
	if changed {
		l.Touch()
	}
	return changed
}

// PurchaseExpense is an additional cost attached to a purchase, keyed by
// (PurchaseID, LineNo)
type PurchaseExpense struct {
	shared.BaseEntity
	PurchaseID    uuid.UUID
	LineNo        int
	ExpenseTypeID uuid.UUID
	Description   string
	Amount        decimal.Decimal
}

// Merge overwrites the expense with the re-read source values
func (e *PurchaseExpense) Merge(in *PurchaseExpense) bool {
	changed := false
	if in.ExpenseTypeID != uuid.Nil && in.ExpenseTypeID != e.ExpenseTypeID {
		e.ExpenseTypeID = in.ExpenseTypeID
		changed = true
	}
	changed = shared.MergeString(&e.Description, in.Description) || changed
	changed = shared.MergeAmount(&e.Amount, &in.Amount) || changed
	if changed {
		e.Touch()
	}
	return changed
}
