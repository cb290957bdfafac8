package trade

import (
	"strings"
	"time"

	"github.com/erp/migrator/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a sales invoice header keyed by invoice number
type Sale struct {
	shared.BaseEntity
	InvoiceNumber string
	CustomerID    uuid.UUID
	BranchID      *uuid.UUID
	CurrencyID    *uuid.UUID
	Date          time.Time
	DueDate       *time.Time
	Condition     Condition
	Total         decimal.Decimal
	Balance       decimal.Decimal
}

// NewSale creates a sale header
func NewSale(invoiceNumber string, customerID uuid.UUID, date time.Time) (*Sale, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Sale requires a customer")
	}
	return &Sale{
		BaseEntity:    shared.NewBaseEntity(),
		InvoiceNumber: invoiceNumber,
		CustomerID:    customerID,
		Date:          date.UTC(),
		Condition:     ConditionCash,
		Total:         decimal.Zero,
		Balance:       decimal.Zero,
	}, nil
}

// Merge refreshes the header from a re-read source row
func (s *Sale) Merge(in *Sale) bool {
	changed := false
	if in.CustomerID != uuid.Nil && in.CustomerID != s.CustomerID {
		s.CustomerID = in.CustomerID
		changed = true
	}
	changed = shared.MergeUUID(&s.BranchID, in.BranchID) || changed
	changed = shared.MergeUUID(&s.CurrencyID, in.CurrencyID) || changed
	if !in.Date.IsZero() && !in.Date.Equal(s.Date) {
		s.Date = in.Date.UTC()
		changed = true
	}
	changed = shared.MergeTime(&s.DueDate, in.DueDate) || changed
	if in.Condition != "" && in.Condition != s.Condition {
		s.Condition = in.Condition
		changed = true
	}
	changed = shared.MergeAmount(&s.Total, &in.Total) || changed
	changed = shared.MergeAmount(&s.Balance, &in.Balance) || changed
	if changed {
		s.Touch()
	}
	return changed
}

// SetDates overwrites the dates during post-migration correction
func (s *Sale) SetDates(date time.Time, due *time.Time) {
	s.Date = date.UTC()
	if due != nil {
		d := due.UTC()
		s.DueDate = &d
	}
	s.Touch()
}

// SaleLine is a product line of a sale, keyed by (SaleID, LineNo)
type SaleLine struct {
	shared.BaseEntity
	SaleID      uuid.UUID
	LineNo      int
	ProductID   uuid.UUID
	WarehouseID *uuid.UUID
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
}

// Subtotal returns quantity times unit price less discount
func (l *SaleLine) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Sub(l.Discount)
}

// Merge overwrites the line with the re-read source values
func (l *SaleLine) Merge(in *SaleLine) bool {
	changed := false
	if in.ProductID != uuid.Nil && in.ProductID != l.ProductID {
		l.ProductID = in.ProductID
		changed = true
	}
	changed = shared.MergeUUID(&l.WarehouseID, in.WarehouseID) || changed
	changed = shared.MergeAmount(&l.Quantity, &in.Quantity) || changed
	changed = shared.MergeAmount(&l.UnitPrice, &in.UnitPrice) || changed
	changed = shared.MergeAmount(&l.Discount, &in.Discount) || changed
	if changed {
		l.Touch()
	}
	return changed
}
