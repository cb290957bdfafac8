package models

import (
	"time"

	"github.com/erp/migrator/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseModel is the persistence model for a purchase header.
type PurchaseModel struct {
	BaseModel
	HeaderID      string          `gorm:"type:varchar(50);not null;uniqueIndex:uq_purchases_header_id"`
	InvoiceNumber string          `gorm:"type:varchar(50)"`
	SupplierID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CurrencyID    *uuid.UUID      `gorm:"type:uuid"`
	Date          time.Time       `gorm:"not null;index"`
	DueDate       *time.Time      `gorm:"index"`
	Condition     trade.Condition `gorm:"type:varchar(20);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Balance       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PurchaseModel) TableName() string {
	return "purchases"
}

// ToDomain converts the persistence model to a domain Purchase.
func (m *PurchaseModel) ToDomain() *trade.Purchase {
	return &trade.Purchase{
		BaseEntity:    m.BaseModel.ToDomain(),
		HeaderID:      m.HeaderID,
		InvoiceNumber: m.InvoiceNumber,
		SupplierID:    m.SupplierID,
		CurrencyID:    m.CurrencyID,
		Date:          m.Date.UTC(),
		DueDate:       utcPtr(m.DueDate),
		Condition:     m.Condition,
		Total:         m.Total,
		Balance:       m.Balance,
	}
}

// PurchaseModelFromDomain creates a new persistence model from a domain Purchase.
func PurchaseModelFromDomain(p *trade.Purchase) *PurchaseModel {
	m := &PurchaseModel{
		HeaderID:      p.HeaderID,
		InvoiceNumber: p.InvoiceNumber,
		SupplierID:    p.SupplierID,
		CurrencyID:    p.CurrencyID,
		Date:          p.Date.UTC(),
		DueDate:       utcPtr(p.DueDate),
		Condition:     p.Condition,
		Total:         p.Total,
		Balance:       p.Balance,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// PurchaseLineModel is a product line of a purchase.
type PurchaseLineModel struct {
	BaseModel
	PurchaseID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_purchase_lines_line_no,priority:1"`
	LineNo      int             `gorm:"not null;uniqueIndex:uq_purchase_lines_line_no,priority:2"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID *uuid.UUID      `gorm:"type:uuid"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PurchaseLineModel) TableName() string {
	return "purchase_lines"
}

// ToDomain converts the persistence model to a domain PurchaseLine.
func (m *PurchaseLineModel) ToDomain() *trade.PurchaseLine {
	return &trade.PurchaseLine{
		BaseEntity:  m.BaseModel.ToDomain(),
		PurchaseID:  m.PurchaseID,
		LineNo:      m.LineNo,
		ProductID:   m.ProductID,
		WarehouseID: m.WarehouseID,
		Quantity:    m.Quantity,
		UnitCost:    m.UnitCost,
	}
}

// PurchaseLineModelFromDomain creates a new persistence model from a domain PurchaseLine.
func PurchaseLineModelFromDomain(l *trade.PurchaseLine) *PurchaseLineModel {
	m := &PurchaseLineModel{
		PurchaseID:  l.PurchaseID,
		LineNo:      l.LineNo,
		ProductID:   l.ProductID,
		WarehouseID: l.WarehouseID,
		Quantity:    l.Quantity,
		UnitCost:    l.UnitCost,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}

// PurchaseExpenseModel is an additional cost line of a purchase.
type PurchaseExpenseModel struct {
	BaseModel
	PurchaseID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_purchase_expenses_line_no,priority:1"`
	LineNo        int             `gorm:"not null;uniqueIndex:uq_purchase_expenses_line_no,priority:2"`
	ExpenseTypeID uuid.UUID       `gorm:"type:uuid;not null"`
	Description   string          `gorm:"type:text"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PurchaseExpenseModel) TableName() string {
	return "purchase_expenses"
}

// ToDomain converts the persistence model to a domain PurchaseExpense.
func (m *PurchaseExpenseModel) ToDomain() *trade.PurchaseExpense {
	return &trade.PurchaseExpense{
		BaseEntity:    m.BaseModel.ToDomain(),
		PurchaseID:    m.PurchaseID,
		LineNo:        m.LineNo,
		ExpenseTypeID: m.ExpenseTypeID,
		Description:   m.Description,
		Amount:        m.Amount,
	}
}

// PurchaseExpenseModelFromDomain creates a new persistence model from a domain PurchaseExpense.
func PurchaseExpenseModelFromDomain(e *trade.PurchaseExpense) *PurchaseExpenseModel {
	m := &PurchaseExpenseModel{
		PurchaseID:    e.PurchaseID,
		LineNo:        e.LineNo,
		ExpenseTypeID: e.ExpenseTypeID,
		Description:   e.Description,
		Amount:        e.Amount,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}

// SaleModel is the persistence model for a sale header.
type SaleModel struct {
	BaseModel
	InvoiceNumber string          `gorm:"type:varchar(50);not null;uniqueIndex:uq_sales_invoice_number"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	BranchID      *uuid.UUID      `gorm:"type:uuid"`
	CurrencyID    *uuid.UUID      `gorm:"type:uuid"`
	Date          time.Time       `gorm:"not null;index"`
	DueDate       *time.Time      `gorm:"index"`
	Condition     trade.Condition `gorm:"type:varchar(20);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Balance       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() *trade.Sale {
	return &trade.Sale{
		BaseEntity:    m.BaseModel.ToDomain(),
		InvoiceNumber: m.InvoiceNumber,
		CustomerID:    m.CustomerID,
		BranchID:      m.BranchID,
		CurrencyID:    m.CurrencyID,
		Date:          m.Date.UTC(),
		DueDate:       utcPtr(m.DueDate),
		Condition:     m.Condition,
		Total:         m.Total,
		Balance:       m.Balance,
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{
		InvoiceNumber: s.InvoiceNumber,
		CustomerID:    s.CustomerID,
		BranchID:      s.BranchID,
		CurrencyID:    s.CurrencyID,
		Date:          s.Date.UTC(),
		DueDate:       utcPtr(s.DueDate),
		Condition:     s.Condition,
		Total:         s.Total,
		Balance:       s.Balance,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

// SaleLineModel is a product line of a sale.
type SaleLineModel struct {
	BaseModel
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_sale_lines_line_no,priority:1"`
	LineNo      int             `gorm:"not null;uniqueIndex:uq_sale_lines_line_no,priority:2"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID *uuid.UUID      `gorm:"type:uuid"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SaleLineModel) TableName() string {
	return "sale_lines"
}

// ToDomain converts the persistence model to a domain SaleLine.
func (m *SaleLineModel) ToDomain() *trade.SaleLine {
	return &trade.SaleLine{
		BaseEntity:  m.BaseModel.ToDomain(),
		SaleID:      m.SaleID,
		LineNo:      m.LineNo,
		ProductID:   m.ProductID,
		WarehouseID: m.WarehouseID,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Discount:    m.Discount,
	}
}

// SaleLineModelFromDomain creates a new persistence model from a domain SaleLine.
func SaleLineModelFromDomain(l *trade.SaleLine) *SaleLineModel {
	m := &SaleLineModel{
		SaleID:      l.SaleID,
		LineNo:      l.LineNo,
		ProductID:   l.ProductID,
		WarehouseID: l.WarehouseID,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		Discount:    l.Discount,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}
