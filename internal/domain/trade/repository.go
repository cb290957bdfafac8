package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PurchaseRepository defines the interface for purchase persistence
type PurchaseRepository interface {
	// FindByHeaderID finds a purchase by its source header id
	FindByHeaderID(ctx context.Context, headerID string) (*Purchase, error)

	// FindDatedBefore returns purchases whose date or due date is before t
	FindDatedBefore(ctx context.Context, t time.Time) ([]*Purchase, error)

	Create(ctx context.Context, purchase *Purchase) error
	Update(ctx context.Context, purchase *Purchase) error

	// FindLine finds a product line by its position within the purchase
	FindLine(ctx context.Context, purchaseID uuid.UUID, lineNo int) (*PurchaseLine, error)
	CreateLine(ctx context.Context, line *PurchaseLine) error
	UpdateLine(ctx context.Context, line *PurchaseLine) error

	// FindExpense finds an expense line by its position within the purchase
	FindExpense(ctx context.Context, purchaseID uuid.UUID, lineNo int) (*PurchaseExpense, error)
	CreateExpense(ctx context.Context, expense *PurchaseExpense) error
	UpdateExpense(ctx context.Context, expense *PurchaseExpense) error
}

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByInvoiceNumber finds a sale by invoice number
	FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*Sale, error)

	// FindDatedBefore returns sales whose date or due date is before t
	FindDatedBefore(ctx context.Context, t time.Time) ([]*Sale, error)

	Create(ctx context.Context, sale *Sale) error
	Update(ctx context.Context, sale *Sale) error

	// FindLine finds a product line by its position within the sale
	FindLine(ctx context.Context, saleID uuid.UUID, lineNo int) (*SaleLine, error)
	CreateLine(ctx context.Context, line *SaleLine) error
	UpdateLine(ctx context.Context, line *SaleLine) error
}
