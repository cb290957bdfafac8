package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/erp/migrator/internal/domain/trade"
	"github.com/erp/migrator/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	purchasesTable        = "purchases"
	purchaseLinesTable    = "purchase_lines"
	purchaseExpensesTable = "purchase_expenses"
	salesTable            = "sales"
	saleLinesTable        = "sale_lines"
)

const datedBeforeQuery = "date < ? OR (due_date IS NOT NULL AND due_date < ?)"

// GormPurchaseRepository implements trade.PurchaseRepository using GORM
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// FindByHeaderID finds a purchase by its source header id
func (r *GormPurchaseRepository) FindByHeaderID(ctx context.Context, headerID string) (*trade.Purchase, error) {
	m, err := findOne[models.PurchaseModel](ctx, r.db, "header_id = ?", strings.TrimSpace(headerID))
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindDatedBefore returns purchases whose date or due date is before t,
// ordered by header id
func (r *GormPurchaseRepository) FindDatedBefore(ctx context.Context, t time.Time) ([]*trade.Purchase, error) {
	var rows []models.PurchaseModel
	t = t.UTC()
	if err := r.db.WithContext(ctx).Where(datedBeforeQuery, t, t).Order("header_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*trade.Purchase, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a new purchase header
func (r *GormPurchaseRepository) Create(ctx context.Context, purchase *trade.Purchase) error {
	return insert(ctx, r.db, purchasesTable, models.PurchaseModelFromDomain(purchase))
}

// Update writes every mutable column of a purchase header
func (r *GormPurchaseRepository) Update(ctx context.Context, purchase *trade.Purchase) error {
	return save(ctx, r.db, purchasesTable, models.PurchaseModelFromDomain(purchase))
}

// FindLine finds a product line by its position within the purchase
func (r *GormPurchaseRepository) FindLine(ctx context.Context, purchaseID uuid.UUID, lineNo int) (*trade.PurchaseLine, error) {
	m, err := findOne[models.PurchaseLineModel](ctx, r.db, "purchase_id = ? AND line_no = ?", purchaseID, lineNo)
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *GormPurchaseRepository) CreateLine(ctx context.Context, line *trade.PurchaseLine) error {
	return insert(ctx, r.db, purchaseLinesTable, models.PurchaseLineModelFromDomain(line))
}

func (r *GormPurchaseRepository) UpdateLine(ctx context.Context, line *trade.PurchaseLine) error {
	return save(ctx, r.db, purchaseLinesTable, models.PurchaseLineModelFromDomain(line))
}

// FindExpense finds an expense line by its position within the purchase
func (r *GormPurchaseRepository) FindExpense(ctx context.Context, purchaseID uuid.UUID, lineNo int) (*trade.PurchaseExpense, error) {
	m, err := findOne[models.PurchaseExpenseModel](ctx, r.db, "purchase_id = ? AND line_no = ?", purchaseID, lineNo)
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *GormPurchaseRepository) CreateExpense(ctx context.Context, expense *trade.PurchaseExpense) error {
	return insert(ctx, r.db, purchaseExpensesTable, models.PurchaseExpenseModelFromDomain(expense))
}

func (r *GormPurchaseRepository) UpdateExpense(ctx context.Context, expense *trade.PurchaseExpense) error {
	return save(ctx, r.db, purchaseExpensesTable, models.PurchaseExpenseModelFromDomain(expense))
}

// GormSaleRepository implements trade.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByInvoiceNumber finds a sale by invoice number
func (r *GormSaleRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*trade.Sale, error) {
	m, err := findOne[models.SaleModel](ctx, r.db, "invoice_number = ?", strings.TrimSpace(invoiceNumber))
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindDatedBefore returns sales whose date or due date is before t, ordered
// by invoice number
func (r *GormSaleRepository) FindDatedBefore(ctx context.Context, t time.Time) ([]*trade.Sale, error) {
	var rows []models.SaleModel
	t = t.UTC()
	if err := r.db.WithContext(ctx).Where(datedBeforeQuery, t, t).Order("invoice_number").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*trade.Sale, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a new sale header
func (r *GormSaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	return insert(ctx, r.db, salesTable, models.SaleModelFromDomain(sale))
}

// Update writes every mutable column of a sale header
func (r *GormSaleRepository) Update(ctx context.Context, sale *trade.Sale) error {
	return save(ctx, r.db, salesTable, models.SaleModelFromDomain(sale))
}

// FindLine finds a product line by its position within the sale
func (r *GormSaleRepository) FindLine(ctx context.Context, saleID uuid.UUID, lineNo int) (*trade.SaleLine, error) {
	m, err := findOne[models.SaleLineModel](ctx, r.db, "sale_id = ? AND line_no = ?", saleID, lineNo)
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *GormSaleRepository) CreateLine(ctx context.Context, line *trade.SaleLine) error {
	return insert(ctx, r.db, saleLinesTable, models.SaleLineModelFromDomain(line))
}

func (r *GormSaleRepository) UpdateLine(ctx context.Context, line *trade.SaleLine) error {
	return save(ctx, r.db, saleLinesTable, models.SaleLineModelFromDomain(line))
}

var (
	_ trade.PurchaseRepository = (*GormPurchaseRepository)(nil)
	_ trade.SaleRepository     = (*GormSaleRepository)(nil)
)
