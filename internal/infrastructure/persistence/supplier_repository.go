package persistence

import (
	"context"
	"strings"

	"github.com/erp/migrator/internal/domain/partner"
	"github.com/erp/migrator/internal/domain/shared"
	"github.com/erp/migrator/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const suppliersTable = "suppliers"

// GormSupplierRepository implements partner.SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByCode finds a supplier by its source code
func (r *GormSupplierRepository) FindByCode(ctx context.Context, code int64) (*partner.Supplier, error) {
	m, err := findOne[models.SupplierModel](ctx, r.db, "code = ?", code)
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByTaxID finds a supplier by tax id
func (r *GormSupplierRepository) FindByTaxID(ctx context.Context, taxID string) (*partner.Supplier, error) {
	taxID = strings.TrimSpace(taxID)
	if taxID == "" {
		return nil, shared.ErrNotFound
	}
	m, err := findOne[models.SupplierModel](ctx, r.db, "tax_id = ?", taxID)
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// Create inserts a new supplier
func (r *GormSupplierRepository) Create(ctx context.Context, supplier *partner.Supplier) error {
	return insert(ctx, r.db, suppliersTable, models.SupplierModelFromDomain(supplier))
}

// Update writes the mutable fields of an existing supplier
func (r *GormSupplierRepository) Update(ctx context.Context, supplier *partner.Supplier) error {
	return save(ctx, r.db, suppliersTable, models.SupplierModelFromDomain(supplier))
}

// Ensure GormSupplierRepository implements partner.SupplierRepository
var _ partner.SupplierRepository = (*GormSupplierRepository)(nil)
