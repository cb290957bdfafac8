package persistence

import (
	"context"
	"strings"

	"github.com/erp/migrator/internal/domain/catalog"
	"github.com/erp/migrator/internal/domain/shared"
	"github.com/erp/migrator/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const (
	productsTable       = "products"
	catalogEntriesTable = "catalog_entries"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByCode finds a product by its source code
func (r *GormProductRepository) FindByCode(ctx context.Context, code string) (*catalog.Product, error) {
	m, err := findOne[models.ProductModel](ctx, r.db, "code = ?", strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByBarcode finds a product by barcode
func (r *GormProductRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, shared.ErrNotFound
	}
	m, err := findOne[models.ProductModel](ctx, r.db, "barcode = ?", barcode)
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	return insert(ctx, r.db, productsTable, models.ProductModelFromDomain(product))
}

// Update writes the mutable fields of an existing product
func (r *GormProductRepository) Update(ctx context.Context, product *catalog.Product) error {
	return save(ctx, r.db, productsTable, models.ProductModelFromDomain(product))
}

// GormEntryRepository implements catalog.EntryRepository using GORM
type GormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository creates a new GormEntryRepository
func NewGormEntryRepository(db *gorm.DB) *GormEntryRepository {
	return &GormEntryRepository{db: db}
}

// FindByCode finds an entry by kind and normalized code
func (r *GormEntryRepository) FindByCode(ctx context.Context, kind catalog.Kind, code string) (*catalog.Entry, error) {
	m, err := findOne[models.CatalogEntryModel](ctx, r.db, "kind = ? AND code = ?", kind, catalog.NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// Create inserts a new entry
func (r *GormEntryRepository) Create(ctx context.Context, entry *catalog.Entry) error {
	return insert(ctx, r.db, catalogEntriesTable, models.CatalogEntryModelFromDomain(entry))
}

// Update writes the mutable fields of an existing entry
func (r *GormEntryRepository) Update(ctx context.Context, entry *catalog.Entry) error {
	return save(ctx, r.db, catalogEntriesTable, models.CatalogEntryModelFromDomain(entry))
}

var (
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
	_ catalog.EntryRepository   = (*GormEntryRepository)(nil)
)
