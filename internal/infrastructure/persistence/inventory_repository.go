package persistence

import (
	"context"

	"github.com/erp/migrator/internal/domain/inventory"
	"github.com/erp/migrator/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const inventorySnapshotsTable = "inventory_snapshots"

// GormSnapshotRepository implements inventory.SnapshotRepository using GORM
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository creates a new GormSnapshotRepository
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// Find finds the snapshot for a (product, branch, warehouse) triple
func (r *GormSnapshotRepository) Find(ctx context.Context, productID, branchID, warehouseID uuid.UUID) (*inventory.Snapshot, error) {
	m, err := findOne[models.InventorySnapshotModel](ctx, r.db,
		"product_id = ? AND branch_id = ? AND warehouse_id = ?", productID, branchID, warehouseID)
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// Create inserts a new snapshot
func (r *GormSnapshotRepository) Create(ctx context.Context, snapshot *inventory.Snapshot) error {
	return insert(ctx, r.db, inventorySnapshotsTable, models.InventorySnapshotModelFromDomain(snapshot))
}

// Update overwrites the quantity of an existing snapshot
func (r *GormSnapshotRepository) Update(ctx context.Context, snapshot *inventory.Snapshot) error {
	return save(ctx, r.db, inventorySnapshotsTable, models.InventorySnapshotModelFromDomain(snapshot))
}

var _ inventory.SnapshotRepository = (*GormSnapshotRepository)(nil)
