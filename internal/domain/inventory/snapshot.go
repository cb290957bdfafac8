package inventory

import (
	"context"

	"github.com/erp/migrator/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot is the on-hand quantity of a product at a branch warehouse.
// (ProductID, BranchID, WarehouseID) is unique.
type Snapshot struct {
	shared.BaseEntity
	ProductID   uuid.UUID
	BranchID    uuid.UUID
	WarehouseID uuid.UUID
	Quantity    decimal.Decimal
}

// NewSnapshot creates a snapshot for the given triple
func NewSnapshot(productID, branchID, warehouseID uuid.UUID, quantity decimal.Decimal) (*Snapshot, error) {
	if productID == uuid.Nil || branchID == uuid.Nil || warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SNAPSHOT_KEY", "Snapshot requires product, branch and warehouse")
	}
	return &Snapshot{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		BranchID:    branchID,
		WarehouseID: warehouseID,
		Quantity:    quantity,
	}, nil
}

// SetQuantity overwrites the quantity. Snapshots never accumulate.
func (s *Snapshot) SetQuantity(q decimal.Decimal) bool {
	if s.Quantity.Equal(q) {
		return false
	}
	s.Quantity = q
	s.Touch()
	return true
}

// SnapshotRepository defines the interface for snapshot persistence
type SnapshotRepository interface {
	// Find finds the snapshot for a triple
	Find(ctx context.Context, productID, branchID, warehouseID uuid.UUID) (*Snapshot, error)

	Create(ctx context.Context, snapshot *Snapshot) error
	Update(ctx context.Context, snapshot *Snapshot) error
}
