package models

import (
	"github.com/erp/migrator/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventorySnapshotModel is the on-hand quantity for one
// (product, branch, warehouse) triple.
type InventorySnapshotModel struct {
	BaseModel
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_inventory_snapshots_product_id,priority:1"`
	BranchID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_inventory_snapshots_product_id,priority:2"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_inventory_snapshots_product_id,priority:3"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (InventorySnapshotModel) TableName() string {
	return "inventory_snapshots"
}

// ToDomain converts the persistence model to a domain Snapshot.
func (m *InventorySnapshotModel) ToDomain() *inventory.Snapshot {
	return &inventory.Snapshot{
		BaseEntity:  m.BaseModel.ToDomain(),
		ProductID:   m.ProductID,
		BranchID:    m.BranchID,
		WarehouseID: m.WarehouseID,
		Quantity:    m.Quantity,
	}
}

// InventorySnapshotModelFromDomain creates a new persistence model from a domain Snapshot.
func InventorySnapshotModelFromDomain(s *inventory.Snapshot) *InventorySnapshotModel {
	m := &InventorySnapshotModel{
		ProductID:   s.ProductID,
		BranchID:    s.BranchID,
		WarehouseID: s.WarehouseID,
		Quantity:    s.Quantity,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
