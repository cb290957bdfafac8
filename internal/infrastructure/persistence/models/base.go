package models

import (
	"time"

	"github.com/erp/migrator/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt.UTC()
	m.UpdatedAt = e.UpdatedAt.UTC()
}

// All returns one value of every model, in dependency order. Tests hand it to
// AutoMigrate; production schemas come from the SQL migrations.
func All() []any {
	return []any{
		&CatalogEntryModel{},
		&SupplierModel{},
		&CustomerModel{},
		&ProductModel{},
		&PurchaseModel{},
		&PurchaseLineModel{},
		&PurchaseExpenseModel{},
		&SaleModel{},
		&SaleLineModel{},
		&InventorySnapshotModel{},
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
