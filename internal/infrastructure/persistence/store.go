package persistence

import (
	"gorm.io/gorm"
)

// Store bundles the repositories of the target store over one connection
type Store struct {
	Entries   *GormEntryRepository
	Suppliers *GormSupplierRepository
	Customers *GormCustomerRepository
	Products  *GormProductRepository
	Purchases *GormPurchaseRepository
	Sales     *GormSaleRepository
	Snapshots *GormSnapshotRepository
	Audit     *GormAuditRepository
}

// NewStore builds every repository over db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		Entries:   NewGormEntryRepository(db),
		Suppliers: NewGormSupplierRepository(db),
		Customers: NewGormCustomerRepository(db),
		Products:  NewGormProductRepository(db),
		Purchases: NewGormPurchaseRepository(db),
		Sales:     NewGormSaleRepository(db),
		Snapshots: NewGormSnapshotRepository(db),
		Audit:     NewGormAuditRepository(db),
	}
}
