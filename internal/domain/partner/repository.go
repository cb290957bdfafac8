package partner

import (
	"context"
)

// SupplierRepository defines the interface for supplier persistence.
// Lookups return shared.ErrNotFound on a miss; Create returns a
// *shared.UniqueViolationError when a unique column collides.
type SupplierRepository interface {
	// FindByCode finds a supplier by its source code
	FindByCode(ctx context.Context, code int64) (*Supplier, error)

	// FindByTaxID finds a supplier by tax id (RUC)
	FindByTaxID(ctx context.Context, taxID string) (*Supplier, error)

	// Create inserts a new supplier
	Create(ctx context.Context, supplier *Supplier) error

	// Update writes the mutable fields of an existing supplier
	Update(ctx context.Context, supplier *Supplier) error
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByCode finds a customer by its source code
	FindByCode(ctx context.Context, code string) (*Customer, error)

	// FindByCedula finds a customer by identity document
	FindByCedula(ctx context.Context, cedula string) (*Customer, error)

	// FindMarkerCandidates returns customers that look synthetic, either by
	// provenance or by a placeholder cedula
	FindMarkerCandidates(ctx context.Context) ([]*Customer, error)

	// Create inserts a new customer
	Create(ctx context.Context, customer *Customer) error

	// Update writes the mutable fields of an existing customer
	Update(ctx context.Context, customer *Customer) error
}
