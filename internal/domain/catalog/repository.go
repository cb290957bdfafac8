package catalog

import (
	"context"
)

// EntryRepository defines the interface for reference table persistence
type EntryRepository interface {
	// FindByCode finds an entry by kind and code
	FindByCode(ctx context.Context, kind Kind, code string) (*Entry, error)

	// Create inserts a new entry
	Create(ctx context.Context, entry *Entry) error

	// Update writes the mutable fields of an existing entry
	Update(ctx context.Context, entry *Entry) error
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByCode finds a product by its source code
	FindByCode(ctx context.Context, code string) (*Product, error)

	// FindByBarcode finds a product by barcode
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)

	// Create inserts a new product
	Create(ctx context.Context, product *Product) error

	// Update writes the mutable fields of an existing product
	Update(ctx context.Context, product *Product) error
}
