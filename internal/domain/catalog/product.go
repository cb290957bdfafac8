package catalog

import (
	"strings"

	"github.com/erp/migrator/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is an item from the products sheet. Code is the natural key and
// Barcode a secondary unique key.
type Product struct {
	shared.BaseEntity
	Code      string
	Barcode   *string
	Name      string
	Unit      string
	CostPrice *decimal.Decimal
	SalePrice *decimal.Decimal
	TaxRate   *decimal.Decimal
}

// NewProduct creates a new product with required fields
func NewProduct(code, name string) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = code
	}
	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
	}, nil
}

// SetBarcode assigns a trimmed barcode; blank clears it
func (p *Product) SetBarcode(barcode string) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		p.Barcode = nil
		return
	}
	p.Barcode = &barcode
}

// BarcodeValue returns the barcode or an empty string
func (p *Product) BarcodeValue() string {
	if p.Barcode == nil {
		return ""
	}
	return *p.Barcode
}

// Merge refreshes mutable fields. The barcode is only merged when
// barcodeFree is true; callers establish that the incoming barcode does not
// belong to a different product before calling.
func (p *Product) Merge(in *Product, barcodeFree bool) bool {
	changed := shared.MergeString(&p.Name, in.Name)
	if barcodeFree {
		changed = shared.MergeStringPtr(&p.Barcode, in.Barcode) || changed
	}
	changed = shared.MergeString(&p.Unit, in.Unit) || changed
	changed = shared.MergeDecimal(&p.CostPrice, in.CostPrice) || changed
	changed = shared.MergeDecimal(&p.SalePrice, in.SalePrice) || changed
	changed = shared.MergeDecimal(&p.TaxRate, in.TaxRate) || changed
	if changed {
		p.Touch()
	}
	return changed
}
