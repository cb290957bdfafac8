package models

import (
	"github.com/erp/migrator/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CatalogEntryModel stores every small reference table (currencies,
// branches, warehouses, price lists, expense types) keyed by (kind, code).
type CatalogEntryModel struct {
	BaseModel
	Kind catalog.Kind `gorm:"type:varchar(20);not null;uniqueIndex:uq_catalog_entries_code,priority:1"`
	Code string       `gorm:"type:varchar(50);not null;uniqueIndex:uq_catalog_entries_code,priority:2"`
	Name string       `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (CatalogEntryModel) TableName() string {
	return "catalog_entries"
}

// ToDomain converts the persistence model to a domain Entry.
func (m *CatalogEntryModel) ToDomain() *catalog.Entry {
	return &catalog.Entry{
		BaseEntity: m.BaseModel.ToDomain(),
		Kind:       m.Kind,
		Code:       m.Code,
		Name:       m.Name,
	}
}

// CatalogEntryModelFromDomain creates a new persistence model from a domain Entry.
func CatalogEntryModelFromDomain(e *catalog.Entry) *CatalogEntryModel {
	m := &CatalogEntryModel{Kind: e.Kind, Code: e.Code, Name: e.Name}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	BaseModel
	Code      string           `gorm:"type:varchar(50);not null;uniqueIndex:uq_products_code"`
	Barcode   *string          `gorm:"type:varchar(64);uniqueIndex:uq_products_barcode"`
	Name      string           `gorm:"type:varchar(200);not null"`
	Unit      string           `gorm:"type:varchar(20)"`
	CostPrice *decimal.Decimal `gorm:"type:decimal(18,4)"`
	SalePrice *decimal.Decimal `gorm:"type:decimal(18,4)"`
	TaxRate   *decimal.Decimal `gorm:"type:decimal(6,2)"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity: m.BaseModel.ToDomain(),
		Code:       m.Code,
		Barcode:    m.Barcode,
		Name:       m.Name,
		Unit:       m.Unit,
		CostPrice:  m.CostPrice,
		SalePrice:  m.SalePrice,
		TaxRate:    m.TaxRate,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Code = p.Code
	m.Barcode = p.Barcode
	m.Name = p.Name
	m.Unit = p.Unit
	m.CostPrice = p.CostPrice
	m.SalePrice = p.SalePrice
	m.TaxRate = p.TaxRate
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
