package models

import (
	"github.com/erp/migrator/internal/domain/partner"
	"github.com/erp/migrator/internal/domain/shared"
	"github.com/google/uuid"
)

// SupplierModel is the persistence model for the Supplier domain entity.
type SupplierModel struct {
	BaseModel
	Code       int64             `gorm:"not null;uniqueIndex:uq_suppliers_code"`
	Name       string            `gorm:"type:varchar(200);not null"`
	TaxID      string            `gorm:"type:varchar(50);not null;uniqueIndex:uq_suppliers_tax_id"`
	Phone      string            `gorm:"type:varchar(50)"`
	Email      string            `gorm:"type:varchar(200)"`
	Address    string            `gorm:"type:text"`
	Provenance shared.Provenance `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier entity.
func (m *SupplierModel) ToDomain() *partner.Supplier {
	return &partner.Supplier{
		BaseEntity: m.BaseModel.ToDomain(),
		Code:       m.Code,
		Name:       m.Name,
		TaxID:      m.TaxID,
		Phone:      m.Phone,
		Email:      m.Email,
		Address:    m.Address,
		Provenance: m.Provenance,
	}
}

// FromDomain populates the persistence model from a domain Supplier entity.
func (m *SupplierModel) FromDomain(s *partner.Supplier) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.Code = s.Code
	m.Name = s.Name
	m.TaxID = s.TaxID
	m.Phone = s.Phone
	m.Email = s.Email
	m.Address = s.Address
	m.Provenance = s.Provenance
}

// SupplierModelFromDomain creates a new persistence model from a domain Supplier entity.
func SupplierModelFromDomain(s *partner.Supplier) *SupplierModel {
	m := &SupplierModel{}
	m.FromDomain(s)
	return m
}

// CustomerModel is the persistence model for the Customer domain entity.
// Cedula is nullable; the unique index only applies to present values.
type CustomerModel struct {
	BaseModel
	Code        string            `gorm:"type:varchar(50);not null;uniqueIndex:uq_customers_code"`
	Name        string            `gorm:"type:varchar(200);not null"`
	Cedula      *string           `gorm:"type:varchar(50);uniqueIndex:uq_customers_cedula"`
	Phone       string            `gorm:"type:varchar(50)"`
	Email       string            `gorm:"type:varchar(200)"`
	Address     string            `gorm:"type:text"`
	PriceListID *uuid.UUID        `gorm:"type:uuid;index"`
	Provenance  shared.Provenance `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseEntity:  m.BaseModel.ToDomain(),
		Code:        m.Code,
		Name:        m.Name,
		Cedula:      m.Cedula,
		Phone:       m.Phone,
		Email:       m.Email,
		Address:     m.Address,
		PriceListID: m.PriceListID,
		Provenance:  m.Provenance,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Code = c.Code
	m.Name = c.Name
	m.Cedula = c.Cedula
	m.Phone = c.Phone
	m.Email = c.Email
	m.Address = c.Address
	m.PriceListID = c.PriceListID
	m.Provenance = c.Provenance
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
