package partner

import (
	"strings"

	"github.com/erp/migrator/internal/domain/shared"
	"github.com/google/uuid"
)

// Customer is a buyer from the sales workbook. Cedula is the optional
// identity document and is unique when present.
type Customer struct {
	shared.BaseEntity
	Code        string
	Name        string
	Cedula      *string
	Phone       string
	Email       string
	Address     string
	PriceListID *uuid.UUID
	Provenance  shared.Provenance
}

// NewCustomer creates a new authoritative customer
func NewCustomer(code, name string) (*Customer, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Customer code cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
		Provenance: shared.ProvenanceAuthoritative,
	}, nil
}

// IsSynthetic reports whether the record was created to satisfy a reference
func (c *Customer) IsSynthetic() bool {
	return c.Provenance == shared.ProvenanceSynthetic ||
		(c.Cedula != nil && IsSyntheticKey(*c.Cedula))
}

// Merge refreshes mutable fields from an incoming row. A row from the
// customer sheet is a correction of a customer the sales phase synthesized:
// the record becomes authoritative and loses its marker. Records that stay
// synthetic (placeholder cedula) keep the marker on their new name.
func (c *Customer) Merge(in *Customer) bool {
	if in.Provenance == shared.ProvenanceSynthetic {
		// placeholders never refresh an existing record
		return false
	}
	changed := false
	if c.Provenance == shared.ProvenanceSynthetic && strings.TrimSpace(in.Name) != "" {
		c.Provenance = shared.ProvenanceAuthoritative
		changed = true
		if c.Cedula != nil && IsSyntheticKey(*c.Cedula) && in.Cedula == nil {
			c.Cedula = nil
		}
		c.Name = strings.TrimPrefix(c.Name, SyntheticNamePrefix)
	}
	if in.Cedula != nil && !IsSyntheticKey(*in.Cedula) {
		changed = shared.MergeStringPtr(&c.Cedula, in.Cedula) || changed
	}
	name := in.Name
	if c.IsSynthetic() && IsMarkedName(c.Name) && strings.TrimSpace(name) != "" {
		name = MarkName(name)
	}
	changed = shared.MergeString(&c.Name, name) || changed
	changed = shared.MergeString(&c.Phone, in.Phone) || changed
	changed = shared.MergeString(&c.Email, in.Email) || changed
	changed = shared.MergeString(&c.Address, in.Address) || changed
	changed = shared.MergeUUID(&c.PriceListID, in.PriceListID) || changed
	if changed {
		c.Touch()
	}
	return changed
}

// ApplyMarker prefixes the name of a synthetic customer that lacks the
// reconciliation marker. It reports whether the name changed.
func (c *Customer) ApplyMarker() bool {
	if !c.IsSynthetic() || IsMarkedName(c.Name) {
		return false
	}
	c.Name = MarkName(c.Name)
	c.Touch()
	return true
}
