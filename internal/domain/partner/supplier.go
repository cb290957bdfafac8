package partner

import (
	"strconv"
	"strings"

	"github.com/erp/migrator/internal/domain/shared"
)

// Supplier is a vendor from the purchases workbook. Code is the numeric
// supplier code used by the source; TaxID (RUC) is unique and never empty once
// persisted.
type Supplier struct {
	shared.BaseEntity
	Code       int64
	Name       string
	TaxID      string
	Phone      string
	Email      string
	Address    string
	Provenance shared.Provenance
}

// NewSupplier creates a new supplier with required fields
func NewSupplier(code int64, name string) (*Supplier, error) {
	if code <= 0 {
		return nil, shared.NewDomainError("INVALID_CODE", "Supplier code must be positive")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	return &Supplier{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
		Provenance: shared.ProvenanceAuthoritative,
	}, nil
}

// NaturalKey returns the supplier code as text, the form used by fallback keys
func (s *Supplier) NaturalKey() string {
	return strconv.FormatInt(s.Code, 10)
}

// HasSyntheticTaxID reports whether the tax id is a migration placeholder
func (s *Supplier) HasSyntheticTaxID() bool {
	return IsSyntheticKey(s.TaxID)
}

// Merge refreshes mutable fields from an incoming row without letting blanks
// erase stored data. A synthetic incoming tax id never replaces a real one.
func (s *Supplier) Merge(in *Supplier) bool {
	changed := shared.MergeString(&s.Name, in.Name)
	if !IsSyntheticKey(in.TaxID) || s.TaxID == "" {
		changed = shared.MergeString(&s.TaxID, in.TaxID) || changed
	}
	changed = shared.MergeString(&s.Phone, in.Phone) || changed
	changed = shared.MergeString(&s.Email, in.Email) || changed
	changed = shared.MergeString(&s.Address, in.Address) || changed
	if changed {
		s.Touch()
	}
	return changed
}
