package catalog

import (
	"strings"

	"github.com/erp/migrator/internal/domain/shared"
)

// Kind identifies one of the small reference tables
type Kind string

const (
	KindCurrency    Kind = "currency"
	KindBranch      Kind = "branch"
	KindWarehouse   Kind = "warehouse"
	KindPriceList   Kind = "price_list"
	KindExpenseType Kind = "expense_type"
)

// Kinds returns every catalog kind in load order
func Kinds() []Kind {
	return []Kind{KindCurrency, KindBranch, KindWarehouse, KindPriceList, KindExpenseType}
}

// IsValid checks if the kind is known
func (k Kind) IsValid() bool {
	for _, v := range Kinds() {
		if v == k {
			return true
		}
	}
	return false
}

// Entry is a row of a reference table, identified by (Kind, Code)
type Entry struct {
	shared.BaseEntity
	Kind Kind
	Code string
	Name string
}

// NormalizeCode canonicalizes a catalog code as found in a sheet cell
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewEntry creates a catalog entry. A blank name defaults to the code.
func NewEntry(kind Kind, code, name string) (*Entry, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Unknown catalog kind: "+string(kind))
	}
	code = NormalizeCode(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Catalog code cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = code
	}
	return &Entry{
		BaseEntity: shared.NewBaseEntity(),
		Kind:       kind,
		Code:       code,
		Name:       name,
	}, nil
}

// Merge refreshes the display name. A name equal to the code carries no
// information and does not replace a descriptive one.
func (e *Entry) Merge(in *Entry) bool {
	if in.Name == in.Code {
		return false
	}
	if shared.MergeString(&e.Name, in.Name) {
		e.Touch()
		return true
	}
	return false
}
