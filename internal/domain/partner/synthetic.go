package partner

import (
	"fmt"
	"strings"

	"github.com/erp/migrator/internal/domain/shared"
)

// Markers of data the migration synthesized. Nothing outside this file should
// build or test for these strings directly.
const (
	SyntheticNamePrefix = "* "
	SyntheticKeyPrefix  = "TEMP_"
)

// MarkName prefixes name with the reconciliation marker. Already marked names
// are returned unchanged.
func MarkName(name string) string {
	if IsMarkedName(name) {
		return name
	}
	return SyntheticNamePrefix + strings.TrimSpace(name)
}

// IsMarkedName reports whether name carries the reconciliation marker
func IsMarkedName(name string) bool {
	return strings.HasPrefix(name, SyntheticNamePrefix)
}

// SyntheticKey returns the first fallback value for a unique field of the
// record identified by naturalKey.
func SyntheticKey(naturalKey string) string {
	return SyntheticKeyPrefix + naturalKey
}

// FallbackKey returns the escalated fallback value used when SyntheticKey
// itself collides.
func FallbackKey(naturalKey string, token int64) string {
	return fmt.Sprintf("%s%s_%d", SyntheticKeyPrefix, naturalKey, token)
}

// IsSyntheticKey reports whether v was produced by SyntheticKey or FallbackKey
func IsSyntheticKey(v string) bool {
	return strings.HasPrefix(v, SyntheticKeyPrefix)
}

// PlaceholderPolicy generates the contact data stored on customers that a
// sale referenced but the customer sheet never defined.
type PlaceholderPolicy struct {
	EmailDomain string
	Phone       string
}

// DefaultPlaceholders is the policy used unless configuration overrides it
var DefaultPlaceholders = PlaceholderPolicy{
	EmailDomain: "sin-correo.local",
	Phone:       "0000000",
}

// Email returns the placeholder address for a customer code
func (p PlaceholderPolicy) Email(code string) string {
	domain := p.EmailDomain
	if domain == "" {
		domain = DefaultPlaceholders.EmailDomain
	}
	return fmt.Sprintf("cliente.%s@%s", sanitizeLocalPart(code), domain)
}

// PhoneNumber returns the placeholder phone number
func (p PlaceholderPolicy) PhoneNumber() string {
	if p.Phone == "" {
		return DefaultPlaceholders.Phone
	}
	return p.Phone
}

// Cedula returns the placeholder identity document for a customer code
func (p PlaceholderPolicy) Cedula(code string) string {
	return SyntheticKey(code)
}

// NewSyntheticCustomer builds the temporary customer created when a sale
// references a code absent from the customer sheet. displayName may be empty.
func NewSyntheticCustomer(code, displayName string, policy PlaceholderPolicy) *Customer {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "Cliente " + code
	}
	cedula := policy.Cedula(code)
	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       MarkName(name),
		Cedula:     &cedula,
		Phone:      policy.PhoneNumber(),
		Email:      policy.Email(code),
		Provenance: shared.ProvenanceSynthetic,
	}
}

func sanitizeLocalPart(code string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(code) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "sin-codigo"
	}
	return sb.String()
}
