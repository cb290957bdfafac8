package workbook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the storage class of a cell as recorded in the workbook
type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindBool
	KindText
	KindDate
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Value is one cell. Raw is the unformatted cell content; a missing cell is
// an explicit Value of KindEmpty.
type Value struct {
	Raw  string
	Kind Kind
}

// Empty is the value of a missing cell
var Empty = Value{Kind: KindEmpty}

// TextValue builds a text cell value
func TextValue(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Empty
	}
	return Value{Raw: s, Kind: KindText}
}

// NumberValue builds a numeric cell value
func NumberValue(f float64) Value {
	return Value{Raw: strconv.FormatFloat(f, 'f', -1, 64), Kind: KindNumber}
}

// IsEmpty reports whether the cell carries no value
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty || strings.TrimSpace(v.Raw) == ""
}

// String returns the trimmed cell text
func (v Value) String() string {
	if v.IsEmpty() {
		return ""
	}
	return strings.TrimSpace(v.Raw)
}

// Any returns the cell as a native Go value: nil, float64, bool or string
func (v Value) Any() any {
	if v.IsEmpty() {
		return nil
	}
	switch v.Kind {
	case KindNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Raw), 64)
		if err != nil {
			return v.String()
		}
		return f
	case KindBool:
		return v.Raw == "1" || strings.EqualFold(v.Raw, "true")
	default:
		return v.String()
	}
}

// Decimal parses the cell as a decimal. Empty cells return nil. Text cells
// accept the local notation with '.' as thousands separator and ',' as
// decimal mark.
func (v Value) Decimal() (*decimal.Decimal, error) {
	if v.IsEmpty() {
		return nil, nil
	}
	s := v.String()
	if v.Kind != KindNumber {
		s = normalizeNumberText(s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", v.Raw)
	}
	return &d, nil
}

// Int64 parses the cell as an integer. Numeric cells must be integral.
func (v Value) Int64() (int64, error) {
	d, err := v.Decimal()
	if err != nil {
		return 0, err
	}
	if d == nil {
		return 0, nil
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("not an integer: %q", v.Raw)
	}
	return d.IntPart(), nil
}

func normalizeNumberText(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimPrefix(s, "Gs.")
	s = strings.TrimPrefix(s, "₲")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	}
	switch strings.Count(s, ".") {
	case 0:
		return s
	case 1:
		// guaranies carry no decimals: "15.000" is fifteen thousand
		if i := strings.Index(s, "."); len(s)-i-1 == 3 {
			return s[:i] + s[i+1:]
		}
		return s
	default:
		return strings.ReplaceAll(s, ".", "")
	}
}
