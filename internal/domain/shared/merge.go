package shared

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Merge helpers implement the non-destructive refresh policy used when a
// source row hits an existing record: a blank or absent incoming value never
// replaces what is stored. Each helper reports whether dst changed.

// MergeString copies src into dst when src is not blank
func MergeString(dst *string, src string) bool {
	src = strings.TrimSpace(src)
	if src == "" || *dst == src {
		return false
	}
	*dst = src
	return true
}

// MergeStringPtr copies src into dst when src is non-nil and not blank
func MergeStringPtr(dst **string, src *string) bool {
	if src == nil {
		return false
	}
	v := strings.TrimSpace(*src)
	if v == "" {
		return false
	}
	if *dst != nil && **dst == v {
		return false
	}
	*dst = &v
	return true
}

// MergeDecimal copies src into dst when src is non-nil
func MergeDecimal(dst **decimal.Decimal, src *decimal.Decimal) bool {
	if src == nil {
		return false
	}
	if *dst != nil && (*dst).Equal(*src) {
		return false
	}
	v := *src
	*dst = &v
	return true
}

// MergeAmount copies src into dst when src is non-nil. Used for required
// columns that still must not be zeroed by a blank cell.
func MergeAmount(dst *decimal.Decimal, src *decimal.Decimal) bool {
	if src == nil || dst.Equal(*src) {
		return false
	}
	*dst = *src
	return true
}

// MergeTime copies src into dst when src is non-nil
func MergeTime(dst **time.Time, src *time.Time) bool {
	if src == nil {
		return false
	}
	if *dst != nil && (*dst).Equal(*src) {
		return false
	}
	v := src.UTC()
	*dst = &v
	return true
}

// MergeUUID copies src into dst when src is non-nil and not uuid.Nil
func MergeUUID(dst **uuid.UUID, src *uuid.UUID) bool {
	if src == nil || *src == uuid.Nil {
		return false
	}
	if *dst != nil && **dst == *src {
		return false
	}
	v := *src
	*dst = &v
	return true
}
