package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowError(t *testing.T) {
	t.Run("Error with column", func(t *testing.T) {
		err := NewRowError("Clientes", 5, "EMAIL", ErrCodeValidation, "invalid email format")
		assert.Equal(t, "Clientes row 5, column 'EMAIL': invalid email format", err.Error())
	})

	t.Run("Error without column", func(t *testing.T) {
		err := NewRowError("Stock", 10, "", ErrCodeValidation, "malformed row")
		assert.Equal(t, "Stock row 10: malformed row", err.Error())
	})

	t.Run("Error with value", func(t *testing.T) {
		err := NewRowErrorWithValue("Ventas y Saldos", 3, "FECHA", ErrCodeInvalidDate, "bad date", "31/02/2023")
		assert.Equal(t, "31/02/2023", err.Value)
		assert.Equal(t, 3, err.Row)
	})
}

func TestErrorCollection(t *testing.T) {
	t.Run("Add errors within limit", func(t *testing.T) {
		ec := NewErrorCollection(10)

		ec.Add(NewRowError("S", 1, "A", ErrCodeValidation, "error 1"))
		ec.Add(NewRowError("S", 2, "B", ErrCodeValidation, "error 2"))

		assert.Equal(t, 2, ec.Count())
		assert.Equal(t, 2, ec.TotalCount())
		assert.True(t, ec.HasErrors())
		assert.False(t, ec.IsTruncated())
	})

	t.Run("Add errors exceeding limit", func(t *testing.T) {
		ec := NewErrorCollection(3)
		for i := 1; i <= 5; i++ {
			ec.AddRequiredError("S", i, "COD")
		}

		assert.Equal(t, 3, ec.Count())
		assert.Equal(t, 5, ec.TotalCount())
		assert.True(t, ec.IsTruncated())
		assert.Contains(t, ec.String(), "5 error(s) found (showing first 3)")
	})

	t.Run("Helper codes", func(t *testing.T) {
		ec := NewErrorCollection(10)
		ec.AddRequiredError("S", 1, "COD")
		ec.AddTypeError("S", 2, "TOTAL", "decimal", "abc")
		ec.AddDateError("S", 3, "FECHA", "ayer")
		ec.AddReferenceError("S", 4, "COD_PROVEEDOR", "99", "supplier")

		errs := ec.Errors()
		assert.Equal(t, ErrCodeRequiredField, errs[0].Code)
		assert.Equal(t, ErrCodeInvalidType, errs[1].Code)
		assert.Equal(t, ErrCodeInvalidDate, errs[2].Code)
		assert.Equal(t, ErrCodeReferenceNotFound, errs[3].Code)
		assert.Equal(t, "supplier '99' not found", errs[3].Message)

		summary := ec.ErrorSummary()
		assert.Equal(t, 1, summary[ErrCodeInvalidDate])
	})

	t.Run("Merge keeps overflow counts", func(t *testing.T) {
		a := NewErrorCollection(10)
		b := NewErrorCollection(1)
		b.AddRequiredError("S", 1, "X")
		b.AddRequiredError("S", 2, "X")

		a.Merge(b)
		a.Merge(nil)
		assert.Equal(t, 1, a.Count())
		assert.Equal(t, 2, a.TotalCount())
		assert.True(t, a.IsTruncated())
	})

	t.Run("no errors", func(t *testing.T) {
		assert.Equal(t, "no errors", NewErrorCollection(0).String())
	})
}
