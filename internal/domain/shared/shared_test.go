package shared

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolationError(t *testing.T) {
	driver := errors.New("duplicate key")
	err := fmt.Errorf("create supplier: %w", &UniqueViolationError{Table: "suppliers", Field: "tax_id", Err: driver})

	uv, ok := AsUniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "tax_id", uv.Field)
	assert.ErrorIs(t, err, driver)
	assert.Equal(t, "unique constraint violated on suppliers.tax_id", uv.Error())

	_, ok = AsUniqueViolation(driver)
	assert.False(t, ok)
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", ErrNotFound)))
}

func TestMergeHelpers(t *testing.T) {
	t.Run("blank strings keep the stored value", func(t *testing.T) {
		s := "Alfa"
		assert.False(t, MergeString(&s, "  "))
		assert.True(t, MergeString(&s, " Alfa SA "))
		assert.Equal(t, "Alfa SA", s)

		var p *string
		blank := ""
		assert.False(t, MergeStringPtr(&p, &blank))
		assert.Nil(t, p)
	})

	t.Run("nil decimals keep the stored value", func(t *testing.T) {
		amount := decimal.NewFromInt(100)
		assert.False(t, MergeAmount(&amount, nil))
		zero := decimal.Zero
		assert.True(t, MergeAmount(&amount, &zero))
		assert.True(t, amount.IsZero())

		var d *decimal.Decimal
		assert.False(t, MergeDecimal(&d, nil))
		assert.True(t, MergeDecimal(&d, &zero))
		assert.False(t, MergeDecimal(&d, &zero))
	})

	t.Run("times and ids", func(t *testing.T) {
		var due *time.Time
		at := time.Date(2023, 3, 15, 3, 0, 0, 0, time.FixedZone("PYT", -3*3600))
		assert.True(t, MergeTime(&due, &at))
		assert.Equal(t, time.UTC, due.Location())

		var id *uuid.UUID
		nilID := uuid.Nil
		assert.False(t, MergeUUID(&id, &nilID))
		id2 := uuid.New()
		assert.True(t, MergeUUID(&id, &id2))
		assert.False(t, MergeUUID(&id, &id2))
	})
}

func TestProvenance(t *testing.T) {
	assert.True(t, ProvenanceSynthetic.IsValid())
	assert.False(t, Provenance("imported").IsValid())

	e := NewBaseEntity()
	before := e.UpdatedAt
	time.Sleep(time.Millisecond)
	e.Touch()
	assert.True(t, e.UpdatedAt.After(before))
}
