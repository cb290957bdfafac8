package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/erp/migrator/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifyWriteError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantUV    bool
		wantTable string
		wantField string
	}{
		{name: "nil", err: nil},
		{name: "other error", err: errors.New("connection reset")},
		{
			name:      "postgres constraint",
			err:       &pgconn.PgError{Code: "23505", TableName: "customers", ConstraintName: "uq_customers_cedula"},
			wantUV:    true,
			wantTable: "customers",
			wantField: "cedula",
		},
		{
			name:      "postgres wrapped",
			err:       fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_products_barcode"}),
			wantUV:    true,
			wantTable: "products",
			wantField: "barcode",
		},
		{
			name:      "postgres unnamed constraint",
			err:       &pgconn.PgError{Code: "23505", ConstraintName: "products_pkey"},
			wantUV:    true,
			wantTable: "products",
		},
		{name: "postgres foreign key", err: &pgconn.PgError{Code: "23503"}},
		{
			name:      "sqlite single column",
			err:       errors.New("UNIQUE constraint failed: suppliers.tax_id"),
			wantUV:    true,
			wantTable: "suppliers",
			wantField: "tax_id",
		},
		{
			name:      "sqlite composite",
			err:       errors.New("UNIQUE constraint failed: inventory_snapshots.product_id, inventory_snapshots.branch_id"),
			wantUV:    true,
			wantTable: "inventory_snapshots",
			wantField: "product_id",
		},
		{
			name:      "translated duplicate",
			err:       gorm.ErrDuplicatedKey,
			wantUV:    true,
			wantTable: "products",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyWriteError("products", tt.err)
			uv, ok := shared.AsUniqueViolation(got)
			assert.Equal(t, tt.wantUV, ok)
			if !tt.wantUV {
				assert.Equal(t, tt.err, got)
				return
			}
			assert.Equal(t, tt.wantTable, uv.Table)
			assert.Equal(t, tt.wantField, uv.Field)
			assert.ErrorIs(t, got, tt.err)
			assert.True(t, IsUniqueViolation(got))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: sales.invoice_number")))
}

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(gorm.ErrRecordNotFound), shared.ErrNotFound)
	other := errors.New("x")
	assert.Equal(t, other, notFound(other))
}
