package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/migrator/internal/domain/shared"
	"github.com/erp/migrator/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGormPurchaseRepository_FindDatedBefore(t *testing.T) {
	repo := NewGormPurchaseRepository(newTestDB(t))
	ctx := context.Background()
	supplier := uuid.New()

	create := func(headerID string, date time.Time, due *time.Time) {
		p, err := trade.NewPurchase(headerID, supplier, date)
		require.NoError(t, err)
		p.DueDate = due
		require.NoError(t, repo.Create(ctx, p))
	}
	epochDue := day(1970, time.January, 1)
	create("P-3", day(2023, time.March, 4), nil)
	create("P-1", day(1970, time.January, 1), nil)
	create("P-2", day(2023, time.May, 1), &epochDue)

	got, err := repo.FindDatedBefore(ctx, day(2000, time.January, 1))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "P-1", got[0].HeaderID)
	assert.Equal(t, "P-2", got[1].HeaderID)

	t.Run("set dates persists", func(t *testing.T) {
		p := got[1]
		fixed := day(2023, time.June, 1)
		p.SetDates(p.Date, &fixed)
		require.NoError(t, repo.Update(ctx, p))

		again, err := repo.FindByHeaderID(ctx, "P-2")
		require.NoError(t, err)
		require.NotNil(t, again.DueDate)
		assert.True(t, again.DueDate.Equal(fixed))
	})
}

func TestGormPurchaseRepository_Lines(t *testing.T) {
	repo := NewGormPurchaseRepository(newTestDB(t))
	ctx := context.Background()

	p, err := trade.NewPurchase("H1", uuid.New(), day(2024, time.February, 10))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, p))

	line := &trade.PurchaseLine{
		BaseEntity: shared.NewBaseEntity(),
		PurchaseID: p.ID,
		LineNo:     1,
		ProductID:  uuid.New(),
		Quantity:   decimal.NewFromInt(4),
		UnitCost:   decimal.RequireFromString("1500.50"),
	}
	require.NoError(t, repo.CreateLine(ctx, line))

	found, err := repo.FindLine(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.True(t, found.Subtotal().Equal(decimal.RequireFromString("6002")))

	_, err = repo.FindLine(ctx, p.ID, 2)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	dup := *line
	dup.BaseEntity = shared.NewBaseEntity()
	uv, ok := shared.AsUniqueViolation(repo.CreateLine(ctx, &dup))
	require.True(t, ok)
	assert.Equal(t, "purchase_lines", uv.Table)

	expense := &trade.PurchaseExpense{
		BaseEntity:    shared.NewBaseEntity(),
		PurchaseID:    p.ID,
		LineNo:        1,
		ExpenseTypeID: uuid.New(),
		Description:   "Flete",
		Amount:        decimal.NewFromInt(250000),
	}
	require.NoError(t, repo.CreateExpense(ctx, expense))
	expense.Merge(&trade.PurchaseExpense{Description: "Flete y seguro", Amount: decimal.NewFromInt(250000)})
	require.NoError(t, repo.UpdateExpense(ctx, expense))

	gotExpense, err := repo.FindExpense(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Flete y seguro", gotExpense.Description)
	assert.True(t, gotExpense.Amount.Equal(decimal.NewFromInt(250000)))
}

func TestGormSaleRepository(t *testing.T) {
	repo := NewGormSaleRepository(newTestDB(t))
	ctx := context.Background()

	s, err := trade.NewSale("001-001-0000123", uuid.New(), day(2024, time.July, 9))
	require.NoError(t, err)
	s.Condition = trade.ConditionCredit
	s.Total = decimal.NewFromInt(110000)
	require.NoError(t, repo.Create(ctx, s))

	found, err := repo.FindByInvoiceNumber(ctx, "001-001-0000123")
	require.NoError(t, err)
	assert.Equal(t, trade.ConditionCredit, found.Condition)
	assert.True(t, found.Date.Equal(day(2024, time.July, 9)))

	dup, err := trade.NewSale("001-001-0000123", uuid.New(), day(2024, time.July, 10))
	require.NoError(t, err)
	uv, ok := shared.AsUniqueViolation(repo.Create(ctx, dup))
	require.True(t, ok)
	assert.Equal(t, "invoice_number", uv.Field)

	none, err := repo.FindDatedBefore(ctx, day(2000, time.January, 1))
	require.NoError(t, err)
	assert.Empty(t, none)
}
