package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition(t *testing.T) {
	assert.Equal(t, ConditionCredit, ParseCondition("credito"))
	assert.Equal(t, ConditionCredit, ParseCondition(" credito 30 dias"))
	assert.Equal(t, ConditionCredit, ParseCondition("Crédito"))
	assert.Equal(t, ConditionCash, ParseCondition("contado"))
	assert.Equal(t, ConditionCash, ParseCondition(""))
}

func TestNewPurchase(t *testing.T) {
	date := time.Date(2023, 3, 15, 4, 0, 0, 0, time.FixedZone("PYT", -3*3600))

	t.Run("stores dates in UTC", func(t *testing.T) {
		p, err := NewPurchase("C-1", uuid.New(), date)
		require.NoError(t, err)
		assert.Equal(t, time.UTC, p.Date.Location())
		assert.True(t, p.Date.Equal(date))
		assert.Equal(t, ConditionCash, p.Condition)
	})

	t.Run("requires header id and supplier", func(t *testing.T) {
		_, err := NewPurchase(" ", uuid.New(), date)
		assert.Error(t, err)
		_, err = NewPurchase("C-1", uuid.Nil, date)
		assert.Error(t, err)
	})
}

func TestPurchase_Merge(t *testing.T) {
	supplier := uuid.New()
	date := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)
	p, _ := NewPurchase("C-1", supplier, date)
	p.Total = decimal.NewFromInt(100)

	same := *p
	assert.False(t, p.Merge(&same))

	in, _ := NewPurchase("C-1", supplier, date.AddDate(0, 0, 1))
	in.Total = decimal.NewFromInt(150)
	in.Condition = ConditionCredit
	assert.True(t, p.Merge(in))
	assert.Equal(t, date.AddDate(0, 0, 1), p.Date)
	assert.True(t, p.Total.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, ConditionCredit, p.Condition)
}

func TestSale_SetDates(t *testing.T) {
	s, err := NewSale("001-001-0000001", uuid.New(), time.UnixMilli(45000))
	require.NoError(t, err)

	fixed := time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)
	s.SetDates(fixed, nil)
	assert.Equal(t, fixed, s.Date)
	assert.Nil(t, s.DueDate)

	due := fixed.AddDate(0, 1, 0)
	s.SetDates(fixed, &due)
	require.NotNil(t, s.DueDate)
	assert.Equal(t, due, *s.DueDate)
}

func TestLines(t *testing.T) {
	pl := &PurchaseLine{Quantity: decimal.NewFromInt(3), UnitCost: decimal.RequireFromString("2.5")}
	assert.Equal(t, "7.5", pl.Subtotal().String())

	sl := &SaleLine{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10), Discount: decimal.NewFromInt(1)}
	assert.Equal(t, "19", sl.Subtotal().String())

	product := uuid.New()
	in := &SaleLine{ProductID: product, Quantity: decimal.NewFromInt(5)}
	assert.True(t, sl.Merge(in))
	assert.Equal(t, product, sl.ProductID)
	assert.True(t, sl.Quantity.Equal(decimal.NewFromInt(5)))
}
