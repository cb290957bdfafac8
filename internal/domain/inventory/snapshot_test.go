package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshot(t *testing.T) {
	_, err := NewSnapshot(uuid.New(), uuid.Nil, uuid.New(), decimal.Zero)
	assert.Error(t, err)

	s, err := NewSnapshot(uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.True(t, s.Quantity.Equal(decimal.NewFromInt(4)))
}

func TestSnapshot_SetQuantityOverwrites(t *testing.T) {
	s, _ := NewSnapshot(uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(10))

	assert.False(t, s.SetQuantity(decimal.RequireFromString("10.000")))
	assert.True(t, s.SetQuantity(decimal.NewFromInt(3)))
	assert.True(t, s.Quantity.Equal(decimal.NewFromInt(3)))
}
