package migrationapp

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapBuilder(t *testing.T) {
	b := NewMapBuilder(KindSupplier)
	id := uuid.New()

	require.NoError(t, b.Put(" 12 ", id))
	require.NoError(t, b.Put("12", id), "same id again is accepted")
	assert.Error(t, b.Put("12", uuid.New()), "a key cannot point at two records")
	assert.Error(t, b.Put("", uuid.New()))
	assert.Error(t, b.Put("13", uuid.Nil))

	got, ok := b.Lookup("12")
	require.True(t, ok)
	assert.Equal(t, id, got)

	m := b.Freeze()
	assert.Equal(t, KindSupplier, m.Kind())
	assert.Equal(t, 1, m.Len())
	assert.Error(t, b.Put("14", uuid.New()), "frozen builders reject writes")

	got, ok = m.Lookup(" 12")
	assert.True(t, ok)
	assert.Equal(t, id, got)
	_, ok = m.Lookup("99")
	assert.False(t, ok)
}

func TestDerive(t *testing.T) {
	base := NewMapBuilder(KindCustomer)
	c1 := uuid.New()
	require.NoError(t, base.Put("C1", c1))
	frozen := base.Freeze()

	ext := Derive(frozen)
	c2 := uuid.New()
	require.NoError(t, ext.Put("C2", c2))
	assert.Error(t, ext.Put("C1", c2))

	out := ext.Freeze()
	assert.Equal(t, 2, out.Len())
	assert.Equal(t, 1, frozen.Len(), "the source map is not modified")
}

func TestEntityMap_NilSafe(t *testing.T) {
	var m *EntityMap
	_, ok := m.Lookup("x")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}
