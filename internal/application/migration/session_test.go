package migrationapp

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/migrator/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Lifecycle(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewSession(fixedClock(now))
	assert.Equal(t, StateCreated, s.State)

	assert.Error(t, s.EnterPhase(PhaseSuppliers), "phases need a started run")
	require.NoError(t, s.Start())
	assert.Error(t, s.Start())

	require.NoError(t, s.EnterPhase(PhaseSuppliers))
	assert.Equal(t, PhaseSuppliers, s.Phase)

	require.NoError(t, s.Complete())
	assert.True(t, s.State.IsTerminal())
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, now, *s.CompletedAt)

	err := s.Fail(errors.New("late"))
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_STATE", de.Code)
	assert.Equal(t, StateCompleted, s.State)
}

func TestSession_Fail(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.Fail(errors.New("config missing")))
	assert.Equal(t, StateFailed, s.State)
	assert.Equal(t, "config missing", s.Error)
	assert.Error(t, s.Complete())
}

func TestSummary(t *testing.T) {
	s := NewSummary("run-1", 2)

	s.Record(KindSupplier, OutcomeCreated, false)
	s.Record(KindSupplier, OutcomeCreated, true)
	s.Record(KindSupplier, OutcomeUnchanged, false)
	s.Record(KindProduct, OutcomeUpdated, false)
	for i := 0; i < 5; i++ {
		s.Skip(PhasePurchases, KindPurchase, SkipUnresolvedReference, Flag{Row: i + 2})
	}

	sup := s.Kind(KindSupplier)
	assert.Equal(t, 2, sup.Created)
	assert.Equal(t, 1, sup.Unchanged)
	assert.Equal(t, 1, sup.FallbackUsed)

	p := s.Phase(PhasePurchases)
	assert.Equal(t, 5, p.FlagCount)
	assert.Len(t, p.Flags, 2, "flags are capped")
	assert.Equal(t, string(SkipUnresolvedReference), p.Flags[0].Category)
	assert.Equal(t, 5, s.Skips[SkipUnresolvedReference])

	tot := s.Totals()
	assert.Equal(t, 2, tot.Created)
	assert.Equal(t, 1, tot.Updated)
	assert.Equal(t, 5, tot.Skipped)

	assert.Same(t, p, s.Phase(PhasePurchases))
	assert.Len(t, s.Phases, 1)
}
