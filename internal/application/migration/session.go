package migrationapp

import (
	"fmt"
	"time"

	"github.com/erp/migrator/internal/domain/shared"
	"github.com/google/uuid"
)

// SessionState is the state of a migration run
type SessionState string

const (
	StateCreated   SessionState = "created"
	StateImporting SessionState = "importing"
	StateCompleted SessionState = "completed"
	StateFailed    SessionState = "failed"
)

// IsTerminal reports whether no further transition is allowed
func (s SessionState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Session tracks one run through its states
type Session struct {
	ID          uuid.UUID    `json:"id"`
	State       SessionState `json:"state"`
	Phase       string       `json:"phase,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`

	clock func() time.Time
}

// NewSession creates a session in the created state
func NewSession(clock func() time.Time) *Session {
	if clock == nil {
		clock = time.Now
	}
	now := clock().UTC()
	return &Session{
		ID:        uuid.New(),
		State:     StateCreated,
		CreatedAt: now,
		UpdatedAt: now,
		clock:     clock,
	}
}

// Start moves the session to importing
func (s *Session) Start() error {
	if s.State != StateCreated {
		return s.invalid(StateImporting)
	}
	s.set(StateImporting)
	return nil
}

// EnterPhase records the phase being run
func (s *Session) EnterPhase(phase string) error {
	if s.State != StateImporting {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("cannot enter phase %s while %s", phase, s.State))
	}
	s.Phase = phase
	s.UpdatedAt = s.clock().UTC()
	return nil
}

// Complete ends a successful run
func (s *Session) Complete() error {
	if s.State != StateImporting {
		return s.invalid(StateCompleted)
	}
	s.set(StateCompleted)
	return nil
}

// Fail ends the run with cause. A run that never started can fail too.
func (s *Session) Fail(cause error) error {
	if s.State.IsTerminal() {
		return s.invalid(StateFailed)
	}
	if cause != nil {
		s.Error = cause.Error()
	}
	s.set(StateFailed)
	return nil
}

func (s *Session) set(state SessionState) {
	now := s.clock().UTC()
	s.State = state
	s.UpdatedAt = now
	if state.IsTerminal() {
		s.CompletedAt = &now
	}
}

func (s *Session) invalid(to SessionState) error {
	return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("cannot move run from %s to %s", s.State, to))
}
