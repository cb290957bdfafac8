package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch bumps the update timestamp
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Provenance records whether a row came from the source data or was
// synthesized by the migration to satisfy a reference.
type Provenance string

const (
	ProvenanceAuthoritative Provenance = "authoritative"
	ProvenanceSynthetic     Provenance = "synthetic"
)

// IsValid checks if the provenance value is known
func (p Provenance) IsValid() bool {
	return p == ProvenanceAuthoritative || p == ProvenanceSynthetic
}
