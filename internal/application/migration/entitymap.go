package migrationapp

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EntityMap is the read-only result of a phase: source natural key to
// target surrogate id for one entity kind.
type EntityMap struct {
	kind string
	ids  map[string]uuid.UUID
}

// Kind returns the entity kind the map covers
func (m *EntityMap) Kind() string {
	return m.kind
}

// Lookup returns the id stored for key
func (m *EntityMap) Lookup(key string) (uuid.UUID, bool) {
	if m == nil {
		return uuid.Nil, false
	}
	id, ok := m.ids[normalizeKey(key)]
	return id, ok
}

// Len returns the number of keys
func (m *EntityMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

// MapBuilder accumulates a map during one phase. A key is written once;
// writing a different id for it afterwards is an error.
type MapBuilder struct {
	kind   string
	ids    map[string]uuid.UUID
	frozen bool
}

// NewMapBuilder starts an empty map for kind
func NewMapBuilder(kind string) *MapBuilder {
	return &MapBuilder{kind: kind, ids: make(map[string]uuid.UUID)}
}

// Derive starts a builder seeded with the entries of a frozen map. The
// frozen map is not modified.
func Derive(m *EntityMap) *MapBuilder {
	b := NewMapBuilder(m.kind)
	for k, v := range m.ids {
		b.ids[k] = v
	}
	return b
}

// Put records id for key. Re-putting the same id is a no-op.
func (b *MapBuilder) Put(key string, id uuid.UUID) error {
	if b.frozen {
		return fmt.Errorf("%s map is frozen", b.kind)
	}
	key = normalizeKey(key)
	if key == "" || id == uuid.Nil {
		return fmt.Errorf("%s map: empty key or id", b.kind)
	}
	if prev, ok := b.ids[key]; ok {
		if prev != id {
			return fmt.Errorf("%s map: key %q already maps to %s", b.kind, key, prev)
		}
		return nil
	}
	b.ids[key] = id
	return nil
}

// Lookup returns the id recorded for key so far
func (b *MapBuilder) Lookup(key string) (uuid.UUID, bool) {
	id, ok := b.ids[normalizeKey(key)]
	return id, ok
}

// Freeze ends the phase and returns the read-only map. The builder rejects
// further writes.
func (b *MapBuilder) Freeze() *EntityMap {
	b.frozen = true
	return &EntityMap{kind: b.kind, ids: b.ids}
}

func normalizeKey(key string) string {
	return strings.TrimSpace(key)
}
