package migrationapp

import (
	"context"
	"fmt"
	"slices"

	"github.com/erp/migrator/internal/domain/shared"
	"github.com/erp/migrator/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Outcome is what Resolve did with a source row
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

// Target describes how one source row maps onto the store for one entity
// kind. Only FindPrimary, Create and Merge are required.
type Target[T any] struct {
	Kind       string
	NaturalKey string
	Incoming   *T

	FindPrimary   func(ctx context.Context) (*T, error)
	FindSecondary func(ctx context.Context) (*T, error)
	// Conflicts reports that a secondary hit belongs to a different record
	// (its own natural key differs). Such hits are not adopted.
	Conflicts func(hit *T) bool

	// Merge applies the incoming row to existing and reports a change
	Merge  func(ctx context.Context, existing, incoming *T) (bool, error)
	Create func(ctx context.Context, entity *T) error
	Update func(ctx context.Context, entity *T) error

	// Fallbacks maps a unique column to the setter that writes a synthesized
	// value into the incoming record
	Fallbacks map[string]func(entity *T, value string)
	// Clears maps a nullable unique column to a function that empties it.
	// A conflict on such a column stores the record without the value and
	// issues no synthesized key.
	Clears map[string]func(entity *T)
}

// Resolution is the result of Resolve
type Resolution[T any] struct {
	Entity    *T
	Outcome   Outcome
	Fallbacks []string // synthesized values, in the order they were tried
	Cleared   []string // unique columns stored empty after a conflict
}

// FallbackUsed reports whether a unique conflict changed the persisted
// record: a synthesized value or a cleared column.
func (r Resolution[T]) FallbackUsed() bool {
	return len(r.Fallbacks) > 0 || len(r.Cleared) > 0
}

// Resolver finds, refreshes or creates records. A Resolver is bound to one
// run through its fallback synthesizer.
type Resolver struct {
	keys *FallbackKeys
}

// NewResolver creates a resolver issuing fallback values from keys
func NewResolver(keys *FallbackKeys) *Resolver {
	return &Resolver{keys: keys}
}

// Resolve runs primary lookup, secondary lookup, merge-or-create and the
// per-field fallback retry for one row. Errors returned are fatal to the run.
func Resolve[T any](ctx context.Context, r *Resolver, t Target[T]) (Resolution[T], error) {
	existing, err := find(ctx, t.FindPrimary)
	if err != nil {
		return Resolution[T]{}, fmt.Errorf("find %s %q: %w", t.Kind, t.NaturalKey, err)
	}
	if existing == nil && t.FindSecondary != nil {
		hit, err := find(ctx, t.FindSecondary)
		if err != nil {
			return Resolution[T]{}, fmt.Errorf("find %s %q by secondary key: %w", t.Kind, t.NaturalKey, err)
		}
		if hit != nil && (t.Conflicts == nil || !t.Conflicts(hit)) {
			existing = hit
		} else if hit != nil {
			logger.L(ctx).Debug("Secondary key owned by another record",
				zap.String("kind", t.Kind), zap.String("natural_key", t.NaturalKey))
		}
	}

	if existing != nil {
		changed, err := t.Merge(ctx, existing, t.Incoming)
		if err != nil {
			return Resolution[T]{}, fmt.Errorf("merge %s %q: %w", t.Kind, t.NaturalKey, err)
		}
		if !changed {
			return Resolution[T]{Entity: existing, Outcome: OutcomeUnchanged}, nil
		}
		if err := t.Update(ctx, existing); err != nil {
			return Resolution[T]{}, fmt.Errorf("update %s %q: %w", t.Kind, t.NaturalKey, err)
		}
		return Resolution[T]{Entity: existing, Outcome: OutcomeUpdated}, nil
	}

	res := Resolution[T]{Entity: t.Incoming, Outcome: OutcomeCreated}
	for {
		err := t.Create(ctx, t.Incoming)
		if err == nil {
			return res, nil
		}
		uv, ok := shared.AsUniqueViolation(err)
		if !ok {
			return Resolution[T]{}, fmt.Errorf("create %s %q: %w", t.Kind, t.NaturalKey, err)
		}
		if empty, ok := t.Clears[uv.Field]; ok && !slices.Contains(res.Cleared, uv.Field) {
			empty(t.Incoming)
			res.Cleared = append(res.Cleared, uv.Field)
			logger.L(ctx).Warn("Unique conflict, storing without value",
				zap.String("kind", t.Kind),
				zap.String("natural_key", t.NaturalKey),
				zap.String("field", uv.Field),
			)
			continue
		}
		set, ok := t.Fallbacks[uv.Field]
		if !ok {
			return Resolution[T]{}, fmt.Errorf("create %s %q: %w", t.Kind, t.NaturalKey, err)
		}
		attempt := len(res.Fallbacks)
		value, kerr := r.keys.Next(t.NaturalKey, attempt)
		if kerr != nil {
			return Resolution[T]{}, fmt.Errorf("create %s %q: %w after %v: %w", t.Kind, t.NaturalKey, kerr, res.Fallbacks, err)
		}
		set(t.Incoming, value)
		res.Fallbacks = append(res.Fallbacks, value)
		logger.L(ctx).Warn("Unique conflict, retrying with fallback value",
			zap.String("kind", t.Kind),
			zap.String("natural_key", t.NaturalKey),
			zap.String("field", uv.Field),
			zap.String("fallback", value),
			zap.Int("attempt", attempt+1),
		)
	}
}

func find[T any](ctx context.Context, fn func(context.Context) (*T, error)) (*T, error) {
	if fn == nil {
		return nil, nil
	}
	hit, err := fn(ctx)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return hit, nil
}
