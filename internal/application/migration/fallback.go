package migrationapp

import (
	"errors"
	"sync"
	"time"

	"github.com/erp/migrator/internal/domain/partner"
)

// MaxFallbackAttempts is the number of synthesized values tried for one
// colliding field before the row is treated as a fatal conflict.
const MaxFallbackAttempts = 2

// ErrFallbackExhausted is returned when every synthesized value collided
var ErrFallbackExhausted = errors.New("fallback keys exhausted")

// FallbackKeys synthesizes substitute unique values for one run. The first
// attempt for a natural key is TEMP_<key>; later attempts append a
// millisecond token that strictly increases within the run, so no value is
// issued twice.
type FallbackKeys struct {
	mu        sync.Mutex
	clock     func() time.Time
	lastToken int64
	issued    map[string]struct{}
}

// NewFallbackKeys creates a synthesizer using the wall clock
func NewFallbackKeys() *FallbackKeys {
	return NewFallbackKeysWithClock(time.Now)
}

// NewFallbackKeysWithClock creates a synthesizer with an injected clock
func NewFallbackKeysWithClock(clock func() time.Time) *FallbackKeys {
	return &FallbackKeys{clock: clock, issued: make(map[string]struct{})}
}

// Next returns the value for the given attempt (0-based). Attempts at or
// beyond MaxFallbackAttempts return ErrFallbackExhausted.
func (k *FallbackKeys) Next(naturalKey string, attempt int) (string, error) {
	if attempt >= MaxFallbackAttempts {
		return "", ErrFallbackExhausted
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	if attempt == 0 {
		v := partner.SyntheticKey(naturalKey)
		if _, dup := k.issued[v]; !dup {
			k.issued[v] = struct{}{}
			return v, nil
		}
	}
	v := partner.FallbackKey(naturalKey, k.nextToken())
	k.issued[v] = struct{}{}
	return v, nil
}

// Issued returns how many values were handed out
func (k *FallbackKeys) Issued() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.issued)
}

func (k *FallbackKeys) nextToken() int64 {
	t := k.clock().UnixMilli()
	if t <= k.lastToken {
		t = k.lastToken + 1
	}
	k.lastToken = t
	return t
}
