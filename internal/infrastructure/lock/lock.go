// Package lock provides the exclusive run lock that keeps two migration tools
// from writing to the same target store at once.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/migrator/internal/infrastructure/config"
	"github.com/google/uuid"
)

// ErrHeld is returned when another run owns the lock
var ErrHeld = errors.New("run lock is held by another process")

// Locker is an exclusive, expiring lock keyed by name
type Locker interface {
	// TryLock takes key for owner unless someone else holds it
	TryLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	// Unlock releases key if owner still holds it
	Unlock(ctx context.Context, key, owner string) error
	Close() error
}

// Lease is a held lock
type Lease struct {
	locker Locker
	Key    string
	Owner  string
}

// Release gives the lock back. Releasing an expired lease is not an error.
func (l *Lease) Release(ctx context.Context) error {
	return l.locker.Unlock(ctx, l.Key, l.Owner)
}

// Acquire takes the lock named name, returning ErrHeld when it is taken
func Acquire(ctx context.Context, locker Locker, prefix, name string, ttl time.Duration) (*Lease, error) {
	lease := &Lease{locker: locker, Key: prefix + name, Owner: uuid.NewString()}
	ok, err := locker.TryLock(ctx, lease.Key, lease.Owner, ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", lease.Key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHeld, lease.Key)
	}
	return lease, nil
}

// New returns a Redis locker when Redis is enabled and a process-local one
// otherwise
func New(cfg config.RedisConfig) (Locker, error) {
	if !cfg.Enabled {
		return NewMemoryLocker(), nil
	}
	return NewRedisLocker(cfg)
}
