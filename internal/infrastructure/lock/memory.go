package lock

import (
	"context"
	"sync"
	"time"
)

type holder struct {
	owner     string
	expiresAt time.Time
}

// MemoryLocker implements Locker inside one process. Expired entries are
// replaced on the next TryLock.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]holder
	clock func() time.Time
}

// NewMemoryLocker creates an empty process-local locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]holder), clock: time.Now}
}

func (l *MemoryLocker) TryLock(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if h, ok := l.held[key]; ok && now.Before(h.expiresAt) {
		return false, nil
	}
	l.held[key] = holder{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

func (l *MemoryLocker) Unlock(_ context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if h, ok := l.held[key]; ok && h.owner == owner {
		delete(l.held, key)
	}
	return nil
}

// Close drops every held lock
func (l *MemoryLocker) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = make(map[string]holder)
	return nil
}

var _ Locker = (*MemoryLocker)(nil)
