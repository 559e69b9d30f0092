package locker

import (
	"context"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/pkg/exceptions"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryLock struct {
	value     string
	expiresAt time.Time
}

// memoryLocker is the in-process keyed locker used by the memory storage driver.
// It honours the same TTL and ownership rules as the redis locker.
type memoryLocker struct {
	mu    sync.Mutex
	locks map[string]memoryLock
	now   func() time.Time
}

func NewMemoryLocker() contracts.LockerService {
	return &memoryLocker{
		locks: make(map[string]memoryLock),
		now:   time.Now,
	}
}

func (l *memoryLocker) TryLock(ctx context.Context, key string, expiration time.Duration) (bool, string, error) {
	if err := ctx.Err(); err != nil {
		return false, "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if current, ok := l.locks[key]; ok && now.Before(current.expiresAt) {
		return false, "", nil
	}

	value := uuid.NewString()
	l.locks[key] = memoryLock{value: value, expiresAt: now.Add(expiration)}
	return true, value, nil
}

func (l *memoryLocker) Unlock(_ context.Context, key, lockValue string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.locks[key]
	if !ok || !l.now().Before(current.expiresAt) {
		delete(l.locks, key)
		return nil
	}
	if current.value != lockValue {
		return exceptions.ErrLockNotOwned(key)
	}
	delete(l.locks, key)
	return nil
}

func (l *memoryLocker) Refresh(_ context.Context, key, lockValue string, expiration time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.locks[key]
	if !ok || current.value != lockValue || !l.now().Before(current.expiresAt) {
		return exceptions.ErrLockNotOwned(key)
	}
	current.expiresAt = l.now().Add(expiration)
	l.locks[key] = current
	return nil
}
