package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cypherlabdev/odds-pipeline-service/internal/service"
)

var _ service.RunLocker = (*MemoryLocker)(nil)

type heldLock struct {
	token   string
	expires time.Time
}

// MemoryLocker is an in-process RunLocker for single-instance deployments
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]heldLock
	now   func() time.Time
}

// NewMemoryLocker creates an empty in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]heldLock),
		now:   time.Now,
	}
}

// AcquireLock takes key unless an unexpired holder owns it
func (l *MemoryLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.locks[key]; ok && now.Before(held.expires) {
		return "", false, nil
	}

	token := uuid.NewString()
	l.locks[key] = heldLock{token: token, expires: now.Add(ttl)}
	return token, true, nil
}

// ReleaseLock drops key only if token still holds it
func (l *MemoryLocker) ReleaseLock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.locks[key]; ok && held.token == token {
		delete(l.locks, key)
	}
	return nil
}
