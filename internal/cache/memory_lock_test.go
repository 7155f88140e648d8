package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Exclusive(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	token, ok, err := locker.AcquireLock(ctx, "run", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.AcquireLock(ctx, "run", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, locker.ReleaseLock(ctx, "run", "stale"))
	_, ok, _ = locker.AcquireLock(ctx, "run", time.Minute)
	assert.False(t, ok)

	require.NoError(t, locker.ReleaseLock(ctx, "run", token))
	_, ok, _ = locker.AcquireLock(ctx, "run", time.Minute)
	assert.True(t, ok)
}

func TestMemoryLocker_Expires(t *testing.T) {
	locker := NewMemoryLocker()
	current := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	locker.now = func() time.Time { return current }

	_, ok, err := locker.AcquireLock(context.Background(), "run", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	current = current.Add(2 * time.Minute)
	_, ok, err = locker.AcquireLock(context.Background(), "run", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLocker_CanceledContext(t *testing.T) {
	locker := NewMemoryLocker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := locker.AcquireLock(ctx, "run", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}
