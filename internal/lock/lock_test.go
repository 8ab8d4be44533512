package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltixaudit/voltix/internal/clock"
)

func TestLocalLockerExclusive(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	l := NewLocalLocker(fake)

	token, ok, err := l.TryLock(ctx, "audit:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "audit:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = l.TryLock(ctx, "audit:2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, l.Release(ctx, "audit:1", "someone-else"))
	_, ok, _ = l.TryLock(ctx, "audit:1", time.Minute)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "audit:1", token))
	_, ok, _ = l.TryLock(ctx, "audit:1", time.Minute)
	assert.True(t, ok)
}

func TestLocalLockerExpires(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	l := NewLocalLocker(fake)

	_, ok, _ := l.TryLock(ctx, "audit:1", time.Minute)
	require.True(t, ok)

	fake.Advance(2 * time.Minute)
	_, ok, _ = l.TryLock(ctx, "audit:1", time.Minute)
	assert.True(t, ok)
}

func TestValidate(t *testing.T) {
	l := NewLocalLocker(clock.SystemClock{})
	_, _, err := l.TryLock(context.Background(), "", time.Second)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, _, err = l.TryLock(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}
