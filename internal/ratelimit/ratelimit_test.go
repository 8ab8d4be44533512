package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltixaudit/voltix/internal/clock"
)

func TestLocalBucketRefills(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	bucket := NewLocalBucket(fake, 16)
	policy := Policy{Rate: 1, Burst: 2}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := bucket.Allow(ctx, "ip", policy)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := bucket.Allow(ctx, "ip", policy)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Second, res.RetryAfter)

	other, err := bucket.Allow(ctx, "other", policy)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	fake.Advance(time.Second)
	res, err = bucket.Allow(ctx, "ip", policy)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestLocalBucketRejectsBadInput(t *testing.T) {
	bucket := NewLocalBucket(clock.SystemClock{}, 0)
	_, err := bucket.Allow(context.Background(), "", Policy{Rate: 1, Burst: 1})
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, err = bucket.Allow(context.Background(), "k", Policy{})
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestNilAuthLimiterAllows(t *testing.T) {
	var limiter *AuthLimiter
	res, err := limiter.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestNilTokenBucket(t *testing.T) {
	assert.Nil(t, NewTokenBucket(nil))
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", Policy{Rate: 1, Burst: 1})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 60*time.Second, bucketTTL(Policy{Rate: 10.0 / 60, Burst: 5}))
	assert.Equal(t, time.Second, bucketTTL(Policy{Rate: 100, Burst: 1}))
}
