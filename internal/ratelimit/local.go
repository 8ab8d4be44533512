package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/voltixaudit/voltix/internal/clock"
)

type bucketState struct {
	tokens float64
	ts     time.Time
}

// LocalBucket is the in-process token bucket used when Redis is not
// configured. Least recently used keys are evicted past size.
type LocalBucket struct {
	mu      sync.Mutex
	clock   clock.Clock
	buckets *lru.Cache[string, *bucketState]
}

func NewLocalBucket(clk clock.Clock, size int) *LocalBucket {
	if size <= 0 {
		size = 10000
	}
	buckets, _ := lru.New[string, *bucketState](size)
	return &LocalBucket{clock: clk, buckets: buckets}
}

func (l *LocalBucket) Allow(ctx context.Context, key string, policy Policy) (Result, error) {
	if key == "" {
		return Result{}, ErrEmptyKey
	}
	if err := policy.validate(); err != nil {
		return Result{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	state, ok := l.buckets.Get(key)
	if !ok {
		state = &bucketState{tokens: float64(policy.Burst), ts: now}
		l.buckets.Add(key, state)
	} else {
		elapsed := now.Sub(state.ts).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		state.tokens = math.Min(float64(policy.Burst), state.tokens+elapsed*policy.Rate)
		state.ts = now
	}

	allowed := state.tokens >= 1
	if allowed {
		state.tokens--
	}
	return newResult(allowed, state.tokens, policy), nil
}
