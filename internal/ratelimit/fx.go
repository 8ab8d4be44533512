package ratelimit

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/voltixaudit/voltix/internal/clock"
	"github.com/voltixaudit/voltix/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(New),
)

type Limiter interface {
	Allow(ctx context.Context, key string, policy Policy) (Result, error)
}

// AuthLimiter throttles signup and login attempts per client.
type AuthLimiter struct {
	limiter Limiter
	policy  Policy
}

type Params struct {
	fx.In

	Config config.Config
	Clock  clock.Clock
	Log    *zap.Logger
	Redis  *redis.Client `optional:"true"`
}

// New returns nil when rate limiting is disabled.
func New(p Params) *AuthLimiter {
	cfg := p.Config.RateLimit
	if !cfg.Enabled {
		return nil
	}
	policy := Policy{Rate: cfg.AuthPerMinute / 60, Burst: cfg.AuthBurst}
	if policy.validate() != nil {
		policy = Policy{Rate: 10.0 / 60, Burst: 5}
	}

	log := p.Log.Named("ratelimit")
	if p.Redis != nil {
		log.Info("using redis token bucket")
		return NewAuthLimiter(NewTokenBucket(p.Redis), policy)
	}
	log.Info("redis not configured, using in-process token bucket")
	return NewAuthLimiter(NewLocalBucket(p.Clock, cfg.LocalCacheSize), policy)
}

func NewAuthLimiter(limiter Limiter, policy Policy) *AuthLimiter {
	return &AuthLimiter{limiter: limiter, policy: policy}
}

// Allow reports whether client may attempt another auth call. A nil limiter
// allows everything.
func (a *AuthLimiter) Allow(ctx context.Context, client string) (Result, error) {
	if a == nil || a.limiter == nil {
		return Result{Allowed: true}, nil
	}
	return a.limiter.Allow(ctx, "voltix:auth:"+client, a.policy)
}
