// Package guard makes the per-request allow/deny decision evaluated before
// route dispatch: bot detection, shield (generic abuse) rules and a
// role-scoped sliding-window rate limit backed by Redis.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"authapi/internal/models"
)

// Kind identifies why a request was denied.
type Kind string

const (
	KindBot       Kind = "bot"
	KindShield    Kind = "shield"
	KindRateLimit Kind = "rate_limit"
)

// Decision is the terminal outcome of evaluating one request. It lives only
// for that request and is never persisted.
type Decision struct {
	Denied bool
	Kind   Kind
	Reason string
}

// Request carries the slice of an inbound HTTP request the rules look at.
type Request struct {
	IP        string
	Role      string
	Method    string
	Path      string
	RawQuery  string
	UserAgent string
}

// Config holds the rate-limit tuning parameters.
type Config struct {
	// Interval is the trailing window the role limit counts over.
	Interval time.Duration
	// Limits maps role to the number of requests allowed per Interval.
	Limits map[string]int
	// Burst caps requests inside BurstWindow regardless of role.
	Burst       int
	BurstWindow time.Duration
}

// DefaultConfig returns the production limits: admin 20, user 10, guest 5
// per 60 seconds, burst ceiling 5 per 10-second sub-window.
func DefaultConfig() Config {
	return Config{
		Interval: 60 * time.Second,
		Limits: map[string]int{
			models.RoleAdmin: 20,
			models.RoleUser:  10,
			models.RoleGuest: 5,
		},
		Burst:       5,
		BurstWindow: 10 * time.Second,
	}
}

// Engine evaluates the rules in a fixed order; the first denial wins.
type Engine struct {
	redis  redis.UniversalClient
	config Config
	logger *zap.Logger
	now    func() time.Time
}

func NewEngine(redisClient redis.UniversalClient, cfg Config, logger *zap.Logger) *Engine {
	return &Engine{
		redis:  redisClient,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Protect evaluates bot, shield and rate-limit rules against the request.
// A non-nil error means the guard itself failed and the request must be
// rejected with an internal error, never silently allowed through.
func (e *Engine) Protect(ctx context.Context, req Request) (Decision, error) {
	if d := detectBot(req); d.Denied {
		return d, nil
	}
	if d := shield(req); d.Denied {
		return d, nil
	}
	return e.slidingWindow(ctx, req)
}

// slidingWindow counts requests per IP and role scope in a Redis sorted set
// keyed by arrival time. The denied request still consumes a slot, so a
// caller cannot probe the limit for free.
func (e *Engine) slidingWindow(ctx context.Context, req Request) (Decision, error) {
	role := req.Role
	limit, ok := e.config.Limits[role]
	if !ok {
		role = models.RoleGuest
		limit = e.config.Limits[models.RoleGuest]
	}

	key := "guard:rl:" + role + ":" + req.IP
	now := e.now()
	windowStart := now.Add(-e.config.Interval)
	burstStart := now.Add(-e.config.BurstWindow)

	pipe := e.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	windowCount := pipe.ZCard(ctx, key)
	burstCount := pipe.ZCount(ctx, key, fmt.Sprintf("%d", burstStart.UnixNano()), "+inf")
	pipe.Expire(ctx, key, e.config.Interval)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit evaluation failed: %w", err)
	}

	if windowCount.Val() > int64(limit) {
		e.logger.Warn("Rate limit exceeded",
			zap.String("role", role),
			zap.String("ip", req.IP),
			zap.Int64("count", windowCount.Val()),
			zap.Int("limit", limit),
		)
		return Decision{Denied: true, Kind: KindRateLimit, Reason: fmt.Sprintf("%s limit of %d per interval exceeded", role, limit)}, nil
	}
	if burstCount.Val() > int64(e.config.Burst) {
		e.logger.Warn("Burst ceiling exceeded",
			zap.String("role", role),
			zap.String("ip", req.IP),
			zap.Int64("count", burstCount.Val()),
		)
		return Decision{Denied: true, Kind: KindRateLimit, Reason: fmt.Sprintf("burst ceiling of %d exceeded", e.config.Burst)}, nil
	}

	return Decision{}, nil
}
