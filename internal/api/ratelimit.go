package api

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/lru"
)

// RateLimitConfig holds rate limiter configuration.
type RateLimitConfig struct {
	RPS   int // requests per second
	Burst int // burst size
	// MaxClients bounds the number of tracked client buckets.
	MaxClients int
}

const (
	defaultMaxClients = 10000
	bucketIdleTTL     = 10 * time.Minute
)

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newTokenBucket(rps, burst int, now time.Time) *tokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: float64(rps),
		lastRefill: now,
	}
}

func (b *tokenBucket) allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

type rateLimiter struct {
	clients *lru.Cache[string, *tokenBucket]
	rps     int
	burst   int
	now     func() time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	capacity := cfg.MaxClients
	if capacity <= 0 {
		capacity = defaultMaxClients
	}
	return &rateLimiter{
		clients: lru.New[string, *tokenBucket](capacity, bucketIdleTTL),
		rps:     cfg.RPS,
		burst:   cfg.Burst,
		now:     time.Now,
	}
}

func (rl *rateLimiter) allow(client string) bool {
	now := rl.now()
	bucket := rl.clients.GetOrAdd(client, func() *tokenBucket {
		return newTokenBucket(rl.rps, rl.burst, now)
	})
	return bucket.allow(now)
}

// sweep drops idle buckets until ctx is done.
func (rl *rateLimiter) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.clients.Sweep()
		}
	}
}

// NewRateLimitMiddleware returns a per-client token-bucket rate limiter. Idle buckets are
// swept until ctx is cancelled.
func NewRateLimitMiddleware(ctx context.Context, cfg RateLimitConfig) fiber.Handler {
	rl := newRateLimiter(cfg)
	go rl.sweep(ctx, 5*time.Minute)
	return rl.handler()
}

func (rl *rateLimiter) handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isProbe(c.Path()) {
			return c.Next()
		}

		if !rl.allow(c.IP()) {
			return problemResponse(c, fiber.StatusTooManyRequests,
				"rate_limit_exceeded", "Too Many Requests",
				"Rate limit exceeded. Please try again later.")
		}
		return c.Next()
	}
}
