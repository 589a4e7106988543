package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is an in-process token bucket limiter keyed by caller.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	perSec   float64
	burst    float64
	staleTTL time.Duration
}

type bucket struct {
	tokens float64
	seen   time.Time
}

func NewRateLimiter(perSec, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		perSec:   float64(perSec),
		burst:    float64(burst),
		staleTTL: 5 * time.Minute,
	}
	go rl.evictStale()
	return rl
}

func (rl *RateLimiter) evictStale() {
	for range time.Tick(rl.staleTTL) {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.staleTTL)
		for key, b := range rl.buckets {
			if b.seen.Before(cutoff) {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow consumes one token for key, refilling at the configured rate.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[key]
	if !ok {
		rl.buckets[key] = &bucket{tokens: rl.burst - 1, seen: now}
		return true
	}

	b.tokens += now.Sub(b.seen).Seconds() * rl.perSec
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RateLimitMiddleware limits requests keyed by "tenant", "user" or "ip".
// Tenant and user keys fall back to the client IP when the header is absent,
// so unauthenticated callers still share one bucket.
func RateLimitMiddleware(limiter *RateLimiter, keyType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		switch keyType {
		case "tenant":
			if id := c.GetString("tenantID"); id != "" {
				key = id
			}
		case "user":
			if id := c.GetString("userID"); id != "" {
				key = id
			}
		}

		if !limiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests, please try again later",
			})
			return
		}

		c.Next()
	}
}

// WalletRateLimits groups the per-surface limiters. Order creation and payout
// requests are tighter than reads; webhooks get the widest budget because
// providers redeliver in bursts.
type WalletRateLimits struct {
	CreateOrder   *RateLimiter
	PayoutRequest *RateLimiter
	APIGeneral    *RateLimiter
	Webhook       *RateLimiter
}

func NewWalletRateLimits() *WalletRateLimits {
	return &WalletRateLimits{
		CreateOrder:   NewRateLimiter(10, 30),
		PayoutRequest: NewRateLimiter(5, 15),
		APIGeneral:    NewRateLimiter(100, 200),
		Webhook:       NewRateLimiter(500, 1000),
	}
}
