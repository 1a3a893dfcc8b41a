package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/d1mk9/aiproxy/internal/endpoints"
	"github.com/d1mk9/aiproxy/internal/metrics"
)

// idleTTL is how long an unused client bucket is kept.
const idleTTL = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows perMinute requests per key, with bursts up to perMinute.
// A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return &RateLimiter{clients: make(map[string]*client), limit: rate.Inf, now: time.Now}
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		now:     time.Now,
	}
}

// Allow reports whether a request from key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > idleTTL {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) > idleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// RateLimitMiddleware rejects clients, keyed by IP, that exceed perMinute
// requests. OPTIONS preflights are never limited.
func RateLimitMiddleware(perMinute int) gin.HandlerFunc {
	limiter := NewRateLimiter(perMinute)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		clientIP := c.ClientIP()
		if !limiter.Allow(clientIP) {
			metrics.RateLimitedTotal.Inc()
			log.Warnf("Rate limit exceeded for IP: %s", clientIP)
			reply := endpoints.Error(http.StatusTooManyRequests, "Rate limit exceeded")
			for k, vs := range reply.Header {
				for _, v := range vs {
					c.Writer.Header().Add(k, v)
				}
			}
			c.Header("Retry-After", "60")
			c.Data(reply.Status, reply.Header.Get("Content-Type"), reply.Body)
			c.Abort()
			return
		}

		c.Next()
	}
}
