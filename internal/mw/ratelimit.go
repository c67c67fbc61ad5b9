package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiters tracks one token bucket per client IP. Waiter handhelds and
// kitchen displays poll aggressively; the bucket keeps one misbehaving
// client from starving the rest.
type clientLimiters struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	b        int
}

func newClientLimiters(r rate.Limit, b int) *clientLimiters {
	return &clientLimiters{
		limiters: make(map[string]*rate.Limiter),
		r:        r,
		b:        b,
	}
}

func (c *clientLimiters) get(ip string) *rate.Limiter {
	c.mu.RLock()
	limiter, ok := c.limiters[ip]
	c.mu.RUnlock()
	if ok {
		return limiter
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if limiter, ok = c.limiters[ip]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(c.r, c.b)
	c.limiters[ip] = limiter
	return limiter
}

// RateLimiter is a middleware for per-client-IP rate limiting.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	clients := newClientLimiters(r, b)
	return func(c *gin.Context) {
		if !clients.get(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
