package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/mentor-chat/internal/common"
	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client IP. Buckets idle for longer than
// idleTTL are dropped on the next sweep.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	lastScan time.Time
}

type ipLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewIPRateLimiter allows rpm requests per minute with the given burst. rpm <= 0 disables
// limiting.
func NewIPRateLimiter(rpm, burst int) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	l := rate.Inf
	if rpm > 0 {
		l = rate.Limit(float64(rpm) / 60.0)
	}
	return &IPRateLimiter{
		limiters: make(map[string]*ipLimiter),
		limit:    l,
		burst:    burst,
		idleTTL:  10 * time.Minute,
		lastScan: time.Now(),
	}
}

func (r *IPRateLimiter) Allow(ip string) bool {
	if r.limit == rate.Inf {
		return true
	}
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if now.Sub(r.lastScan) > r.idleTTL {
		for k, v := range r.limiters {
			if now.Sub(v.seen) > r.idleTTL {
				delete(r.limiters, k)
			}
		}
		r.lastScan = now
	}

	il, ok := r.limiters[ip]
	if !ok {
		il = &ipLimiter{lim: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[ip] = il
	}
	il.seen = now
	return il.lim.AllowN(now, 1)
}

func RateLimit(r *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			common.Fail(c, http.StatusTooManyRequests, 42900, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
