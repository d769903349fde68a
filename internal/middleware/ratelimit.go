package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per client IP. Each bucket refills
// maxRequests tokens per window with a burst of maxRequests.
type RateLimiter struct {
	maxReqs int
	window  time.Duration
	now     func() time.Time

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimit(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		maxReqs: maxRequests,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[ip]
	if !ok {
		every := rl.window / time.Duration(rl.maxReqs)
		cl = &client{limiter: rate.NewLimiter(rate.Every(every), rl.maxReqs)}
		rl.clients[ip] = cl
	}
	cl.lastSeen = rl.now()
	return cl.limiter
}

// Cleanup forgets clients idle for longer than a window and returns how many
// are still tracked.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.window)
	for ip, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
	return len(rl.clients)
}

// RateLimitMiddleware rejects clients that exceed their bucket with 429.
func RateLimitMiddleware(rateLimiter *RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		now := rateLimiter.now()
		limiter := rateLimiter.get(clientIP)

		c.Header("X-RateLimit-Limit", strconv.Itoa(rateLimiter.maxReqs))

		if !limiter.AllowN(now, 1) {
			r := limiter.ReserveN(now, 1)
			reset := now.Add(r.DelayFrom(now))
			r.CancelAt(now)

			logger.Warn("Rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.Int("max_requests", rateLimiter.maxReqs),
				zap.Duration("window", rateLimiter.window),
			)

			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(reset.Sub(now).Seconds()))))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
				"code":  "RATE_LIMIT_EXCEEDED",
			})
			c.Abort()
			return
		}

		remaining := int(limiter.TokensAt(now))
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(now.Add(rateLimiter.window).Unix(), 10))

		c.Next()
	}
}
