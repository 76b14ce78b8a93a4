package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterStats counts rate limiter decisions
type RateLimiterStats struct {
	Enabled          bool    `json:"enabled"`
	RPS              float64 `json:"rps"`
	Burst            int     `json:"burst"`
	TotalRequests    int64   `json:"totalRequests"`
	AllowedRequests  int64   `json:"allowedRequests"`
	RejectedRequests int64   `json:"rejectedRequests"`
	TrackedClients   int     `json:"trackedClients"`
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client. Signed-in clients are keyed
// by user id, anonymous ones by IP.
type RateLimiter struct {
	enabled bool
	rps     rate.Limit
	burst   int

	mu       sync.Mutex
	clients  map[string]*clientLimiter
	total    int64
	allowed  int64
	rejected int64
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second per
// client with the given burst
func NewRateLimiter(enabled bool, rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		enabled: enabled,
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Allow reports whether key may make a request now
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.total++
	if !l.enabled {
		l.allowed++
		return true
	}

	now := l.now()
	cl, ok := l.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = now

	if !cl.limiter.AllowN(now, 1) {
		l.rejected++
		return false
	}
	l.allowed++
	return true
}

// Middleware rejects requests over the limit with 429
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if identity := CurrentIdentity(c); identity != nil {
			key = "user:" + identity.UserID
		}

		if !l.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Success: false,
				Error:   "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}

// Sweep forgets clients idle for longer than idle
func (l *RateLimiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	removed := 0
	for key, cl := range l.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of the counters
func (l *RateLimiter) Stats() RateLimiterStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return RateLimiterStats{
		Enabled:          l.enabled,
		RPS:              float64(l.rps),
		Burst:            l.burst,
		TotalRequests:    l.total,
		AllowedRequests:  l.allowed,
		RejectedRequests: l.rejected,
		TrackedClients:   len(l.clients),
	}
}
