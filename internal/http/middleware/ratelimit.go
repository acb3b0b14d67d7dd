package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window admission counter per client IP. The
// store is process-local; a multi-instance deployment would need a shared
// counter behind the same interface.
type RateLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	start  time.Time

	Max    int
	Window time.Duration
	now    func() time.Time
}

func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counts: make(map[string]int),
		start:  time.Now(),
		Max:    max,
		Window: window,
		now:    time.Now,
	}
}

// Allow counts one request from the given identity within the current
// window.
func (rl *RateLimiter) Allow(identity string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.start) >= rl.Window {
		rl.counts = make(map[string]int)
		rl.start = now
	}
	if rl.counts[identity] >= rl.Max {
		return false
	}
	rl.counts[identity]++
	return true
}

// Handler rejects over-budget clients with 429 before any handler runs.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  "fail",
				"message": "Too many requests from this IP, please try again in an hour!",
			})
			return
		}
		c.Next()
	}
}
