package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Limiter is a sliding-window rate limiter keyed by caller identity (IP or
// email). It sits in front of the reconciliation core as an admission gate;
// nothing downstream depends on it for correctness.
type Limiter struct {
	mu      sync.Mutex
	entries map[string][]time.Time
	now     func() time.Time
}

func NewLimiter() *Limiter {
	l := &Limiter{entries: make(map[string][]time.Time), now: time.Now}
	go l.cleanupLoop()
	return l
}

// Allow records an attempt for key and reports whether it stays within
// limit attempts per window.
func (l *Limiter) Allow(key string, limit int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-window)

	kept := l.entries[key][:0]
	for _, t := range l.entries[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		l.entries[key] = kept
		return false
	}
	l.entries[key] = append(kept, now)
	return true
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		cutoff := l.now().Add(-10 * time.Minute)
		for key, times := range l.entries {
			kept := times[:0]
			for _, t := range times {
				if t.After(cutoff) {
					kept = append(kept, t)
				}
			}
			if len(kept) == 0 {
				delete(l.entries, key)
			} else {
				l.entries[key] = kept
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit returns middleware enforcing limit attempts per window per
// client IP, scoped by name so endpoints do not share budgets.
func RateLimit(limiter *Limiter, name string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := name + ":" + c.ClientIP()
		if !limiter.Allow(key, limit, window) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts. Please wait a moment."})
			return
		}
		c.Next()
	}
}
