package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// rateLimiterStore holds a map of IP addresses to their rate limiters.
type rateLimiterStore struct {
	limiters map[string]*visitor
	every    rate.Limit
	burst    int
	mu       sync.Mutex
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// idleVisitor is how long an IP may stay quiet before its limiter is dropped.
const idleVisitor = 10 * time.Minute

func newRateLimiterStore(perMinute, burst int) *rateLimiterStore {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = perMinute
	}
	return &rateLimiterStore{
		limiters: make(map[string]*visitor),
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

// getLimiter returns the rate limiter for a given IP, creating one if it doesn't exist.
func (s *rateLimiterStore) getLimiter(ip string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exists := s.limiters[ip]
	if !exists {
		if len(s.limiters) > 1024 {
			s.evictLocked(now)
		}
		v = &visitor{limiter: rate.NewLimiter(s.every, s.burst)}
		s.limiters[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (s *rateLimiterStore) evictLocked(now time.Time) {
	for ip, v := range s.limiters {
		if now.Sub(v.lastSeen) > idleVisitor {
			delete(s.limiters, ip)
		}
	}
}

// RateLimitMiddleware limits requests per IP address to perMinute, answering
// 429 with a JSON body once the budget is spent.
func RateLimitMiddleware(perMinute int) gin.HandlerFunc {
	return limit(newRateLimiterStore(perMinute, perMinute), "api", func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
	})
}

// LoginThrottle caps how often one IP may ask the auth service for codes.
func LoginThrottle(perMinute int) gin.HandlerFunc {
	return limit(newRateLimiterStore(perMinute, perMinute), "login", func(c *gin.Context) {
		c.String(http.StatusTooManyRequests, "Too many login attempts. Wait a minute and try again.")
		c.Abort()
	})
}

func limit(store *rateLimiterStore, scope string, reject gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := getClientIP(c)
		if !store.getLimiter(ip, time.Now()).Allow() {
			zap.L().Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("scope", scope))
			reject(c)
			return
		}
		c.Next()
	}
}
