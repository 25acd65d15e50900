package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/naodludzie/backend/internal/http/response"
	"github.com/naodludzie/backend/internal/repo/postgres"
)

// RateLimitConfig defines rate limiting parameters.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	KeyFunc  func(r *http.Request) []string
	SkipFunc func(r *http.Request) bool
}

// RateLimiter throttles requests against the shared Postgres counter table,
// so limits hold across replicas. Fails open on database errors.
type RateLimiter struct {
	repo   postgres.RateLimitRepository
	config RateLimitConfig
}

func NewRateLimiter(repo postgres.RateLimitRepository, config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = IPKeyFunc
	}
	return &RateLimiter{repo: repo, config: config}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.config.SkipFunc != nil && rl.config.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			for _, key := range rl.config.KeyFunc(r) {
				allowed, err := rl.repo.CheckRateLimit(r.Context(), key, rl.config.Requests, rl.config.Window)
				if err != nil {
					continue // fail open
				}
				if !allowed {
					response.RateLimit(w, "too many requests, try again later")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IPKeyFunc limits by client IP only.
func IPKeyFunc(r *http.Request) []string {
	if ip := clientIP(r); ip != "" {
		return []string{"ip:" + ip}
	}
	return nil
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
