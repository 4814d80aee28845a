package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/defect-portal/internal/http/respond"
	"github.com/hongminglow/defect-portal/internal/metrics"
)

// RateLimiter is a per-client token bucket limiter.
type RateLimiter struct {
	rate       time.Duration
	capacity   int
	buckets    map[string]*tokenBucket
	mu         sync.Mutex
	cleanupTTL time.Duration
	now        func() time.Time
}

type tokenBucket struct {
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter allows requestsPerMinute sustained with bursts up to burst.
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rate:       time.Minute / time.Duration(requestsPerMinute),
		capacity:   burst,
		buckets:    make(map[string]*tokenBucket),
		cleanupTTL: 10 * time.Minute,
		now:        time.Now,
	}
}

// Allow takes a token for key if one is available.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &tokenBucket{tokens: rl.capacity, lastRefill: now}
		rl.buckets[key] = bucket
	}

	if refill := int(now.Sub(bucket.lastRefill) / rl.rate); refill > 0 {
		bucket.tokens = min(bucket.tokens+refill, rl.capacity)
		bucket.lastRefill = bucket.lastRefill.Add(time.Duration(refill) * rl.rate)
	}
	if bucket.tokens == 0 {
		return false
	}
	bucket.tokens--
	return true
}

// Cleanup drops buckets idle for longer than the cleanup TTL.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, bucket := range rl.buckets {
		if now.Sub(bucket.lastRefill) > rl.cleanupTTL {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanup runs Cleanup every interval until stop is closed.
func (rl *RateLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}

// RateLimit rejects requests to the listed paths once a client exhausts its bucket.
func RateLimit(limiter *RateLimiter, paths []string, logger *zap.Logger, next http.Handler) http.Handler {
	limited := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		limited[p] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := limited[r.URL.Path]; !ok {
			next.ServeHTTP(w, r)
			return
		}
		ip := ClientIP(r)
		if !limiter.Allow(ip) {
			metrics.RateLimited.WithLabelValues(r.URL.Path).Inc()
			logger.Warn("rate limit exceeded",
				zap.String("ip", ip),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
			respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the caller's address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
