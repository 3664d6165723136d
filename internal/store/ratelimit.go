package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"golang.org/x/time/rate"
)

// MemoryRateLimiter implements RateLimiter with one golang.org/x/time/rate
// limiter per key, for single-process deployments or as the fallback when
// no Valkey backend is configured.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	burst    int
}

// NewMemoryRateLimiter builds a RateLimiter allowing r events per second
// (sustained), with the given burst, per key.
func NewMemoryRateLimiter(eventsPerSecond float64, burst int) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        rate.Limit(eventsPerSecond),
		burst:    burst,
	}
}

func (m *MemoryRateLimiter) limiterFor(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.limiters[key]
	if !ok {
		l = rate.NewLimiter(m.r, m.burst)
		m.limiters[key] = l
	}
	return l
}

func (m *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	return m.limiterFor(key).Allow(), nil
}

// TruncatedTokenKey derives the rate-limit key from an access token: a
// truncated SHA-256 digest, per spec.md §5, so raw tokens never end up as
// map keys or cache keys in logs or backends.
func TruncatedTokenKey(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return hex.EncodeToString(sum[:])[:16]
}
