package token

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	DefaultRateWindow = 5 * time.Minute
	DefaultRateLimit  = 60
)

// RateLimitError carries how long the caller must wait, in whole seconds.
type RateLimitError struct {
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", e.RetryAfter)
}

// RateLimiter admits or rejects one request for a credential key. The Redis
// implementation keeps quotas correct across server instances; the in-memory
// one covers single-process runs and tests.
type RateLimiter interface {
	Allow(ctx context.Context, key string) error
}

type memoryWindow struct {
	count     int
	resetTime time.Time
}

// MemoryRateLimiter is a fixed-window counter in process memory. Not safe
// across multiple server instances.
type MemoryRateLimiter struct {
	Window time.Duration
	Limit  int
	Now    func() time.Time

	mu      sync.Mutex
	windows map[string]*memoryWindow
}

func NewMemoryRateLimiter(window time.Duration, limit int) *MemoryRateLimiter {
	if window <= 0 {
		window = DefaultRateWindow
	}
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	return &MemoryRateLimiter{
		Window:  window,
		Limit:   limit,
		Now:     time.Now,
		windows: make(map[string]*memoryWindow),
	}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.Now()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetTime) {
		l.windows[key] = &memoryWindow{count: 1, resetTime: now.Add(l.Window)}
		return nil
	}
	w.count++
	if w.count > l.Limit {
		retry := int(math.Ceil(w.resetTime.Sub(now).Seconds()))
		if retry < 1 {
			retry = 1
		}
		return &RateLimitError{RetryAfter: retry}
	}
	return nil
}
