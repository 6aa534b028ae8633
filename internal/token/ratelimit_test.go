package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryRateLimiter(5*time.Minute, 60)
	l.Now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 60; i++ {
		require.NoError(t, l.Allow(ctx, "tok-1"), "request %d should be admitted", i+1)
	}

	err := l.Allow(ctx, "tok-1")
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.GreaterOrEqual(t, rle.RetryAfter, 1)
	assert.LessOrEqual(t, rle.RetryAfter, 300)
}

func TestMemoryRateLimiterWindowReset(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryRateLimiter(5*time.Minute, 2)
	l.Now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, l.Allow(ctx, "tok-1"))
	require.NoError(t, l.Allow(ctx, "tok-1"))
	require.Error(t, l.Allow(ctx, "tok-1"))

	now = now.Add(5*time.Minute + time.Second)
	assert.NoError(t, l.Allow(ctx, "tok-1"))
}

func TestMemoryRateLimiterKeysIsolated(t *testing.T) {
	l := NewMemoryRateLimiter(time.Minute, 1)

	ctx := context.Background()
	require.NoError(t, l.Allow(ctx, "tok-1"))
	require.Error(t, l.Allow(ctx, "tok-1"))
	assert.NoError(t, l.Allow(ctx, "tok-2"))
}

func TestMemoryRateLimiterRetryAfterShrinks(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryRateLimiter(time.Minute, 1)
	l.Now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, l.Allow(ctx, "tok-1"))

	now = now.Add(59*time.Second + 500*time.Millisecond)
	err := l.Allow(ctx, "tok-1")
	var rle *RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, 1, rle.RetryAfter)
}
