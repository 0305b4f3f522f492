package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/copper-mobile/app-api/internal/logging"
	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced clock shared by the service tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(maxTokens int, refill time.Duration, clock *fakeClock) *RateLimiter {
	rl := NewRateLimiter(maxTokens, refill, logging.Logger)
	rl.now = clock.Now
	rl.lastRefill = clock.Now()
	return rl
}

func TestRateLimiter_InitialBurst(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(3, time.Second, clock)
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "sms_dispatch"))
	assert.True(t, rl.Allow(ctx, "sms_dispatch"))
	assert.True(t, rl.Allow(ctx, "sms_dispatch"))
	assert.False(t, rl.Allow(ctx, "sms_dispatch"))

	tokens, maxTokens := rl.GetStatus()
	assert.Equal(t, 0, tokens)
	assert.Equal(t, 3, maxTokens)
}

func TestRateLimiter_Refill(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(2, 100*time.Millisecond, clock)
	ctx := context.Background()

	rl.Allow(ctx, "op")
	rl.Allow(ctx, "op")
	assert.False(t, rl.Allow(ctx, "op"))

	clock.Advance(100 * time.Millisecond)
	assert.True(t, rl.Allow(ctx, "op"))
	assert.False(t, rl.Allow(ctx, "op"))
}

func TestRateLimiter_RefillCapsAtMax(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(2, 10*time.Millisecond, clock)
	ctx := context.Background()

	rl.Allow(ctx, "op")
	clock.Advance(time.Hour)
	rl.Allow(ctx, "op")

	tokens, _ := rl.GetStatus()
	assert.Equal(t, 1, tokens)
}

func TestRateLimiter_KeepsPartialIntervals(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(1, 100*time.Millisecond, clock)
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "op"))

	clock.Advance(150 * time.Millisecond)
	assert.True(t, rl.Allow(ctx, "op"))

	// 50ms of the previous interval carried over.
	clock.Advance(50 * time.Millisecond)
	assert.True(t, rl.Allow(ctx, "op"))
}

func TestRateLimiter_Concurrent(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(50, time.Hour, clock)
	ctx := context.Background()

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow(ctx, "op") {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), allowed)
}

func TestNewPerMinuteRateLimiter(t *testing.T) {
	assert.Nil(t, NewPerMinuteRateLimiter(0, logging.Logger))

	var disabled *RateLimiter
	assert.True(t, disabled.Allow(context.Background(), "op"))

	rl := NewPerMinuteRateLimiter(120, logging.Logger)
	_, maxTokens := rl.GetStatus()
	assert.Equal(t, 120, maxTokens)
	assert.Equal(t, 500*time.Millisecond, rl.refillRate)
}

func TestNewPerMinuteRateLimiter_CapsLimit(t *testing.T) {
	rl := NewPerMinuteRateLimiter(100_000_000_000, logging.Logger)
	_, maxTokens := rl.GetStatus()
	assert.Equal(t, MaxPerMinute, maxTokens)
	assert.Equal(t, time.Millisecond, rl.refillRate)
	assert.NotPanics(t, func() { rl.Allow(context.Background(), "op") })
}

func TestNewRateLimiter_ZeroRefill(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(1, 0, logging.Logger)
	rl.now = clock.Now
	rl.lastRefill = clock.Now()

	assert.True(t, rl.Allow(context.Background(), "op"))
	clock.Advance(time.Nanosecond)
	assert.NotPanics(t, func() { assert.True(t, rl.Allow(context.Background(), "op")) })
}
