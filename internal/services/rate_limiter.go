package services

import (
	"context"
	"sync"
	"time"

	"github.com/copper-mobile/app-api/internal/logging"
	"go.uber.org/zap"
)

// RateLimiter implements a token bucket rate limiter
type RateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
	mutex      sync.Mutex
	now        func() time.Time
	logger     *logging.SafeLogger
}

// NewRateLimiter creates a new token bucket rate limiter. A non-positive
// refillRate is raised to one nanosecond.
func NewRateLimiter(maxTokens int, refillRate time.Duration, logger *logging.SafeLogger) *RateLimiter {
	if refillRate <= 0 {
		refillRate = time.Nanosecond
	}
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
		now:        time.Now,
		logger:     logger,
	}
}

// MaxPerMinute is the highest per-minute limit; above it the refill
// interval would drop below a millisecond.
const MaxPerMinute = 60000

// NewPerMinuteRateLimiter allows maxPerMinute operations per minute with a
// burst of the same size. A non-positive limit returns nil, which allows
// everything. Limits above MaxPerMinute are capped.
func NewPerMinuteRateLimiter(maxPerMinute int, logger *logging.SafeLogger) *RateLimiter {
	if maxPerMinute <= 0 {
		return nil
	}
	if maxPerMinute > MaxPerMinute {
		maxPerMinute = MaxPerMinute
	}
	return NewRateLimiter(maxPerMinute, time.Minute/time.Duration(maxPerMinute), logger)
}

// Allow checks if a request should be allowed based on rate limiting
func (rl *RateLimiter) Allow(ctx context.Context, operation string) bool {
	if rl == nil {
		return true
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	elapsed := now.Sub(rl.lastRefill)

	tokensToAdd := int(elapsed / rl.refillRate)
	if tokensToAdd > 0 {
		rl.tokens += tokensToAdd
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		// Keep the remainder so partial intervals are not lost.
		rl.lastRefill = rl.lastRefill.Add(time.Duration(tokensToAdd) * rl.refillRate)

		rl.logger.Debug("rate limiter tokens refilled",
			zap.String("operation", operation),
			zap.Int("tokens_added", tokensToAdd),
			zap.Int("current_tokens", rl.tokens))
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}

	rl.logger.Warn("rate limiter rejected request",
		zap.String("operation", operation),
		zap.Int("max_tokens", rl.maxTokens))
	return false
}

// GetStatus returns the current and maximum tokens
func (rl *RateLimiter) GetStatus() (int, int) {
	if rl == nil {
		return 0, 0
	}
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return rl.tokens, rl.maxTokens
}
