// Package ratelimit throttles calls to cloud AI providers. The wrappers
// satisfy the same ports as the services they wrap, so callers never see
// the limiter.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

// DefaultBackoff is how long calls pause after a provider reports a rate
// limit without saying when to retry.
const DefaultBackoff = 30 * time.Second

// Limiter is a token bucket with a backoff window that opens whenever the
// provider rejects a call as rate limited.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	backoff time.Duration
}

// NewLimiter allows requestsPerMinute calls with a burst of one tenth of
// that, at least one. Zero or negative means unlimited.
func NewLimiter(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 0), backoff: DefaultBackoff}
	}
	burst := max(requestsPerMinute/10, 1)
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60), burst),
		backoff: DefaultBackoff,
	}
}

// Wait blocks until a call may be made.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return l.limiter.Wait(ctx)
}

// Observe opens the backoff window if err is a rate-limit rejection.
func (l *Limiter) Observe(err error) {
	if err == nil || !errors.Is(err, domain.ErrRateLimited) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.retryAt = time.Now().Add(l.backoff)
	logger.Warn("Provider rate limit hit, pausing calls for %s", l.backoff)
}

// Allow reports whether a call could be made now without blocking.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}
	return l.limiter.Allow()
}
