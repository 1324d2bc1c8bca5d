// Package ratelimit gates outbound classifier calls with a token bucket.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
)

// Ensure Limiter implements the interfaces.
var (
	_ driven.RateLimiter = (*Limiter)(nil)
	_ driven.Throttler   = (*Limiter)(nil)
)

// DefaultRetryAfter is the pause applied when the classifier rejects a call
// without saying how long to wait.
const DefaultRetryAfter = 30 * time.Second

// Limiter is a token bucket shared by every category judgment of a run.
// After Throttle, all callers wait until the retry time has passed.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// New creates a limiter allowing requestsPerSecond sustained calls with the
// given burst. Non-positive values fall back to the audit defaults.
func New(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = domain.DefaultRequestsPerSecond
	}
	if burst <= 0 {
		burst = domain.DefaultBurst
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		now:     time.Now,
	}
}

// FromSettings creates a limiter from audit settings.
func FromSettings(s domain.AuditSettings) *Limiter {
	return New(s.RequestsPerSecond, s.Burst)
}

// Wait blocks until a call can be made without exceeding the rate limit.
// It also respects any pause set by Throttle.
func (l *Limiter) Wait(ctx context.Context) error {
	if wait := l.pause(); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return l.limiter.Wait(ctx)
}

// Throttle pauses every caller for retryAfter. A shorter pause never
// replaces a longer one already in effect.
func (l *Limiter) Throttle(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = DefaultRetryAfter
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if at := l.now().Add(retryAfter); at.After(l.retryAt) {
		l.retryAt = at
	}
}

// Allow reports whether a call can be made immediately without blocking.
func (l *Limiter) Allow() bool {
	if l.pause() > 0 {
		return false
	}
	return l.limiter.Allow()
}

func (l *Limiter) pause() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.retryAt.Sub(l.now())
}
