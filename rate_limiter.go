package brokerkit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SlidingWindowLimiter admits at most limit requests in any trailing window.
// Acquire blocks until the oldest counted admission falls outside the window
// rather than polling. Admission check-and-record is atomic per limiter; a
// cancelled wait records nothing.
type SlidingWindowLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	admitted []time.Time

	now func() time.Time
}

// NewSlidingWindowLimiter builds a limiter admitting limit requests per
// window.
func NewSlidingWindowLimiter(limit int, window time.Duration) *SlidingWindowLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &SlidingWindowLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Acquire implements Limiter.
func (l *SlidingWindowLimiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if len(l.admitted) < l.limit {
			l.admitted = append(l.admitted, now)
			l.mu.Unlock()
			return nil
		}

		// Wait until the oldest admission leaves the window.
		wait := l.admitted[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Admitted returns the number of admissions currently inside the window.
func (l *SlidingWindowLimiter) Admitted() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.admitted)
}

func (l *SlidingWindowLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.admitted) && !l.admitted[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.admitted = append(l.admitted[:0], l.admitted[i:]...)
	}
}

// TokenBucketLimiter is a Limiter backed by golang.org/x/time/rate. It
// refills continuously instead of tracking a discrete window, trading exact
// window semantics for burst tolerance.
type TokenBucketLimiter struct {
	limiter *rate.Limiter
}

// NewTokenBucketLimiter builds a limiter refilling at rps tokens per second
// with the given burst capacity.
func NewTokenBucketLimiter(rps float64, burst int) *TokenBucketLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucketLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Acquire implements Limiter.
func (l *TokenBucketLimiter) Acquire(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
