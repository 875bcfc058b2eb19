package brokerkit

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ambiyansyah-risyal/brokerkit/internal/backoff"
)

// BackoffSchedule configures retry pacing. Immutable once handed to the
// client.
type BackoffSchedule struct {
	// BaseDelay seeds the exponential curve. Default 100ms.
	BaseDelay time.Duration
	// Multiplier grows the delay per attempt. Default 2.0.
	Multiplier float64
	// MaxDelay caps the computed delay. Default 10s.
	MaxDelay time.Duration
	// MaxAttempts bounds total tries including the first. Default 4.
	MaxAttempts int
	// Jitter is the ± fraction applied to each delay, clamped to [0,1].
	// Default 0.1.
	Jitter float64
}

func (s BackoffSchedule) withDefaults() BackoffSchedule {
	if s.BaseDelay == 0 {
		s.BaseDelay = 100 * time.Millisecond
	}
	if s.Multiplier == 0 {
		s.Multiplier = 2.0
	}
	if s.MaxDelay == 0 {
		s.MaxDelay = 10 * time.Second
	}
	if s.MaxAttempts == 0 {
		s.MaxAttempts = 4
	}
	return s
}

// RetryPolicy decides whether and when a failed attempt is retried.
type RetryPolicy interface {
	// ShouldRetry inspects the classified outcome of attempt (0-based) and
	// returns the delay before the next try. A false result terminates the
	// request with the attempt's error.
	ShouldRetry(res *Response, kind ErrorKind, attempt int) (time.Duration, bool)
}

// DefaultRetryPolicy retries retryable outcomes with exponential backoff and
// jitter, honouring server Retry-After hints by taking the larger of hint
// and computed delay.
type DefaultRetryPolicy struct {
	schedule BackoffSchedule
	calc     *backoff.Calculator
}

// NewRetryPolicy builds the default policy from a schedule.
func NewRetryPolicy(schedule BackoffSchedule) *DefaultRetryPolicy {
	return &DefaultRetryPolicy{
		schedule: schedule.withDefaults(),
		calc:     backoff.Exponential(),
	}
}

// NewRetryPolicyWithCalculator builds a policy using a custom backoff
// calculator, e.g. backoff.Decorrelated().
func NewRetryPolicyWithCalculator(schedule BackoffSchedule, calc *backoff.Calculator) *DefaultRetryPolicy {
	return &DefaultRetryPolicy{schedule: schedule.withDefaults(), calc: calc}
}

// ShouldRetry implements RetryPolicy.
func (p *DefaultRetryPolicy) ShouldRetry(res *Response, kind ErrorKind, attempt int) (time.Duration, bool) {
	if !IsRetryable(kind) {
		return 0, false
	}
	// attempt is 0-based; attempt+1 tries have happened.
	if attempt+1 >= p.schedule.MaxAttempts {
		return 0, false
	}

	delay := p.calc.Calculate(attempt, p.schedule.BaseDelay, p.schedule.MaxDelay,
		p.schedule.Multiplier, p.schedule.Jitter)

	// Server throttling may carry an explicit hint. Local backoff and the
	// hint are independent constraints, so take the larger.
	if kind == KindRateLimited && res != nil {
		if hint := parseRetryAfter(res.Header.Get("Retry-After")); hint > delay {
			delay = hint
		}
	}

	return delay, true
}

// parseRetryAfter parses a Retry-After header in either delay-seconds or
// HTTP-date form. Hints above one hour are capped; unparseable values yield
// zero.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if seconds <= 0 {
			return 0
		}
		delay := time.Duration(seconds) * time.Second
		if delay > time.Hour {
			delay = time.Hour
		}
		return delay
	}

	if t, err := http.ParseTime(value); err == nil {
		delay := time.Until(t)
		if delay > 0 && delay <= time.Hour {
			return delay
		}
	}

	return 0
}
