package backoff

import (
	"math/rand"
	"time"
)

// Strategy is a backoff calculation algorithm.
type Strategy interface {
	// Calculate returns the delay before the given retry attempt.
	// Attempt numbering starts at 0 for the first retry.
	Calculate(attempt int, base, max time.Duration, multiplier, jitter float64) time.Duration
}

// ExponentialJitter grows the delay geometrically and spreads it with
// symmetric jitter: min(base * multiplier^attempt, max) * (1 ± jitter).
type ExponentialJitter struct{}

// Calculate implements Strategy.
func (ExponentialJitter) Calculate(attempt int, base, max time.Duration, multiplier, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Cap the exponent so the float math cannot overflow.
	if attempt > 30 {
		attempt = 30
	}

	delay := time.Duration(float64(base) * pow(multiplier, attempt))
	if delay < 0 || delay > max {
		delay = max
	}

	jitter = clampJitter(jitter)
	if jitter > 0 {
		// Uniform in [1-jitter, 1+jitter].
		factor := 1 + jitter*(2*rand.Float64()-1)
		delay = time.Duration(float64(delay) * factor)
		if delay > max {
			delay = max
		}
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

// DecorrelatedJitter implements AWS-style decorrelated jitter:
// random_between(base, min(max, base * 3^attempt)). Smoother tail latencies
// than plain exponential jitter under heavy contention.
type DecorrelatedJitter struct{}

// Calculate implements Strategy.
func (DecorrelatedJitter) Calculate(attempt int, base, max time.Duration, _, _ float64) time.Duration {
	if attempt <= 0 {
		return base
	}
	if attempt > 10 {
		attempt = 10
	}

	lower := float64(base)
	upper := lower * pow(3.0, attempt)
	if upper > float64(max) || upper < 0 {
		upper = float64(max)
	}
	if upper < lower {
		upper = lower
	}

	delay := time.Duration(lower + rand.Float64()*(upper-lower))
	if delay < 0 || delay > max {
		delay = max
	}
	return delay
}

func clampJitter(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}

// pow is integer exponentiation on float64, avoiding math.Pow edge cases
// for the small exponents used here.
func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
