// Package backoff centralizes retry delay calculation so the client and any
// custom retry policies share one implementation.
package backoff

import "time"

// Calculator computes retry delays using a configurable Strategy.
type Calculator struct {
	strategy Strategy
}

// NewCalculator returns a calculator using the given strategy.
func NewCalculator(strategy Strategy) *Calculator {
	return &Calculator{strategy: strategy}
}

// Calculate returns the delay before the given retry attempt.
func (c *Calculator) Calculate(attempt int, base, max time.Duration, multiplier, jitter float64) time.Duration {
	return c.strategy.Calculate(attempt, base, max, multiplier, jitter)
}

// Exponential returns a calculator using exponential backoff with
// symmetric jitter, the default for the client.
func Exponential() *Calculator {
	return NewCalculator(ExponentialJitter{})
}

// Decorrelated returns a calculator using AWS-style decorrelated jitter.
func Decorrelated() *Calculator {
	return NewCalculator(DecorrelatedJitter{})
}
