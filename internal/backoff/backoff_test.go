package backoff

import (
	"testing"
	"time"
)

func TestExponentialJitterDeterministicWithoutJitter(t *testing.T) {
	s := ExponentialJitter{}
	base := 100 * time.Millisecond
	max := 10 * time.Second

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := s.Calculate(tt.attempt, base, max, 2.0, 0); got != tt.want {
			t.Errorf("Calculate(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialJitterCapsAtMax(t *testing.T) {
	s := ExponentialJitter{}
	max := time.Second

	if got := s.Calculate(20, 100*time.Millisecond, max, 2.0, 0); got != max {
		t.Errorf("Calculate(20) = %v, want cap %v", got, max)
	}
	// Huge exponents must not overflow into negatives.
	if got := s.Calculate(1000, 100*time.Millisecond, max, 2.0, 0.5); got < 0 || got > max {
		t.Errorf("Calculate(1000) = %v, want within [0, %v]", got, max)
	}
}

func TestExponentialJitterStaysInBand(t *testing.T) {
	s := ExponentialJitter{}
	base := 100 * time.Millisecond
	max := time.Hour
	jitter := 0.2

	lo := time.Duration(float64(base) * (1 - jitter))
	hi := time.Duration(float64(base) * (1 + jitter))
	for i := 0; i < 200; i++ {
		got := s.Calculate(0, base, max, 2.0, jitter)
		if got < lo || got > hi {
			t.Fatalf("Calculate() = %v outside [%v, %v]", got, lo, hi)
		}
	}
}

func TestExponentialJitterClampsInvalidInputs(t *testing.T) {
	s := ExponentialJitter{}
	base := 100 * time.Millisecond
	max := time.Second

	if got := s.Calculate(-5, base, max, 2.0, 0); got != base {
		t.Errorf("negative attempt: Calculate() = %v, want %v", got, base)
	}
	// Out-of-range jitter values are clamped, never panic or go negative.
	for _, jitter := range []float64{-1, 2, 100} {
		got := s.Calculate(0, base, max, 2.0, jitter)
		if got < 0 || got > max {
			t.Errorf("jitter=%v: Calculate() = %v, want within [0, %v]", jitter, got, max)
		}
	}
}

func TestDecorrelatedJitterBounds(t *testing.T) {
	s := DecorrelatedJitter{}
	base := 100 * time.Millisecond
	max := 5 * time.Second

	if got := s.Calculate(0, base, max, 0, 0); got != base {
		t.Errorf("Calculate(0) = %v, want base %v", got, base)
	}

	for attempt := 1; attempt <= 12; attempt++ {
		for i := 0; i < 50; i++ {
			got := s.Calculate(attempt, base, max, 0, 0)
			if got < base || got > max {
				t.Fatalf("Calculate(%d) = %v outside [%v, %v]", attempt, got, base, max)
			}
		}
	}
}

func TestCalculatorDelegates(t *testing.T) {
	calc := Exponential()
	if got := calc.Calculate(1, 50*time.Millisecond, time.Second, 2.0, 0); got != 100*time.Millisecond {
		t.Errorf("Calculate() = %v, want 100ms", got)
	}

	dec := Decorrelated()
	if got := dec.Calculate(0, 50*time.Millisecond, time.Second, 0, 0); got != 50*time.Millisecond {
		t.Errorf("Calculate() = %v, want 50ms", got)
	}
}
