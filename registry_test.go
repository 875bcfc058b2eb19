package brokerkit

import (
	"sync"
	"testing"
	"time"
)

func newTestRegistry() *groupRegistry {
	return newGroupRegistry(
		func() Limiter { return NewSlidingWindowLimiter(10, time.Second) },
		func() *CircuitBreaker { return NewCircuitBreaker(BreakerConfig{}) },
	)
}

func TestRegistryReturnsSameInstancePerGroup(t *testing.T) {
	r := newTestRegistry()

	if r.limiter("orders") != r.limiter("orders") {
		t.Error("limiter instances differ for the same group")
	}
	if r.breaker("orders") != r.breaker("orders") {
		t.Error("breaker instances differ for the same group")
	}
	if r.limiter("orders") == r.limiter("quotes") {
		t.Error("distinct groups share a limiter")
	}
	if r.breaker("orders") == r.breaker("quotes") {
		t.Error("distinct groups share a breaker")
	}
}

func TestRegistryConcurrentAccessCreatesOneInstance(t *testing.T) {
	r := newTestRegistry()

	limiters := make([]Limiter, 32)
	var wg sync.WaitGroup
	for i := range limiters {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			limiters[i] = r.limiter("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(limiters); i++ {
		if limiters[i] != limiters[0] {
			t.Fatalf("goroutine %d got a different limiter instance", i)
		}
	}
}

func TestRegistryOverrides(t *testing.T) {
	r := newTestRegistry()

	custom := NewSlidingWindowLimiter(1, time.Minute)
	r.setLimiter("orders", custom)
	if r.limiter("orders") != Limiter(custom) {
		t.Error("limiter override not returned")
	}

	breaker := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1})
	r.setBreaker("orders", breaker)
	if r.breaker("orders") != breaker {
		t.Error("breaker override not returned")
	}
}
