package brokerkit

import "sync"

// groupRegistry owns the per-group limiter and breaker instances. Groups
// are created lazily on first use; a fresh Client gets fresh registries, so
// tests never share state through ambient globals.
type groupRegistry struct {
	mu       sync.RWMutex
	limiters map[string]Limiter
	breakers map[string]*CircuitBreaker

	newLimiter func() Limiter
	newBreaker func() *CircuitBreaker
}

func newGroupRegistry(newLimiter func() Limiter, newBreaker func() *CircuitBreaker) *groupRegistry {
	return &groupRegistry{
		limiters:   make(map[string]Limiter),
		breakers:   make(map[string]*CircuitBreaker),
		newLimiter: newLimiter,
		newBreaker: newBreaker,
	}
}

func (r *groupRegistry) limiter(group string) Limiter {
	r.mu.RLock()
	l, ok := r.limiters[group]
	r.mu.RUnlock()
	if ok {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.limiters[group]; ok {
		return l
	}
	l = r.newLimiter()
	r.limiters[group] = l
	return l
}

func (r *groupRegistry) breaker(group string) *CircuitBreaker {
	r.mu.RLock()
	b, ok := r.breakers[group]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[group]; ok {
		return b
	}
	b = r.newBreaker()
	r.breakers[group] = b
	return b
}

// setLimiter installs a group-specific limiter, overriding the factory.
func (r *groupRegistry) setLimiter(group string, l Limiter) {
	r.mu.Lock()
	r.limiters[group] = l
	r.mu.Unlock()
}

// setBreaker installs a group-specific breaker, overriding the factory.
func (r *groupRegistry) setBreaker(group string, b *CircuitBreaker) {
	r.mu.Lock()
	r.breakers[group] = b
	r.mu.Unlock()
}
