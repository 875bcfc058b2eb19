package brokerkit

import (
	"sync"
	"time"
)

// CircuitState is the breaker state.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

// String renders the state for logs and metrics labels.
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	// FailureThreshold opens the circuit once this many failures land
	// inside FailureWindow. Default 5.
	FailureThreshold int
	// FailureWindow is the trailing window over which failures count.
	// Default 30s.
	FailureWindow time.Duration
	// RecoveryTimeout is how long the circuit stays open before a single
	// probe is allowed through. Default 60s.
	RecoveryTimeout time.Duration
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.FailureWindow == 0 {
		c.FailureWindow = 30 * time.Second
	}
	if c.RecoveryTimeout == 0 {
		c.RecoveryTimeout = 60 * time.Second
	}
	return c
}

// CircuitBreaker tracks the failure rate of one endpoint group and
// short-circuits requests while the remote looks unhealthy. While half-open
// exactly one probe is in flight; everything else short-circuits.
type CircuitBreaker struct {
	mu       sync.Mutex
	config   BreakerConfig
	state    CircuitState
	failures []time.Time
	openedAt time.Time
	probing  bool

	now func() time.Time
}

// NewCircuitBreaker creates a breaker in the closed state.
func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		config: config.withDefaults(),
		state:  StateClosed,
		now:    time.Now,
	}
}

// Allow reports whether a request may proceed. In the open state it flips to
// half-open once the recovery timeout elapses and admits the single probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.config.RecoveryTimeout {
			cb.state = StateHalfOpen
			cb.probing = true
			return true
		}
		return false
	case StateHalfOpen:
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	default:
		return false
	}
}

// RecordSuccess folds a successful attempt into the state machine. A
// successful probe closes the circuit and clears the failure window.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.state = StateClosed
		cb.failures = cb.failures[:0]
		cb.probing = false
	}
}

// RecordFailure folds a failed attempt into the state machine. A failed
// probe reopens the circuit and restarts the recovery timer.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	switch cb.state {
	case StateClosed:
		cb.failures = append(cb.failures, now)
		cb.pruneLocked(now)
		if len(cb.failures) >= cb.config.FailureThreshold {
			cb.state = StateOpen
			cb.openedAt = now
		}
	case StateHalfOpen:
		cb.state = StateOpen
		cb.openedAt = now
		cb.probing = false
	case StateOpen:
		// Attempts admitted before the transition may still report here.
	}
}

// RecordAbandon releases a half-open probe slot after a cancelled attempt
// without treating the remote as recovered or failed.
func (cb *CircuitBreaker) RecordAbandon() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.probing = false
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) pruneLocked(now time.Time) {
	cutoff := now.Add(-cb.config.FailureWindow)
	i := 0
	for i < len(cb.failures) && cb.failures[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		cb.failures = append(cb.failures[:0], cb.failures[i:]...)
	}
}
