package store

import (
	"context"
	"sync"
	"time"

	"github.com/adrianmcphee/crossbase"
)

// BreakerState is the state of a CircuitBreaker.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half-open"
)

// Defaults used by OpenSessionIndex.
const (
	DefaultBreakerFailures = 5
	DefaultBreakerReset    = 30 * time.Second
)

// CircuitBreaker stops calling a failing dependency for a while.
//
//   - Closed: calls pass through
//   - Open: calls fail fast with ErrBackendUnavailable
//   - Half-open: after resetTimeout one call probes the dependency
//
// The session index wraps its Redis calls in one so that queries fall back
// to listing without waiting on a dead connection.
type CircuitBreaker struct {
	mu            sync.RWMutex
	maxFailures   int
	resetTimeout  time.Duration
	failures      int
	lastFailTime  time.Time
	state         BreakerState
	now           func() time.Time
	onStateChange func(from, to BreakerState)
}

// NewCircuitBreaker opens after maxFailures consecutive failures and probes
// again after resetTimeout.
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        BreakerClosed,
		now:          time.Now,
	}
}

// WithStateChangeCallback registers fn for state transitions. fn runs with
// the breaker locked and must not call back into it.
func (cb *CircuitBreaker) WithStateChangeCallback(fn func(from, to BreakerState)) *CircuitBreaker {
	cb.onStateChange = fn
	return cb
}

// Execute runs fn unless the circuit is open. Context cancellation is not
// counted as a dependency failure, and a permanent error counts as success.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if !cb.allow() {
		return crossbase.WithContext(crossbase.ErrBackendUnavailable, map[string]interface{}{
			"reason": "circuit breaker is open",
			"state":  string(cb.State()),
		})
	}

	err := fn()
	if err != nil && ctx.Err() != nil {
		return err
	}
	if crossbase.IsPermanent(err) {
		cb.recordResult(nil)
		return err
	}
	cb.recordResult(err)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == BreakerOpen {
		if cb.now().Sub(cb.lastFailTime) > cb.resetTimeout {
			cb.setState(BreakerHalfOpen)
			return true
		}
		return false
	}
	return true
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailTime = cb.now()
		if cb.state == BreakerHalfOpen || (cb.failures >= cb.maxFailures && cb.state != BreakerOpen) {
			cb.setState(BreakerOpen)
		}
		return
	}
	cb.failures = 0
	if cb.state == BreakerHalfOpen {
		cb.setState(BreakerClosed)
	}
}

func (cb *CircuitBreaker) setState(to BreakerState) {
	from := cb.state
	cb.state = to
	if cb.onStateChange != nil && from != to {
		cb.onStateChange(from, to)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reset closes the circuit.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.setState(BreakerClosed)
}

// Failures returns the consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}
