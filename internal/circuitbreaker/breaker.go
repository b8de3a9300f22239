// Package circuitbreaker stops calling a failing remote dependency for a while
// after repeated errors.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	Closed   State = iota // Normal operation, calls pass through.
	Open                  // Failing, calls are rejected immediately.
	HalfOpen              // Probing recovery, a single call is allowed through.
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the circuit breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Option customises a Breaker.
type Option func(*Breaker)

// WithFailureFilter decides which errors count as failures. Errors for which
// isFailure returns false are returned to the caller but leave the breaker closed.
func WithFailureFilter(isFailure func(error) bool) Option {
	return func(b *Breaker) { b.isFailure = isFailure }
}

// WithStateChange registers a callback invoked after every state transition.
// It runs with the breaker lock held and must not call back into the breaker.
func WithStateChange(fn func(from, to State)) Option {
	return func(b *Breaker) { b.onChange = fn }
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	mu              sync.Mutex
	state           State
	failures        int
	maxFailures     int
	resetTimeout    time.Duration
	lastFailureTime time.Time
	probing         bool
	isFailure       func(error) bool
	onChange        func(from, to State)
	now             func() time.Time
}

// New creates a Breaker that opens after maxFailures consecutive failures
// and attempts recovery after resetTimeout.
func New(maxFailures int, resetTimeout time.Duration, opts ...Option) *Breaker {
	b := &Breaker{
		state:        Closed,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		isFailure:    func(err error) bool { return err != nil },
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute runs fn through the circuit breaker. While the circuit is open,
// ErrCircuitOpen is returned without calling fn.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	if b.state == Open {
		if b.now().Sub(b.lastFailureTime) <= b.resetTimeout {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.setState(HalfOpen)
	}
	if b.state == HalfOpen {
		if b.probing {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.probing = true
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if err != nil && b.isFailure(err) {
		b.failures++
		b.lastFailureTime = b.now()
		if b.state == HalfOpen || b.failures >= b.maxFailures {
			b.setState(Open)
		}
		return err
	}

	b.failures = 0
	b.setState(Closed)
	return err
}

func (b *Breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onChange != nil {
		b.onChange(from, to)
	}
}

// GetState returns the current state of the breaker.
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
