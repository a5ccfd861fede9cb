// Package resilience guards calls to the hosted auth service with a circuit breaker.
package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/desertthunder/secondbrain/internal/metrics"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// State represents the circuit breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

const (
	DefaultThreshold    = 3
	DefaultResetTimeout = 30 * time.Second
)

// ErrCircuitOpen is returned when the breaker rejects a call and no fallback was supplied.
var ErrCircuitOpen = shared.ErrCircuitOpen

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Status is a point-in-time snapshot of the breaker.
type Status struct {
	State          State
	Failures       int
	LastFailure    *time.Time
	TimeUntilReset time.Duration
	Threshold      int
	ResetTimeout   time.Duration
}

// StatusJSON is the wire form of [Status], with durations in milliseconds.
type StatusJSON struct {
	State            State      `json:"state"`
	Failures         int        `json:"failures"`
	LastFailure      *time.Time `json:"last_failure"`
	TimeUntilResetMS int64      `json:"time_until_reset_ms"`
	Threshold        int        `json:"threshold"`
	ResetTimeoutMS   int64      `json:"reset_timeout_ms"`
}

// MarshalJSON implements [json.Marshaler].
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(StatusJSON{
		State:            s.State,
		Failures:         s.Failures,
		LastFailure:      s.LastFailure,
		TimeUntilResetMS: s.TimeUntilReset.Milliseconds(),
		Threshold:        s.Threshold,
		ResetTimeoutMS:   s.ResetTimeout.Milliseconds(),
	})
}

// CircuitBreaker counts consecutive failures of a protected operation.
//
// After threshold failures it opens and rejects calls until resetTimeout has passed since the
// last failure, then lets calls through in the half-open state. The failure count is kept across
// the half-open transition, so a single failed probe re-opens the breaker. Any success closes it.
type CircuitBreaker struct {
	mu           sync.Mutex
	name         string
	state        State
	failures     int
	lastFailure  time.Time
	threshold    int
	resetTimeout time.Duration
	clock        Clock
}

// Option configures a [CircuitBreaker].
type Option func(*CircuitBreaker)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(cb *CircuitBreaker) { cb.clock = c }
}

// WithThreshold sets the number of failures that opens the breaker.
func WithThreshold(n int) Option {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.threshold = n
		}
	}
}

// WithResetTimeout sets the cooldown before a half-open probe is allowed.
func WithResetTimeout(d time.Duration) Option {
	return func(cb *CircuitBreaker) {
		if d > 0 {
			cb.resetTimeout = d
		}
	}
}

// NewCircuitBreaker creates a closed breaker named for its metrics component label.
func NewCircuitBreaker(name string, opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:         name,
		state:        StateClosed,
		threshold:    DefaultThreshold,
		resetTimeout: DefaultResetTimeout,
		clock:        realClock{},
	}
	for _, opt := range opts {
		opt(cb)
	}

	metrics.SetCircuitBreakerState(cb.name, string(cb.state))
	return cb
}

// Execute runs op through cb.
//
// When the breaker is open, or op fails, the fallback result is returned with a nil error if
// fallback is non-nil; otherwise [ErrCircuitOpen] or op's error is returned. A canceled context is
// passed through without counting as a failure.
func Execute[T any](ctx context.Context, cb *CircuitBreaker, op func(context.Context) (T, error), fallback func() T) (T, error) {
	var zero T

	if !cb.allowRequest() {
		if fallback != nil {
			metrics.RecordCircuitBreakerFallback(cb.name)
			return fallback(), nil
		}
		return zero, ErrCircuitOpen
	}

	v, err := op(ctx)
	if err == nil {
		cb.recordSuccess()
		return v, nil
	}

	if errors.Is(err, context.Canceled) {
		return zero, err
	}

	cb.recordFailure()
	if fallback != nil {
		metrics.RecordCircuitBreakerFallback(cb.name)
		return fallback(), nil
	}
	return zero, err
}

// Do is [Execute] for operations without a result.
func (cb *CircuitBreaker) Do(ctx context.Context, op func(context.Context) error) error {
	_, err := Execute(ctx, cb, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, nil)
	return err
}

// Name returns the component label.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State returns the current state without advancing it.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Status returns a snapshot including the remaining cooldown.
func (cb *CircuitBreaker) Status() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	s := Status{
		State:          cb.state,
		Failures:       cb.failures,
		TimeUntilReset: cb.timeUntilReset(),
		Threshold:      cb.threshold,
		ResetTimeout:   cb.resetTimeout,
	}
	if !cb.lastFailure.IsZero() {
		last := cb.lastFailure
		s.LastFailure = &last
	}
	return s
}

// TimeUntilReset is the remaining cooldown while open and zero otherwise.
func (cb *CircuitBreaker) TimeUntilReset() time.Duration {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.timeUntilReset()
}

// ForceReset closes the breaker and clears its failure history.
func (cb *CircuitBreaker) ForceReset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.lastFailure = time.Time{}
	cb.transitionTo(StateClosed)
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return true
	}
	if cb.clock.Now().Sub(cb.lastFailure) >= cb.resetTimeout {
		cb.transitionTo(StateHalfOpen)
		return true
	}
	return false
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.clock.Now()

	switch {
	case cb.state == StateHalfOpen:
		metrics.RecordCircuitBreakerTrip(cb.name, "half_open_failure")
		cb.transitionTo(StateOpen)
	case cb.state == StateClosed && cb.failures >= cb.threshold:
		metrics.RecordCircuitBreakerTrip(cb.name, "threshold_exceeded")
		cb.transitionTo(StateOpen)
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.transitionTo(StateClosed)
}

// Caller must hold mu.
func (cb *CircuitBreaker) timeUntilReset() time.Duration {
	if cb.state != StateOpen {
		return 0
	}
	remaining := cb.resetTimeout - cb.clock.Now().Sub(cb.lastFailure)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Caller must hold mu.
func (cb *CircuitBreaker) transitionTo(next State) {
	if cb.state == next {
		return
	}
	cb.state = next
	metrics.SetCircuitBreakerState(cb.name, string(next))
}
