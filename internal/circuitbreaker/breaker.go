package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Short-circuiting calls
	StateHalfOpen              // Testing with one probe
)

var (
	// ErrOpen is returned when the breaker short-circuits a call and no
	// fallback is registered.
	ErrOpen = errors.New("circuit breaker is open")

	// ErrTimeout is returned when the wrapped function does not complete
	// within the configured call timeout.
	ErrTimeout = errors.New("circuit breaker call timed out")

	errForced = errors.New("forced failure")
)

// Options configures a circuit breaker. The breaker trips from CLOSED to OPEN
// once the rolling window holds at least VolumeThreshold calls and the
// failure percentage reaches ErrorThresholdPercent.
type Options struct {
	VolumeThreshold       int
	ErrorThresholdPercent float64
	ResetTimeout          time.Duration
	RollingWindow         time.Duration
	RollingBuckets        int
	CallTimeout           time.Duration
}

func DefaultOptions() Options {
	return Options{
		VolumeThreshold:       5,
		ErrorThresholdPercent: 50,
		ResetTimeout:          30 * time.Second,
		RollingWindow:         10 * time.Second,
		RollingBuckets:        10,
		CallTimeout:           3 * time.Second,
	}
}

// Fallback produces a substitute result when a call cannot be made or fails.
type Fallback func(ctx context.Context, input any, cause error) (any, error)

// Hooks are optional observers for breaker activity. They are consumed only
// for logging and metrics and must not be relied on for control flow.
type Hooks struct {
	OnOpen     func(name string)
	OnHalfOpen func(name string)
	OnClose    func(name string)
	OnSuccess  func(name string)
	OnFailure  func(name string, err error)
	OnFallback func(name string, cause error)
}

// Result is the outcome of one Execute call. UsedFallback reports whether
// Value came from the registered fallback rather than the wrapped function,
// with Cause holding the error the fallback absorbed.
type Result struct {
	Value        any
	UsedFallback bool
	Cause        error
}

// Stats is a point-in-time view of breaker state for introspection endpoints.
type Stats struct {
	Name                  string         `json:"name"`
	State                 string         `json:"state"`
	Successes             int            `json:"successes"`
	Failures              int            `json:"failures"`
	Buckets               []BucketCounts `json:"buckets"`
	VolumeThreshold       int            `json:"volume_threshold"`
	ErrorThresholdPercent float64        `json:"error_threshold_percent"`
}

type CircuitBreaker struct {
	name     string
	opts     Options
	fallback Fallback
	hooks    Hooks

	mutex         sync.Mutex
	state         State
	window        *rollingWindow
	openedAt      time.Time
	probeInFlight bool
}

func New(name string, opts Options, fallback Fallback, hooks Hooks) *CircuitBreaker {
	return &CircuitBreaker{
		name:     name,
		opts:     opts,
		fallback: fallback,
		hooks:    hooks,
		state:    StateClosed,
		window:   newRollingWindow(opts.RollingWindow, opts.RollingBuckets),
	}
}

// Execute runs fn through the breaker. The call is bounded by the configured
// call timeout; a timeout counts as a failure. When the breaker is open, or
// when fn fails or times out, the registered fallback supplies the result.
// Without a fallback the underlying error is returned.
func (cb *CircuitBreaker) Execute(ctx context.Context, input any, fn func(context.Context, any) (any, error)) (Result, error) {
	allowed, probe := cb.acquire()
	if !allowed {
		return cb.resolve(ctx, input, ErrOpen)
	}

	value, err := cb.invoke(ctx, input, fn)
	cb.settle(probe, err)

	if err != nil {
		return cb.resolve(ctx, input, err)
	}

	return Result{Value: value}, nil
}

// ForceFailures records n synthetic failures into the rolling window, tripping
// the breaker if thresholds are crossed. It exists so operability tests can
// drive state transitions deterministically; it never runs on the normal call
// path.
func (cb *CircuitBreaker) ForceFailures(n int) {
	for i := 0; i < n; i++ {
		cb.settle(false, errForced)
	}
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	return cb.stateLocked(time.Now())
}

func (cb *CircuitBreaker) Stats() Stats {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	now := time.Now()
	successes, failures := cb.window.counts(now)

	return Stats{
		Name:                  cb.name,
		State:                 cb.stateLocked(now).String(),
		Successes:             successes,
		Failures:              failures,
		Buckets:               cb.window.snapshot(now),
		VolumeThreshold:       cb.opts.VolumeThreshold,
		ErrorThresholdPercent: cb.opts.ErrorThresholdPercent,
	}
}

// acquire decides whether a call may proceed. The second return value reports
// whether the call is a half-open probe.
func (cb *CircuitBreaker) acquire() (allowed, probe bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		return true, false
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.opts.ResetTimeout {
			cb.state = StateHalfOpen
			cb.probeInFlight = true
			cb.notify(cb.hooks.OnHalfOpen)
			return true, true
		}

		return false, false
	case StateHalfOpen:
		if cb.probeInFlight {
			return false, false
		}

		cb.probeInFlight = true
		return true, true
	default:
		return true, false
	}
}

// settle records a completed call and applies state transitions. A probe
// outcome alone decides the half-open transition; ordinary outcomes feed the
// rolling window and may trip a closed breaker.
func (cb *CircuitBreaker) settle(probe bool, err error) {
	cb.mutex.Lock()

	now := time.Now()
	success := err == nil

	if probe {
		cb.probeInFlight = false

		if success {
			cb.state = StateClosed
			cb.window.reset()
			cb.mutex.Unlock()
			cb.notify(cb.hooks.OnClose)
			cb.notifyOutcome(success, err)
			return
		}

		cb.state = StateOpen
		cb.openedAt = now
		cb.mutex.Unlock()
		cb.notify(cb.hooks.OnOpen)
		cb.notifyOutcome(success, err)
		return
	}

	cb.window.record(now, success)

	tripped := false

	if !success && cb.state == StateClosed {
		successes, failures := cb.window.counts(now)
		total := successes + failures

		if total >= cb.opts.VolumeThreshold &&
			percentage(failures, total) >= cb.opts.ErrorThresholdPercent {
			cb.state = StateOpen
			cb.openedAt = now
			tripped = true
		}
	}

	cb.mutex.Unlock()

	if tripped {
		cb.notify(cb.hooks.OnOpen)
	}

	cb.notifyOutcome(success, err)
}

// resolve maps a call error to the fallback result, or propagates it when no
// fallback is registered.
func (cb *CircuitBreaker) resolve(ctx context.Context, input any, cause error) (Result, error) {
	if cb.fallback == nil {
		return Result{}, cause
	}

	if cb.hooks.OnFallback != nil {
		cb.hooks.OnFallback(cb.name, cause)
	}

	value, err := cb.fallback(ctx, input, cause)
	if err != nil {
		return Result{}, err
	}

	return Result{Value: value, UsedFallback: true, Cause: cause}, nil
}

func (cb *CircuitBreaker) invoke(ctx context.Context, input any, fn func(context.Context, any) (any, error)) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, cb.opts.CallTimeout)
	defer cancel()

	type callResult struct {
		value any
		err   error
	}

	done := make(chan callResult, 1)

	go func() {
		value, err := fn(callCtx, input)
		done <- callResult{value: value, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}

		return nil, callCtx.Err()
	}
}

// stateLocked reports the effective state, accounting for an open breaker
// whose reset timeout has already elapsed.
func (cb *CircuitBreaker) stateLocked(now time.Time) State {
	if cb.state == StateOpen && now.Sub(cb.openedAt) >= cb.opts.ResetTimeout {
		return StateHalfOpen
	}

	return cb.state
}

func (cb *CircuitBreaker) notify(hook func(string)) {
	if hook != nil {
		hook(cb.name)
	}
}

func (cb *CircuitBreaker) notifyOutcome(success bool, err error) {
	if success {
		if cb.hooks.OnSuccess != nil {
			cb.hooks.OnSuccess(cb.name)
		}

		return
	}

	if cb.hooks.OnFailure != nil {
		cb.hooks.OnFailure(cb.name, err)
	}
}

func percentage(part, total int) float64 {
	return float64(part) * 100 / float64(total)
}

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}
