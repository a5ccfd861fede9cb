package boot

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/desertthunder/secondbrain/internal/auth"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// MaxSimulatedProgress is where the bar holds until initialization finishes.
const MaxSimulatedProgress = 90.0

const (
	tickInterval        = 200 * time.Millisecond
	sandboxTickInterval = 300 * time.Millisecond
	maxIncrement        = 15.0
	sandboxMaxIncrement = 8.0
)

// Initializer resolves the session. It must return once ctx is canceled.
type Initializer func(ctx context.Context) auth.State

// Loader races an [Initializer] against the loading timeout.
type Loader struct {
	init         Initializer
	env          auth.Environment
	tick         time.Duration
	loading      time.Duration
	maxIncrement float64
	random       func() float64
}

// Option configures a [Loader].
type Option func(*Loader)

// WithTickInterval overrides the progress tick.
func WithTickInterval(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.tick = d
		}
	}
}

// WithLoadingTimeout overrides the timeout derived from the environment.
func WithLoadingTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.loading = d
		}
	}
}

// WithRandom replaces the [0,1) source used for progress increments.
func WithRandom(f func() float64) Option {
	return func(l *Loader) { l.random = f }
}

// NewLoader creates a loader whose timing follows env and cfg.
func NewLoader(init Initializer, env auth.Environment, cfg shared.AuthConfig, opts ...Option) *Loader {
	l := &Loader{
		init:         init,
		env:          env,
		tick:         tickInterval,
		loading:      env.LoadingTimeout(cfg),
		maxIncrement: maxIncrement,
		random:       rand.Float64,
	}
	if env.Sandboxed {
		l.tick = sandboxTickInterval
		l.maxIncrement = sandboxMaxIncrement
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadingTimeout is how long Run waits before offering the timeout options.
func (l *Loader) LoadingTimeout() time.Duration {
	return l.loading
}

// sendProgress sends a progress update through the channel without blocking.
func (l *Loader) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run resolves the session, reporting progress until it completes or the loading timeout passes.
//
// On timeout the returned error wraps [shared.ErrTimeout] and the last update carries
// [TimeoutOptions].
func (l *Loader) Run(ctx context.Context, progress chan<- ProgressUpdate) (auth.State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan auth.State, 1)
	go func() {
		done <- l.init(ctx)
	}()

	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()
	slow := time.NewTimer(l.loading / 2)
	defer slow.Stop()
	timeout := time.NewTimer(l.loading)
	defer timeout.Stop()

	pct := 0.0
	l.sendProgress(progress, checkingUpdate(pct))

	for {
		select {
		case state := <-done:
			l.sendProgress(progress, CompleteUpdate(state))
			return state, nil
		case <-ticker.C:
			if pct >= MaxSimulatedProgress {
				continue
			}
			pct = min(pct+l.random()*l.maxIncrement, MaxSimulatedProgress)
			l.sendProgress(progress, checkingUpdate(pct))
		case <-slow.C:
			l.sendProgress(progress, slowUpdate(pct))
		case <-timeout.C:
			l.sendProgress(progress, TimedOutUpdate(pct, l.env))
			return auth.State{}, fmt.Errorf("%w: session not resolved within %s", shared.ErrTimeout, l.loading)
		case <-ctx.Done():
			return auth.State{}, ctx.Err()
		}
	}
}
