// Package engine drives a fixed-interval tick loop: every tick runs an ordered
// list of systems against a shared state and then hands that state to an
// external callback for I/O.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrNilCallback       = eris.New("tick callback is required")
	ErrInvalidInterval   = eris.New("tick interval must be positive")
	ErrAlreadyRunning    = eris.New("engine is already running")
	ErrTickChannelClosed = eris.New("tick channel closed")
	ErrSystemPanicked    = eris.New("engine system panicked")
	ErrCallbackPanicked  = eris.New("tick callback panicked")
)

const callbackIndex = -1

// System is one step of a tick. It receives the tick interval as delta and
// mutates state in place.
type System[S any] func(delta time.Duration, state S)

// TickCallback receives the state once per tick after every system has run.
type TickCallback[S any] func(state S)

// Fault describes a system or callback that panicked during a tick.
// Index is the system's position in the list, or -1 for the callback.
type Fault struct {
	Index int
	Tick  uint64
	Value any
	Stack []byte
	Err   error
}

func (f *Fault) Error() string {
	if f.Index == callbackIndex {
		return fmt.Sprintf("tick callback faulted at tick %d: %v", f.Tick, f.Value)
	}
	return fmt.Sprintf("system %d faulted at tick %d: %v", f.Index, f.Tick, f.Value)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Engine owns a state value and ticks it at a fixed interval. Ticks never
// overlap: the loop runs them one at a time on a single goroutine, and a
// tick that overruns the interval causes missed firings to be dropped.
type Engine[S any] struct {
	state    S
	systems  []System[S]
	callback TickCallback[S]
	interval time.Duration
	tickCh   <-chan time.Time
	logger   zerolog.Logger
	onFault  func(*Fault)
	runId    uuid.UUID

	ticks  atomic.Uint64
	tickMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an engine. The callback is required; everything else is
// optional and defaults to a zero state, no systems and a 500ms interval.
func New[S any](callback TickCallback[S], opts ...Option[S]) (*Engine[S], error) {
	if callback == nil {
		return nil, ErrNilCallback
	}

	e := &Engine[S]{
		callback: callback,
		interval: DefaultInterval,
		logger:   log.Logger,
		runId:    uuid.New(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.interval <= 0 {
		return nil, eris.Wrapf(ErrInvalidInterval, "got %s", e.interval)
	}

	e.logger = e.logger.With().Str("run_id", e.runId.String()).Logger()
	if e.onFault == nil {
		e.onFault = e.logFault
	}

	return e, nil
}

// RunId identifies this engine instance in logs.
func (e *Engine[S]) RunId() uuid.UUID {
	return e.runId
}

// Interval returns the fixed tick interval.
func (e *Engine[S]) Interval() time.Duration {
	return e.interval
}

// Ticks returns the number of ticks started so far.
func (e *Engine[S]) Ticks() uint64 {
	return e.ticks.Load()
}

// State returns the current state. While the engine is running the state
// belongs to the loop; read it from systems, the callback or after Stop.
func (e *Engine[S]) State() S {
	return e.state
}

// Tick runs one tick synchronously: every system in order, then the
// callback exactly once. A panicking system is reported and skipped; the
// remaining systems and the callback still run.
func (e *Engine[S]) Tick() {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	tick := e.ticks.Add(1)

	for i, system := range e.systems {
		if fault := e.invoke(i, tick, func() { system(e.interval, e.state) }); fault != nil {
			e.onFault(fault)
		}
	}

	if fault := e.invoke(callbackIndex, tick, func() { e.callback(e.state) }); fault != nil {
		e.onFault(fault)
	}
}

func (e *Engine[S]) invoke(index int, tick uint64, fn func()) (fault *Fault) {
	defer func() {
		if r := recover(); r != nil {
			fault = &Fault{
				Index: index,
				Tick:  tick,
				Value: r,
				Stack: debug.Stack(),
			}
			if index == callbackIndex {
				fault.Err = eris.Wrapf(ErrCallbackPanicked, "tick %d: %v", tick, r)
			} else {
				fault.Err = eris.Wrapf(ErrSystemPanicked, "system %d at tick %d: %v", index, tick, r)
			}
		}
	}()
	fn()
	return nil
}

func (e *Engine[S]) logFault(fault *Fault) {
	e.logger.Error().
		Err(fault.Err).
		Int("index", fault.Index).
		Uint64("tick", fault.Tick).
		Bytes("stack", fault.Stack).
		Msg("Tick faulted")
}

// Run ticks until ctx is cancelled or Stop is called. It returns
// ErrAlreadyRunning if the engine is already running.
func (e *Engine[S]) Run(ctx context.Context) error {
	ctx, done, err := e.begin(ctx)
	if err != nil {
		return err
	}
	return e.loop(ctx, done)
}

// Start runs the loop on its own goroutine. Use Stop and Wait to end it.
func (e *Engine[S]) Start(ctx context.Context) error {
	ctx, done, err := e.begin(ctx)
	if err != nil {
		return err
	}
	go func() {
		if err := e.loop(ctx, done); err != nil {
			e.logger.Error().Err(err).Msg("Engine loop exited")
		}
	}()
	return nil
}

// Stop asks a running loop to exit and returns without waiting. No tick
// starts after Stop returns, so systems and the callback may call it to end
// the loop after the current tick. It is a no-op when the engine is not
// running.
func (e *Engine[S]) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the running loop has exited. It returns immediately when
// the engine is not running. It must not be called from a system or the
// callback, since the loop cannot exit before the current tick returns.
func (e *Engine[S]) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Running reports whether the loop is active. It stays true after Stop
// until the current tick has finished.
func (e *Engine[S]) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done != nil
}

func (e *Engine[S]) begin(ctx context.Context) (context.Context, chan struct{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done != nil {
		return nil, nil, ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	return ctx, e.done, nil
}

func (e *Engine[S]) end(done chan struct{}) {
	e.mu.Lock()
	e.cancel()
	e.cancel = nil
	e.done = nil
	e.mu.Unlock()
	close(done)
}

func (e *Engine[S]) loop(ctx context.Context, done chan struct{}) error {
	defer e.end(done)

	tickCh := e.tickCh
	if tickCh == nil {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		tickCh = ticker.C
	}

	e.logger.Info().Dur("interval", e.interval).Int("systems", len(e.systems)).Msg("Engine started")

	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Uint64("ticks", e.Ticks()).Msg("Engine stopped")
			return nil
		case _, ok := <-tickCh:
			if !ok {
				return ErrTickChannelClosed
			}
			if ctx.Err() != nil {
				e.logger.Info().Uint64("ticks", e.Ticks()).Msg("Engine stopped")
				return nil
			}
			e.Tick()
		}
	}
}
