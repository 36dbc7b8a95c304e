package engine

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is the tick interval used when none is configured.
const DefaultInterval = 500 * time.Millisecond

// Option configures an Engine.
type Option[S any] func(*Engine[S])

// WithState sets the initial state. The default is the zero value of S.
func WithState[S any](state S) Option[S] {
	return func(e *Engine[S]) {
		e.state = state
	}
}

// WithSystems appends systems to the ordered per-tick list.
func WithSystems[S any](systems ...System[S]) Option[S] {
	return func(e *Engine[S]) {
		e.systems = append(e.systems, systems...)
	}
}

// WithInterval sets the fixed tick interval.
func WithInterval[S any](interval time.Duration) Option[S] {
	return func(e *Engine[S]) {
		e.interval = interval
	}
}

// WithTickChannel makes Run tick on every receive from ch instead of on an
// internal ticker. Systems still receive the configured interval as delta.
// Tests use it to step the engine deterministically.
func WithTickChannel[S any](ch <-chan time.Time) Option[S] {
	return func(e *Engine[S]) {
		e.tickCh = ch
	}
}

// WithLogger sets the engine's logger.
func WithLogger[S any](logger zerolog.Logger) Option[S] {
	return func(e *Engine[S]) {
		e.logger = logger
	}
}

// WithFaultHandler replaces the default fault handler, which logs the fault.
func WithFaultHandler[S any](fn func(*Fault)) Option[S] {
	return func(e *Engine[S]) {
		e.onFault = fn
	}
}
