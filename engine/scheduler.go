package engine

import (
	"time"

	"github.com/plus3/kindecs/ecs"
)

// SchedulerSystem adapts an ecs.Scheduler into an engine system. Each tick
// runs one scheduler pass with the interval converted to milliseconds.
func SchedulerSystem[S any](sched *ecs.Scheduler) System[S] {
	return func(delta time.Duration, _ S) {
		sched.Once(ecs.Milliseconds(delta))
	}
}

// ForScheduler runs the scheduler's startup systems and returns an engine
// whose state is the scheduler's storage and whose only system is one
// scheduler pass. Extra options are applied after the defaults, so
// WithSystems appends systems that run after the pass.
func ForScheduler(sched *ecs.Scheduler, callback TickCallback[*ecs.Storage], opts ...Option[*ecs.Storage]) (*Engine[*ecs.Storage], error) {
	defaults := []Option[*ecs.Storage]{
		WithState(sched.Storage()),
		WithSystems(SchedulerSystem[*ecs.Storage](sched)),
	}

	e, err := New(callback, append(defaults, opts...)...)
	if err != nil {
		return nil, err
	}

	sched.Startup()
	return e, nil
}
