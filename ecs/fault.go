package ecs

import (
	"fmt"
	"runtime/debug"

	"github.com/rotisserie/eris"
)

// ErrSystemPanicked is wrapped by every SystemFault.
var ErrSystemPanicked = eris.New("system panicked")

// SystemFault describes a system that panicked during an update. The
// scheduler recovers the panic, reports the fault and moves on to the next
// system.
type SystemFault struct {
	System string
	Tick   uint64
	Value  any
	Stack  []byte
	Err    error
}

func newSystemFault(system string, tick uint64, value any) *SystemFault {
	return &SystemFault{
		System: system,
		Tick:   tick,
		Value:  value,
		Stack:  debug.Stack(),
		Err:    eris.Wrapf(ErrSystemPanicked, "%s at tick %d: %v", system, tick, value),
	}
}

func (f *SystemFault) Error() string {
	return fmt.Sprintf("system %s faulted at tick %d: %v", f.System, f.Tick, f.Value)
}

func (f *SystemFault) Unwrap() error {
	return f.Err
}
