package ecs

import (
	"errors"

	"github.com/rotisserie/eris"
)

// maxFlushRounds bounds how many times deferred functions may queue further
// commands within one flush.
const maxFlushRounds = 64

var (
	// ErrDeferPanicked is reported for a deferred function that panicked.
	ErrDeferPanicked = eris.New("deferred function panicked")
	// ErrFlushRounds is reported when deferred functions keep queueing
	// commands. The remainder stays queued for the next flush.
	ErrFlushRounds = eris.New("flush did not settle")
)

// Commands buffers structural changes to the store. The scheduler flushes
// the buffer after every system of a pass has run, so systems can queue
// destroys for entities other systems will still see this tick.
type Commands struct {
	creates  []createCommand
	destroys []EntityId
	adds     []addComponentsCommand
	defers   []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type createCommand struct {
	components []Component
}

type addComponentsCommand struct {
	entity     EntityId
	components []Component
}

// Defer queues a function to run at the end of the flush.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// CreateEntity queues an entity creation with the given components.
func (c *Commands) CreateEntity(components ...Component) {
	c.creates = append(c.creates, createCommand{components: components})
}

// DestroyEntity queues an entity destruction.
func (c *Commands) DestroyEntity(entity EntityId) {
	c.destroys = append(c.destroys, entity)
}

// AddComponents queues components to append to an entity.
func (c *Commands) AddComponents(entity EntityId, components ...Component) {
	c.adds = append(c.adds, addComponentsCommand{
		entity:     entity,
		components: components,
	})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.creates) + len(c.destroys) + len(c.adds) + len(c.defers)
}

// Flush applies all queued commands to storage and resets the buffer.
// Destroys run first; adds targeting an entity destroyed in the same flush
// are dropped. Adds to unknown entities are reported in the returned error.
//
// Commands queued by a deferred function are applied in a further round of
// the same flush. A deferred function that panics is recovered and reported
// as an error wrapping ErrDeferPanicked.
func (c *Commands) Flush(storage *Storage) ([]EntityId, error) {
	return c.flush(storage, nil)
}

func (c *Commands) flush(storage *Storage, onPanic func(any)) ([]EntityId, error) {
	var created []EntityId
	var errs []error

	if onPanic == nil {
		onPanic = func(r any) {
			errs = append(errs, eris.Wrapf(ErrDeferPanicked, "%v", r))
		}
	}

	for round := 0; c.Len() > 0; round++ {
		if round == maxFlushRounds {
			errs = append(errs, eris.Wrapf(ErrFlushRounds, "%d commands left queued", c.Len()))
			break
		}

		batch := *c
		*c = Commands{}

		destroyed := make(map[EntityId]bool, len(batch.destroys))
		for _, id := range batch.destroys {
			storage.DestroyEntity(id)
			destroyed[id] = true
		}

		for _, cmd := range batch.adds {
			if destroyed[cmd.entity] {
				continue
			}
			if err := storage.AddComponents(cmd.entity, cmd.components...); err != nil {
				errs = append(errs, err)
			}
		}

		for _, cmd := range batch.creates {
			created = append(created, storage.CreateEntity(cmd.components...))
		}

		for _, fn := range batch.defers {
			runDeferred(fn, onPanic)
		}
	}

	return created, errors.Join(errs...)
}

func runDeferred(fn func(), onPanic func(any)) {
	defer func() {
		if r := recover(); r != nil {
			onPanic(r)
		}
	}()
	fn()
}
