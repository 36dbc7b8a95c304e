package engine_test

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/plus3/kindecs/ecs"
	"github.com/plus3/kindecs/engine"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type state struct {
	X   int
	Log []int
}

type Position struct {
	X float64
}

func (*Position) Kind() ecs.Kind { return "pos" }

func noop[S any](S) {}

func TestNew(t *testing.T) {
	t.Run("requires a callback", func(t *testing.T) {
		_, err := engine.New[*state](nil)
		assert.True(t, errors.Is(err, engine.ErrNilCallback))
	})

	t.Run("rejects non-positive intervals", func(t *testing.T) {
		_, err := engine.New(noop[*state], engine.WithInterval[*state](0))
		assert.True(t, errors.Is(err, engine.ErrInvalidInterval))
	})

	t.Run("defaults", func(t *testing.T) {
		e, err := engine.New[*state](noop[*state])
		require.NoError(t, err)
		assert.Equal(t, engine.DefaultInterval, e.Interval())
		assert.Equal(t, 500*time.Millisecond, e.Interval())
		assert.Nil(t, e.State())
		assert.Equal(t, uint64(0), e.Ticks())
		assert.NotEqual(t, e.RunId().String(), "")
	})

	t.Run("each engine gets its own run id", func(t *testing.T) {
		a, err := engine.New[int](noop[int])
		require.NoError(t, err)
		b, err := engine.New[int](noop[int])
		require.NoError(t, err)
		assert.NotEqual(t, a.RunId(), b.RunId())
	})
}

func TestTickOrdering(t *testing.T) {
	s := &state{}
	var callbackSaw []int

	e, err := engine.New(
		func(st *state) { callbackSaw = append(callbackSaw, st.X) },
		engine.WithState(s),
		engine.WithSystems(
			func(_ time.Duration, st *state) { st.X = 1 },
			func(_ time.Duration, st *state) { st.Log = append(st.Log, st.X) },
		),
	)
	require.NoError(t, err)

	e.Tick()

	assert.Equal(t, []int{1}, s.Log, "second system must see the first system's write")
	assert.Equal(t, []int{1}, callbackSaw, "callback must see every system's write")
	assert.Equal(t, uint64(1), e.Ticks())
}

func TestTickPassesInterval(t *testing.T) {
	var deltas []time.Duration
	e, err := engine.New(
		noop[*state],
		engine.WithState(&state{}),
		engine.WithInterval[*state](25*time.Millisecond),
		engine.WithSystems(func(d time.Duration, _ *state) { deltas = append(deltas, d) }),
	)
	require.NoError(t, err)

	e.Tick()
	e.Tick()
	assert.Equal(t, []time.Duration{25 * time.Millisecond, 25 * time.Millisecond}, deltas)
}

func TestCallbackRunsOncePerTick(t *testing.T) {
	calls := 0
	e, err := engine.New(func(*state) { calls++ }, engine.WithState(&state{}))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		e.Tick()
	}
	assert.Equal(t, 5, calls)
}

func TestFaultIsolation(t *testing.T) {
	var faults []*engine.Fault
	var ran []string
	callbacks := 0

	e, err := engine.New(
		func(*state) {
			callbacks++
		},
		engine.WithState(&state{}),
		engine.WithFaultHandler[*state](func(f *engine.Fault) { faults = append(faults, f) }),
		engine.WithSystems(
			func(time.Duration, *state) { ran = append(ran, "first") },
			func(time.Duration, *state) { panic("boom") },
			func(time.Duration, *state) { ran = append(ran, "third") },
		),
	)
	require.NoError(t, err)

	e.Tick()

	assert.Equal(t, []string{"first", "third"}, ran)
	assert.Equal(t, 1, callbacks)
	require.Len(t, faults, 1)
	assert.Equal(t, 1, faults[0].Index)
	assert.Equal(t, uint64(1), faults[0].Tick)
	assert.Equal(t, "boom", faults[0].Value)
	assert.True(t, errors.Is(faults[0], engine.ErrSystemPanicked))
	assert.Contains(t, faults[0].Error(), "system 1")
}

func TestCallbackFault(t *testing.T) {
	var buf bytes.Buffer
	e, err := engine.New(
		func(*state) { panic("sink down") },
		engine.WithState(&state{}),
		engine.WithLogger[*state](zerolog.New(&buf)),
	)
	require.NoError(t, err)

	assert.NotPanics(t, e.Tick)
	assert.NotPanics(t, e.Tick)
	assert.Equal(t, uint64(2), e.Ticks())
	assert.Contains(t, buf.String(), "Tick faulted")
	assert.Contains(t, buf.String(), e.RunId().String())
	assert.Contains(t, buf.String(), `"index":-1`)
}

func TestRunWithTickChannel(t *testing.T) {
	ticks := make(chan time.Time)
	s := &state{}
	seen := make(chan int, 10)

	e, err := engine.New(
		func(st *state) { seen <- st.X },
		engine.WithState(s),
		engine.WithTickChannel[*state](ticks),
		engine.WithSystems(func(_ time.Duration, st *state) { st.X++ }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- e.Run(ctx) }()

	for i := 1; i <= 3; i++ {
		ticks <- time.Now()
		assert.Equal(t, i, <-seen)
	}

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop after context cancellation")
	}
	assert.Equal(t, uint64(3), e.Ticks())
	assert.False(t, e.Running())
}

func TestRunClosedTickChannel(t *testing.T) {
	ticks := make(chan time.Time)
	close(ticks)

	e, err := engine.New(noop[*state], engine.WithTickChannel[*state](ticks))
	require.NoError(t, err)

	err = e.Run(context.Background())
	assert.True(t, errors.Is(err, engine.ErrTickChannelClosed))
}

func TestStartStop(t *testing.T) {
	var count atomic.Int64
	e, err := engine.New(
		func(*state) { count.Add(1) },
		engine.WithState(&state{}),
		engine.WithInterval[*state](time.Millisecond),
	)
	require.NoError(t, err)

	require.NoError(t, e.Start(context.Background()))
	assert.True(t, e.Running())
	assert.True(t, errors.Is(e.Start(context.Background()), engine.ErrAlreadyRunning))
	assert.True(t, errors.Is(e.Run(context.Background()), engine.ErrAlreadyRunning))

	assert.Eventually(t, func() bool { return count.Load() >= 3 }, time.Second, time.Millisecond)

	e.Stop()
	e.Wait()
	assert.False(t, e.Running())

	stopped := count.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, stopped, count.Load(), "no ticks after Wait returns")

	t.Run("stop is idempotent", func(t *testing.T) {
		e.Stop()
		e.Wait()
	})

	t.Run("engine can be restarted", func(t *testing.T) {
		require.NoError(t, e.Start(context.Background()))
		e.Stop()
		e.Wait()
		assert.False(t, e.Running())
	})
}

func TestStopFromCallback(t *testing.T) {
	ticks := make(chan time.Time)

	var e *engine.Engine[*state]
	e, err := engine.New(
		func(st *state) {
			if st.X == 2 {
				e.Stop()
			}
		},
		engine.WithState(&state{}),
		engine.WithTickChannel[*state](ticks),
		engine.WithSystems(func(_ time.Duration, st *state) { st.X++ }),
	)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- e.Run(context.Background()) }()

	ticks <- time.Now()
	ticks <- time.Now()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Stop called from the callback did not end the loop")
	}
	assert.Equal(t, uint64(2), e.Ticks())
	assert.Equal(t, 2, e.State().X)
	assert.False(t, e.Running())
}

func TestForScheduler(t *testing.T) {
	storage := ecs.NewStorage()
	scheduler := ecs.NewScheduler(storage)

	startups := 0
	scheduler.AddStartupSystem(ecs.NewSystemFunc("seed", ecs.NewQuery(), func(float64, [][]ecs.Component) {
		startups++
		storage.CreateEntity(&Position{})
	}))
	scheduler.AddSystem(ecs.NewSystemFunc("move", ecs.NewQuery("pos"), func(delta float64, matched [][]ecs.Component) {
		for _, components := range matched {
			for _, p := range ecs.ComponentsOf[*Position](components, "pos") {
				p.X += delta
			}
		}
	}))

	var observed []float64
	e, err := engine.ForScheduler(scheduler, func(s *ecs.Storage) {
		for _, components := range s.Filter(ecs.NewQuery("pos")) {
			observed = append(observed, components[0].(*Position).X)
		}
	}, engine.WithInterval[*ecs.Storage](10*time.Millisecond))
	require.NoError(t, err)

	assert.Equal(t, 1, startups)
	assert.Same(t, storage, e.State())

	e.Tick()
	e.Tick()

	assert.Equal(t, []float64{10, 20}, observed)
	assert.Equal(t, uint64(2), scheduler.Tick())
}
