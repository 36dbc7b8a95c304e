package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/kindecs/ecs"
	"github.com/plus3/kindecs/engine"
)

func TestBounceAxis(t *testing.T) {
	x, v := bounceAxis(-5, -3, 100)
	assert.Equal(t, 5.0, x)
	assert.Equal(t, 3.0, v)

	x, v = bounceAxis(110, 3, 100)
	assert.Equal(t, 90.0, x)
	assert.Equal(t, -3.0, v)

	x, v = bounceAxis(50, 3, 100)
	assert.Equal(t, 50.0, x)
	assert.Equal(t, 3.0, v)
}

func TestWorldMovesEntities(t *testing.T) {
	scheduler := newWorld(20, 1)

	eng, err := engine.ForScheduler(scheduler, func(*ecs.Storage) {}, engine.WithInterval[*ecs.Storage](100*time.Millisecond))
	require.NoError(t, err)

	storage := scheduler.Storage()
	movers := storage.Filter(ecs.NewQuery(velocityKind))
	require.Len(t, movers, 20, "startup spawns every mover through the command buffer")
	assert.Len(t, storage.Filter(ecs.NewQuery(boundsKind)), 1)

	// pick a mover far enough from the edges that one tick cannot bounce it
	var start *Position
	var vel *Velocity
	for _, components := range movers {
		p, _ := ecs.FirstOf[*Position](components, positionKind)
		if p.X > 20 && p.X < 980 && p.Y > 20 && p.Y < 980 {
			start = p
			vel, _ = ecs.FirstOf[*Velocity](components, velocityKind)
			break
		}
	}
	require.NotNil(t, start)
	startX, startY := start.X, start.Y
	dx, dy := vel.DX, vel.DY

	eng.Tick()

	assert.InDelta(t, startX+dx*0.1, start.X, 1e-9)
	assert.InDelta(t, startY+dy*0.1, start.Y, 1e-9)

	for i := 0; i < 200; i++ {
		eng.Tick()
	}
	for _, components := range storage.Filter(ecs.NewQuery(positionKind)) {
		p, _ := ecs.FirstOf[*Position](components, positionKind)
		assert.True(t, p.X >= 0 && p.X <= 1000 && p.Y >= 0 && p.Y <= 1000, "mover escaped: %+v", p)
	}
}
