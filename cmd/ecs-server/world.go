package main

import (
	"math"
	"math/rand"

	"github.com/plus3/kindecs/ecs"
)

const (
	positionKind ecs.Kind = "pos"
	velocityKind ecs.Kind = "vel"
	boundsKind   ecs.Kind = "bounds"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (*Position) Kind() ecs.Kind { return positionKind }

// Velocity is in units per second.
type Velocity struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

func (*Velocity) Kind() ecs.Kind { return velocityKind }

type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (*Bounds) Kind() ecs.Kind { return boundsKind }

// newWorld builds a scheduler whose startup system spawns n movers inside a
// bounded area and whose per-tick systems move and bounce them.
func newWorld(n int, seed int64, opts ...ecs.SchedulerOption) *ecs.Scheduler {
	storage := ecs.NewStorage()
	scheduler := ecs.NewScheduler(storage, opts...)
	rng := rand.New(rand.NewSource(seed))
	bounds := &Bounds{Width: 1000, Height: 1000}

	scheduler.AddStartupSystem(ecs.NewSystemFunc("spawn", ecs.NewQuery(), func(float64, [][]ecs.Component) {
		storage.CreateEntity(bounds)
		for i := 0; i < n; i++ {
			angle := rng.Float64() * 2 * math.Pi
			speed := 50 + rng.Float64()*100
			scheduler.Commands().CreateEntity(
				&Position{X: rng.Float64() * bounds.Width, Y: rng.Float64() * bounds.Height},
				&Velocity{DX: math.Cos(angle) * speed, DY: math.Sin(angle) * speed},
			)
		}
	}))

	scheduler.AddSystem(ecs.NewSystemFunc("move", ecs.NewQuery(positionKind, velocityKind), func(delta float64, matched [][]ecs.Component) {
		seconds := delta / 1000
		for _, components := range matched {
			pos, okPos := ecs.FirstOf[*Position](components, positionKind)
			vel, okVel := ecs.FirstOf[*Velocity](components, velocityKind)
			if !okPos || !okVel {
				continue
			}
			pos.X += vel.DX * seconds
			pos.Y += vel.DY * seconds
		}
	}))

	scheduler.AddSystem(ecs.NewSystemFunc("bounce", ecs.NewQuery(positionKind, velocityKind), func(_ float64, matched [][]ecs.Component) {
		for _, components := range matched {
			pos, okPos := ecs.FirstOf[*Position](components, positionKind)
			vel, okVel := ecs.FirstOf[*Velocity](components, velocityKind)
			if !okPos || !okVel {
				continue
			}
			pos.X, vel.DX = bounceAxis(pos.X, vel.DX, bounds.Width)
			pos.Y, vel.DY = bounceAxis(pos.Y, vel.DY, bounds.Height)
		}
	}))

	return scheduler
}

// bounceAxis folds a coordinate back into [0, limit] and flips its velocity
// when it crossed an edge.
func bounceAxis(x, v, limit float64) (float64, float64) {
	switch {
	case x < 0:
		return -x, math.Abs(v)
	case x > limit:
		return 2*limit - x, -math.Abs(v)
	default:
		return x, v
	}
}
