package ecs_test

import "github.com/plus3/kindecs/ecs"

// Common test component types
type Position struct {
	X, Y float64
}

func (*Position) Kind() ecs.Kind { return "pos" }

type Velocity struct {
	DX, DY float64
}

func (*Velocity) Kind() ecs.Kind { return "vel" }

type Health struct {
	Current int
	Max     int
}

func (*Health) Kind() ecs.Kind { return "health" }

// Label is a value component; copies handed out by the store are independent.
type Label string

func (Label) Kind() ecs.Kind { return "label" }

// kindOnly is a payload-free component with an arbitrary kind.
type kindOnly ecs.Kind

func (k kindOnly) Kind() ecs.Kind { return ecs.Kind(k) }

func kinds(components []ecs.Component) []ecs.Kind {
	out := make([]ecs.Kind, len(components))
	for i, c := range components {
		out[i] = c.Kind()
	}
	return out
}
