package main

import (
	"fmt"
	"math/rand"

	"github.com/plus3/kindecs/ecs"
)

// stressComponent is the single component type behind every generated kind.
type stressComponent struct {
	kind  ecs.Kind
	Value float64
}

func (c *stressComponent) Kind() ecs.Kind { return c.kind }

func generateKinds(n int) []ecs.Kind {
	kinds := make([]ecs.Kind, n)
	for i := range kinds {
		kinds[i] = ecs.Kind(fmt.Sprintf("stress.k%03d", i))
	}
	return kinds
}

func randomComponents(rng *rand.Rand, kinds []ecs.Kind, n int) []ecs.Component {
	components := make([]ecs.Component, n)
	for i := range components {
		components[i] = &stressComponent{kind: kinds[rng.Intn(len(kinds))], Value: rng.Float64()}
	}
	return components
}

// stressSystem queries one to three random kinds and bumps every matched
// component of those kinds.
type stressSystem struct {
	name  string
	query ecs.Query
}

func newStressSystem(i int, rng *rand.Rand, kinds []ecs.Kind) *stressSystem {
	queryKinds := make([]ecs.Kind, rng.Intn(3)+1)
	for j := range queryKinds {
		queryKinds[j] = kinds[rng.Intn(len(kinds))]
	}
	return &stressSystem{
		name:  fmt.Sprintf("stress.s%03d", i),
		query: ecs.NewQuery(queryKinds...),
	}
}

func (s *stressSystem) Name() string { return s.name }

func (s *stressSystem) Query() ecs.Query { return s.query }

func (s *stressSystem) Update(delta float64, matched [][]ecs.Component) {
	for _, components := range matched {
		for _, c := range components {
			if sc, ok := c.(*stressComponent); ok && s.query.Has(sc.kind) {
				sc.Value += delta
			}
		}
	}
}

// churnSystem replaces a fraction of the live entities every pass through
// the command buffer, so destroys and creates land after the other systems.
type churnSystem struct {
	storage  *ecs.Storage
	commands *ecs.Commands
	rng      *rand.Rand
	kinds    []ecs.Kind
	rate     float64
	churned  int64
}

func (c *churnSystem) Name() string { return "stress.churn" }

func (c *churnSystem) Query() ecs.Query { return ecs.NewQuery() }

func (c *churnSystem) Update(float64, [][]ecs.Component) {
	ids := c.storage.Entities()
	n := int(float64(len(ids)) * c.rate)
	for i := 0; i < n; i++ {
		c.commands.DestroyEntity(ids[c.rng.Intn(len(ids))])
		c.commands.CreateEntity(randomComponents(c.rng, c.kinds, c.rng.Intn(5)+1)...)
	}
	c.churned += int64(n)
}
