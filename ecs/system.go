package ecs

// System represents a behavior that runs over the entities matching its query.
// Systems that mutate state are constructed with the *Storage they write to.
// The matched lists passed to Update are copies made for that call.
type System interface {
	Query() Query
	Update(delta float64, matched [][]Component)
}

// Named is implemented by systems that report their own name in stats and
// fault reports. Other systems are named after their Go type.
type Named interface {
	Name() string
}

type systemFunc struct {
	name  string
	query Query
	fn    func(delta float64, matched [][]Component)
}

// NewSystemFunc adapts a plain function into a named System.
func NewSystemFunc(name string, query Query, fn func(delta float64, matched [][]Component)) System {
	return &systemFunc{name: name, query: query, fn: fn}
}

func (s *systemFunc) Name() string {
	return s.name
}

func (s *systemFunc) Query() Query {
	return s.query
}

func (s *systemFunc) Update(delta float64, matched [][]Component) {
	s.fn(delta, matched)
}
