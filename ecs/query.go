package ecs

import (
	"iter"
	"slices"
	"strings"
)

// Query is an immutable set of component kinds. An entity matches a query
// when ANY of its components has ANY of the query's kinds.
type Query struct {
	kinds []Kind
}

// NewQuery builds a query from the given kinds. Duplicates are dropped and
// the order of kinds does not affect matching.
func NewQuery(kinds ...Kind) Query {
	sorted := slices.Clone(kinds)
	slices.Sort(sorted)
	return Query{kinds: slices.Compact(sorted)}
}

// Kinds returns a copy of the query's kinds in sorted order.
func (q Query) Kinds() []Kind {
	return slices.Clone(q.kinds)
}

// Has reports whether kind is part of the query.
func (q Query) Has(kind Kind) bool {
	_, found := slices.BinarySearch(q.kinds, kind)
	return found
}

func (q Query) Len() int {
	return len(q.kinds)
}

// Matches reports whether any component in the list has a kind in q.
func (q Query) Matches(components []Component) bool {
	for _, c := range components {
		if q.Has(c.Kind()) {
			return true
		}
	}
	return false
}

func (q Query) String() string {
	parts := make([]string, len(q.kinds))
	for i, k := range q.kinds {
		parts[i] = string(k)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Filter returns the full component list of every entity matching q, in
// entity creation order. Each list is a copy. An empty query matches nothing.
func (s *Storage) Filter(q Query) [][]Component {
	records := s.matchingRecords(q)
	out := make([][]Component, len(records))
	for i, record := range records {
		out[i] = slices.Clone(record.components)
	}
	return out
}

// Match iterates the entities matching q together with a copy of their
// component lists. The matching set is computed before the first yield, so
// the store may be mutated while iterating.
func (s *Storage) Match(q Query) iter.Seq2[EntityId, []Component] {
	records := s.matchingRecords(q)
	return func(yield func(EntityId, []Component) bool) {
		for _, record := range records {
			if !yield(record.id, slices.Clone(record.components)) {
				return
			}
		}
	}
}

func (s *Storage) matchingRecords(q Query) []*entityRecord {
	if q.Len() == 0 {
		return nil
	}

	candidates := s.kinds.candidates(q)
	records := make([]*entityRecord, 0, candidates.Len())
	candidates.ForEach(func(id EntityId, _ struct{}) bool {
		record, ok := s.entities.Get(id)
		if ok && record.matches(q) {
			records = append(records, record)
		}
		return true
	})

	slices.SortFunc(records, func(a, b *entityRecord) int {
		return a.pos - b.pos
	})
	return records
}
