package ecs

import (
	"slices"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
)

// ErrEntityNotFound is returned when mutating an entity that is not live.
var ErrEntityNotFound = eris.New("entity not found")

// compactThreshold is the minimum number of tombstones before the order
// slice is rewritten.
const compactThreshold = 32

// entityRecord keeps the kind of every component as read when it was added.
// The index and query matching use these, never a fresh Kind() call.
type entityRecord struct {
	id         EntityId
	pos        int
	components []Component
	kinds      []Kind
}

func (r *entityRecord) append(components []Component) []Kind {
	added := make([]Kind, len(components))
	for i, c := range components {
		added[i] = c.Kind()
	}
	r.components = append(r.components, components...)
	r.kinds = append(r.kinds, added...)
	return added
}

func (r *entityRecord) matches(q Query) bool {
	for _, kind := range r.kinds {
		if q.Has(kind) {
			return true
		}
	}
	return false
}

// Storage owns every entity and its ordered component list.
// It is not safe for concurrent use; a single scheduler owns it.
type Storage struct {
	entities *intmap.Map[EntityId, *entityRecord]
	order    []EntityId
	dead     int
	kinds    *kindIndex
}

// NewStorage creates an empty store.
func NewStorage() *Storage {
	return &Storage{
		entities: intmap.New[EntityId, *entityRecord](256),
		order:    make([]EntityId, 0, 256),
		kinds:    newKindIndex(),
	}
}

// CreateEntity registers a new entity with the given components and returns
// its id. It never fails.
func (s *Storage) CreateEntity(components ...Component) EntityId {
	id := newEntityId()
	for s.entities.Has(id) {
		id = newEntityId()
	}

	record := &entityRecord{
		id:         id,
		pos:        len(s.order),
		components: make([]Component, 0, len(components)),
		kinds:      make([]Kind, 0, len(components)),
	}
	s.entities.Put(id, record)
	s.order = append(s.order, id)
	s.kinds.add(id, record.append(components))

	return id
}

// DestroyEntity removes the entity and all of its components.
// Unknown ids are ignored.
func (s *Storage) DestroyEntity(id EntityId) {
	record, ok := s.entities.Get(id)
	if !ok {
		return
	}

	s.kinds.remove(id, record.kinds)
	s.entities.Del(id)
	s.order[record.pos] = 0
	s.dead++

	if s.dead >= compactThreshold && s.dead*2 >= len(s.order) {
		s.compact()
	}
}

// Entities returns a snapshot of every live entity id in creation order.
func (s *Storage) Entities() []EntityId {
	out := make([]EntityId, 0, s.entities.Len())
	for _, id := range s.order {
		if id != 0 {
			out = append(out, id)
		}
	}
	return out
}

// AddComponents appends components to a live entity's list. Earlier
// components, including ones of the same kind, are kept.
func (s *Storage) AddComponents(id EntityId, components ...Component) error {
	record, ok := s.entities.Get(id)
	if !ok {
		return eris.Wrapf(ErrEntityNotFound, "add components to %s", id)
	}

	s.kinds.add(id, record.append(components))
	return nil
}

// Components returns a copy of the entity's component list, or nil when
// the entity does not exist. Appending to the copy does not change the store.
func (s *Storage) Components(id EntityId) []Component {
	record, ok := s.entities.Get(id)
	if !ok {
		return nil
	}
	return slices.Clone(record.components)
}

// Has reports whether the entity is live.
func (s *Storage) Has(id EntityId) bool {
	return s.entities.Has(id)
}

// Len returns the number of live entities.
func (s *Storage) Len() int {
	return s.entities.Len()
}

func (s *Storage) compact() {
	live := make([]EntityId, 0, s.entities.Len())
	for _, id := range s.order {
		if id == 0 {
			continue
		}
		record, _ := s.entities.Get(id)
		record.pos = len(live)
		live = append(live, id)
	}
	s.order = live
	s.dead = 0
}
