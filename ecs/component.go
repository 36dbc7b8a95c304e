package ecs

import (
	"github.com/cespare/xxhash/v2"
)

// Kind is the string tag that discriminates components.
type Kind string

// KindId is the hashed form of a Kind used by the kind index.
type KindId uint64

// Id returns the hash of the kind tag.
func (k Kind) Id() KindId {
	return KindId(xxhash.Sum64String(string(k)))
}

// Component is any value carrying a kind tag. Variants are defined by
// consumers. Pointer components are shared between the store and every
// reader, so writes through them are visible to later systems.
//
// Kind must return the same value for the lifetime of the component. The
// store reads it once, when the component is added, and indexes and matches
// on that value.
type Component interface {
	Kind() Kind
}

// Tagged is a ready-made component for payloads that have no type of their own.
// Its kind is fixed at construction.
type Tagged[T any] struct {
	tag   Kind
	Value *T
}

// NewTagged wraps value under the given kind.
func NewTagged[T any](kind Kind, value T) *Tagged[T] {
	return &Tagged[T]{tag: kind, Value: &value}
}

func (t *Tagged[T]) Kind() Kind {
	return t.tag
}

// ComponentsOf returns the components of the given kind, in order, cast to T.
// Components that are not a T are skipped.
func ComponentsOf[T Component](components []Component, kind Kind) []T {
	var out []T
	for _, c := range components {
		if c.Kind() != kind {
			continue
		}
		if typed, ok := c.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// FirstOf returns the first component of the given kind cast to T.
func FirstOf[T Component](components []Component, kind Kind) (T, bool) {
	for _, c := range components {
		if c.Kind() != kind {
			continue
		}
		if typed, ok := c.(T); ok {
			return typed, true
		}
	}
	var zero T
	return zero, false
}
