// Package hset implements a mutable set over elements with a custom
// hasher, for element types that are not comparable
package hset

import (
	"iter"

	"github.com/benbjohnson/immutable"
)

// HSet is a shallow wrapper around a map keyed by element hash.
// Two elements the hasher considers equal occupy one slot.
type HSet[A any] struct {
	hasher     immutable.Hasher[A]
	underlying map[uint32]A
}

func Empty[A any](hasher immutable.Hasher[A]) HSet[A] {
	return HSet[A]{
		hasher:     hasher,
		underlying: make(map[uint32]A),
	}
}

func New[A any](hasher immutable.Hasher[A], elems ...A) HSet[A] {
	n := Empty(hasher)
	n.Add(elems...)
	return n
}

func (s HSet[A]) Add(elems ...A) {
	for _, elem := range elems {
		s.underlying[s.hasher.Hash(elem)] = elem
	}
}

func (s HSet[A]) Remove(elems ...A) {
	for _, elem := range elems {
		delete(s.underlying, s.hasher.Hash(elem))
	}
}

func (s HSet[A]) Contains(elem A) bool {
	_, ok := s.underlying[s.hasher.Hash(elem)]
	return ok
}

func (s HSet[A]) Len() int {
	return len(s.underlying)
}

func (s HSet[A]) All() iter.Seq[A] {
	return func(yield func(A) bool) {
		for _, elem := range s.underlying {
			if !yield(elem) {
				return
			}
		}
	}
}

// Slice copies the elements out in unspecified order
func (s HSet[A]) Slice() []A {
	slice := make([]A, 0, len(s.underlying))
	for _, elem := range s.underlying {
		slice = append(slice, elem)
	}
	return slice
}
