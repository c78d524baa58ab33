// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package graveyard implements Set and Map, graveyard-hashed containers
// built on the internal/table engine: Swiss-table-style bucket layout
// with a one-byte secondary hash per slot for SIMD-filtered probing, and
// deliberately-placed tombstones laid down at rehash time that keep
// insertions cheap even at very high load factors.
package graveyard

import "github.com/aristanetworks/graveyard/internal/table"

func identity[T any](v *T) T { return *v }

// Set is a graveyard-hashed set of T, keyed on itself.
type Set[T any] struct {
	t *table.Table[T, T]
}

// NewSet constructs an empty Set using hash and equal to probe and
// compare keys.
func NewSet[T any](hash func(T) uint64, equal func(a, b T) bool, opts Options) *Set[T] {
	return &Set[T]{t: table.New[T, T](hash, equal, identity[T], opts)}
}

// NewSetWithCapacity constructs a Set already reserved to hold capacity
// entries without a rehash.
func NewSetWithCapacity[T any](capacity int, hash func(T) uint64, equal func(a, b T) bool, opts Options) *Set[T] {
	return &Set[T]{t: table.NewWithCapacity[T, T](capacity, hash, equal, identity[T], opts)}
}

// SetIterator walks the live elements of a Set.
type SetIterator[T any] struct{ it table.Iterator[T] }

// Equal reports whether two iterators refer to the same position.
func (it SetIterator[T]) Equal(other SetIterator[T]) bool { return it.it.Equal(other.it) }

// Value returns the element the iterator refers to.
func (it SetIterator[T]) Value() T { return *it.it.Value() }

// Next advances the iterator to the next live element, or to End if none
// remains.
func (it *SetIterator[T]) Next() { it.it.Next() }

// Begin returns an iterator to the first element, or End if the set is
// empty.
func (s *Set[T]) Begin() SetIterator[T] { return SetIterator[T]{s.t.Begin()} }

// End returns the sentinel iterator one past the last element.
func (s *Set[T]) End() SetIterator[T] { return SetIterator[T]{s.t.End()} }

// Len returns the number of elements in s.
func (s *Set[T]) Len() int { return s.t.Size() }

// Empty reports whether s holds no elements.
func (s *Set[T]) Empty() bool { return s.t.Empty() }

// Capacity returns the number of slots currently allocated.
func (s *Set[T]) Capacity() int { return s.t.Capacity() }

// BucketCount returns the number of physical buckets currently
// allocated.
func (s *Set[T]) BucketCount() int { return s.t.BucketCount() }

// AllocatedMemorySize returns the number of bytes held by the bucket
// array.
func (s *Set[T]) AllocatedMemorySize() int { return s.t.AllocatedMemorySize() }

// Clear removes every element.
func (s *Set[T]) Clear() { s.t.Clear() }

// Swap exchanges the contents of s and other.
func (s *Set[T]) Swap(other *Set[T]) { s.t.Swap(other.t) }

// Reserve grows s, if necessary, so that it can hold count elements
// without triggering a rehash.
func (s *Set[T]) Reserve(count int) { s.t.Reserve(count) }

// Rehash resizes s to the given target slot count, or, if slotCount is
// 0, to whatever size holds the current elements at the full-utilization
// ratio.
func (s *Set[T]) Rehash(slotCount int) { s.t.Rehash(slotCount) }

// Insert adds value to s if not already present. It returns an iterator
// to the (possibly preexisting) element and whether an insertion
// actually happened.
func (s *Set[T]) Insert(value T) (SetIterator[T], bool) {
	it, inserted := s.t.Insert(value)
	return SetIterator[T]{it}, inserted
}

// Find looks up value, returning its iterator and true if present.
func (s *Set[T]) Find(value T) (SetIterator[T], bool) {
	it, ok := s.t.Find(value)
	return SetIterator[T]{it}, ok
}

// Contains reports whether value is present in s.
func (s *Set[T]) Contains(value T) bool { return s.t.Contains(value) }

// Count returns 1 if value is present, 0 otherwise.
func (s *Set[T]) Count(value T) int { return s.t.Count(value) }

// Erase removes the element at it.
func (s *Set[T]) Erase(it SetIterator[T]) { s.t.Erase(it.it) }

// EraseValue removes value from s, if present, reporting whether
// anything was removed.
func (s *Set[T]) EraseValue(value T) bool { return s.t.EraseKey(value) }

// Clone returns a new Set holding the same elements.
func (s *Set[T]) Clone() *Set[T] { return &Set[T]{t: s.t.Clone()} }

// ProbeStatistics reports the mean successful and unsuccessful probe
// lengths across s's current contents.
func (s *Set[T]) ProbeStatistics() table.ProbeStatistics { return s.t.ProbeStatistics() }

// Validate checks every structural invariant of the underlying table. It
// returns the first violation found, or nil.
func (s *Set[T]) Validate() error { return s.t.Validate() }

// ToString renders s's full internal layout for debugging, formatting
// each element with format.
func (s *Set[T]) ToString(format func(T) string) string { return s.t.ToString(format) }
