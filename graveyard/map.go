// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package graveyard

import "github.com/aristanetworks/graveyard/internal/table"

// pair is the slot type a Map actually stores. Go structs have no
// const-qualified fields, so the "store a mutable pair, expose a
// const-key view" layout trick the algorithm this is grounded on relies
// on (to let callers mutate V in place through a reference without being
// able to corrupt K) doesn't apply: MapEntry is always handed back by
// value on read instead.
type pair[K any, V any] struct {
	Key   K
	Value V
}

// MapEntry is the by-value view of one Map entry returned from Find and
// iteration.
type MapEntry[K any, V any] struct {
	Key   K
	Value V
}

func pairKeyOf[K any, V any](p *pair[K, V]) K { return p.Key }

// Map is a graveyard-hashed key/value container, keyed on K.
type Map[K any, V any] struct {
	t *table.Table[pair[K, V], K]
}

// NewMap constructs an empty Map using hash and equal to probe and
// compare keys.
func NewMap[K any, V any](hash func(K) uint64, equal func(a, b K) bool, opts Options) *Map[K, V] {
	return &Map[K, V]{t: table.New[pair[K, V], K](hash, equal, pairKeyOf[K, V], opts)}
}

// NewMapWithCapacity constructs a Map already reserved to hold capacity
// entries without a rehash.
func NewMapWithCapacity[K any, V any](capacity int, hash func(K) uint64, equal func(a, b K) bool, opts Options) *Map[K, V] {
	return &Map[K, V]{t: table.NewWithCapacity[pair[K, V], K](capacity, hash, equal, pairKeyOf[K, V], opts)}
}

// MapIterator walks the live entries of a Map.
type MapIterator[K any, V any] struct{ it table.Iterator[pair[K, V]] }

// Equal reports whether two iterators refer to the same position.
func (it MapIterator[K, V]) Equal(other MapIterator[K, V]) bool { return it.it.Equal(other.it) }

// Entry returns the (key, value) the iterator refers to.
func (it MapIterator[K, V]) Entry() MapEntry[K, V] {
	p := it.it.Value()
	return MapEntry[K, V]{Key: p.Key, Value: p.Value}
}

// Next advances the iterator to the next live entry, or to End if none
// remains.
func (it *MapIterator[K, V]) Next() { it.it.Next() }

// Begin returns an iterator to the first entry, or End if the map is
// empty.
func (m *Map[K, V]) Begin() MapIterator[K, V] { return MapIterator[K, V]{m.t.Begin()} }

// End returns the sentinel iterator one past the last entry.
func (m *Map[K, V]) End() MapIterator[K, V] { return MapIterator[K, V]{m.t.End()} }

// Len returns the number of entries in m.
func (m *Map[K, V]) Len() int { return m.t.Size() }

// Empty reports whether m holds no entries.
func (m *Map[K, V]) Empty() bool { return m.t.Empty() }

// Capacity returns the number of slots currently allocated.
func (m *Map[K, V]) Capacity() int { return m.t.Capacity() }

// BucketCount returns the number of physical buckets currently
// allocated.
func (m *Map[K, V]) BucketCount() int { return m.t.BucketCount() }

// AllocatedMemorySize returns the number of bytes held by the bucket
// array.
func (m *Map[K, V]) AllocatedMemorySize() int { return m.t.AllocatedMemorySize() }

// Clear removes every entry.
func (m *Map[K, V]) Clear() { m.t.Clear() }

// Swap exchanges the contents of m and other.
func (m *Map[K, V]) Swap(other *Map[K, V]) { m.t.Swap(other.t) }

// Reserve grows m, if necessary, so that it can hold count entries
// without triggering a rehash.
func (m *Map[K, V]) Reserve(count int) { m.t.Reserve(count) }

// Rehash resizes m to the given target slot count, or, if slotCount is
// 0, to whatever size holds the current entries at the full-utilization
// ratio.
func (m *Map[K, V]) Rehash(slotCount int) { m.t.Rehash(slotCount) }

// TryEmplace inserts (key, makeValue()) only if key is not already
// present. makeValue is called at most once, and only when key is
// absent — the same "don't construct the value unless you have to"
// guarantee try_emplace gives callers whose value is expensive to build.
// It returns an iterator to the (possibly preexisting) entry and whether
// an insertion actually happened.
func (m *Map[K, V]) TryEmplace(key K, makeValue func() V) (MapIterator[K, V], bool) {
	if it, ok := m.t.Find(key); ok {
		return MapIterator[K, V]{it}, false
	}
	it, inserted := m.t.Insert(pair[K, V]{Key: key, Value: makeValue()})
	return MapIterator[K, V]{it}, inserted
}

// At returns the value for key and true if present, or the zero value
// and false otherwise.
func (m *Map[K, V]) At(key K) (V, bool) {
	it, ok := m.t.Find(key)
	if !ok {
		var zero V
		return zero, false
	}
	return it.Value().Value, true
}

// Index realizes operator[]: it returns the value for key, inserting the
// zero value for key first if not already present.
func (m *Map[K, V]) Index(key K) V {
	it, _ := m.t.Insert(pair[K, V]{Key: key})
	return it.Value().Value
}

// Set associates key with value in m, overwriting any existing value.
func (m *Map[K, V]) Set(key K, value V) {
	it, inserted := m.t.Insert(pair[K, V]{Key: key, Value: value})
	if !inserted {
		it.Value().Value = value
	}
}

// Find looks up key, returning its iterator and true if present.
func (m *Map[K, V]) Find(key K) (MapIterator[K, V], bool) {
	it, ok := m.t.Find(key)
	return MapIterator[K, V]{it}, ok
}

// Contains reports whether key is present in m.
func (m *Map[K, V]) Contains(key K) bool { return m.t.Contains(key) }

// Count returns 1 if key is present, 0 otherwise.
func (m *Map[K, V]) Count(key K) int { return m.t.Count(key) }

// Erase removes the entry at it.
func (m *Map[K, V]) Erase(it MapIterator[K, V]) { m.t.Erase(it.it) }

// EraseKey removes the entry for key, if present, reporting whether
// anything was removed.
func (m *Map[K, V]) EraseKey(key K) bool { return m.t.EraseKey(key) }

// Clone returns a new Map holding the same entries.
func (m *Map[K, V]) Clone() *Map[K, V] { return &Map[K, V]{t: m.t.Clone()} }

// ProbeStatistics reports the mean successful and unsuccessful probe
// lengths across m's current contents.
func (m *Map[K, V]) ProbeStatistics() table.ProbeStatistics { return m.t.ProbeStatistics() }

// Validate checks every structural invariant of the underlying table. It
// returns the first violation found, or nil.
func (m *Map[K, V]) Validate() error { return m.t.Validate() }

// ToString renders m's full internal layout for debugging, formatting
// each entry with format.
func (m *Map[K, V]) ToString(format func(MapEntry[K, V]) string) string {
	return m.t.ToString(func(p pair[K, V]) string {
		return format(MapEntry[K, V]{Key: p.Key, Value: p.Value})
	})
}
