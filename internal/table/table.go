// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package table implements the graveyard hash table engine: the probing,
// insertion, erase, and rehash algorithm shared by every instantiation,
// generic over a slot type S and the key type K it is keyed on. Set[T]
// and Map[K, V] in the graveyard package are both just instantiations of
// Table with different S and a different KeyOf projection.
package table

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/aristanetworks/graveyard/internal/bucket"
	"github.com/aristanetworks/graveyard/internal/buckets"
	"github.com/aristanetworks/graveyard/internal/invariant"
)

// Hasher computes the 64-bit hash of a key.
type Hasher[K any] func(key K) uint64

// Equal reports whether two keys are the same.
type Equal[K any] func(a, b K) bool

// ProbeStatistics summarizes how many buckets, on average, a lookup has
// to visit.
type ProbeStatistics struct {
	// Successful is the mean number of buckets visited by a lookup of a
	// key that is present, averaged over every entry currently stored.
	Successful float64
	// Unsuccessful is the mean number of buckets a lookup of an absent
	// key would have to visit, averaged over every logical bucket.
	Unsuccessful float64
}

// Table is the graveyard hash table engine. S is the slot type actually
// stored (T for a set, pair[K, V] for a map); K is the key type S is
// probed on. keyOf projects a slot down to its key, replacing the
// template-specialized Traits::KeyOf of the algorithm this is grounded
// on.
//
// hasher and equal are func values, so each takes one pointer word in the
// struct whether or not the supplied function carries any state; there
// is no zero-size layout for a stateless pair.
type Table[S any, K any] struct {
	hasher Hasher[K]
	equal  Equal[K]
	keyOf  func(*S) K
	opts   Options

	size    int
	buckets *buckets.Buckets[S]
}

// New constructs an empty Table. It allocates nothing until the first
// Insert or Reserve.
func New[S any, K any](hasher Hasher[K], equal Equal[K], keyOf func(*S) K, opts Options) *Table[S, K] {
	return &Table[S, K]{
		hasher:  hasher,
		equal:   equal,
		keyOf:   keyOf,
		opts:    opts,
		buckets: buckets.New[S](0),
	}
}

// NewWithCapacity constructs a Table already reserved to hold capacity
// entries without a rehash.
func NewWithCapacity[S any, K any](capacity int, hasher Hasher[K], equal Equal[K], keyOf func(*S) K, opts Options) *Table[S, K] {
	t := New[S, K](hasher, equal, keyOf, opts)
	t.Reserve(capacity)
	return t
}

// Iterator walks the live entries of a Table in physical bucket/slot
// order. Its zero value is not valid; obtain one from Table.Begin or
// Table.End.
type Iterator[S any] struct {
	b         *buckets.Buckets[S]
	bucketIdx int
	slotIdx   int
}

// Equal reports whether two iterators refer to the same position.
func (it Iterator[S]) Equal(other Iterator[S]) bool {
	return it.bucketIdx == other.bucketIdx && it.slotIdx == other.slotIdx
}

// Value returns a pointer to the slot the iterator refers to. Calling
// Value on an end iterator is a programming error.
func (it Iterator[S]) Value() *S {
	return it.b.At(it.bucketIdx).Slot(it.slotIdx)
}

// Next advances the iterator to the next live entry, or to End if there
// is none.
func (it *Iterator[S]) Next() {
	it.slotIdx++
	it.skipEmpty()
}

// skipEmpty advances (bucketIdx, slotIdx) to the next occupied slot at or
// after the current position, or to End if none remains. It mirrors the
// algorithm's SkipEmpty: check the remainder of the current bucket first,
// then walk forward bucket by bucket using each bucket's search_distance
// byte to recognize the last physical bucket.
func (it *Iterator[S]) skipEmpty() {
	bk := it.b.At(it.bucketIdx)
	nonEmpties := bk.NonEmptyMask()
	nonEmpties &^= uint16(1)<<uint(it.slotIdx) - 1
	if nonEmpties != 0 {
		it.slotIdx = bits.TrailingZeros16(nonEmpties)
		return
	}
	for {
		isLast := bk.SearchDistance() == bucket.SearchDistanceEndSentinel
		it.bucketIdx++
		if isLast {
			it.slotIdx = 0
			return
		}
		bk = it.b.At(it.bucketIdx)
		nonEmpties = bk.NonEmptyMask()
		if nonEmpties != 0 {
			it.slotIdx = bits.TrailingZeros16(nonEmpties)
			return
		}
	}
}

// Begin returns an iterator to the first live entry, or to End if the
// table is empty.
func (t *Table[S, K]) Begin() Iterator[S] {
	it := Iterator[S]{b: t.buckets, bucketIdx: 0, slotIdx: 0}
	if !t.buckets.Empty() {
		it.skipEmpty()
	}
	return it
}

// End returns the sentinel iterator one past the last physical bucket.
func (t *Table[S, K]) End() Iterator[S] {
	return Iterator[S]{b: t.buckets, bucketIdx: t.buckets.PhysicalSize(), slotIdx: 0}
}

// Size returns the number of live entries.
func (t *Table[S, K]) Size() int { return t.size }

// Empty reports whether Size() == 0.
func (t *Table[S, K]) Empty() bool { return t.size == 0 }

// Capacity returns the number of slots currently allocated, including
// overflow buckets.
func (t *Table[S, K]) Capacity() int {
	return t.buckets.PhysicalSize() * bucket.SlotsPerBucket
}

// BucketCount returns the number of physical buckets currently allocated.
func (t *Table[S, K]) BucketCount() int { return t.buckets.PhysicalSize() }

// AllocatedMemorySize returns the number of bytes held by the bucket
// array, not including the Table header itself.
func (t *Table[S, K]) AllocatedMemorySize() int { return t.buckets.AllocatedMemorySize() }

// Clear removes every entry and releases the bucket array.
func (t *Table[S, K]) Clear() {
	t.size = 0
	t.buckets.Clear()
}

// Swap exchanges the contents of t and other.
func (t *Table[S, K]) Swap(other *Table[S, K]) {
	t.size, other.size = other.size, t.size
	t.buckets.Swap(other.buckets)
}

func (t *Table[S, K]) logicalSlotCount() int {
	return t.buckets.LogicalSize() * bucket.SlotsPerBucket
}

func (t *Table[S, K]) needsRehash(targetSize int) bool {
	return t.logicalSlotCount()*t.opts.FullNum < targetSize*t.opts.FullDen
}

// Reserve grows the table, if necessary, so that it can hold count
// entries without triggering a rehash. A rehash triggered this way never
// grows the logical slot count by less than a factor of 8/7.
func (t *Table[S, K]) Reserve(count int) {
	if !t.needsRehash(count) {
		return
	}
	neededForCount := ceilDiv(count*t.opts.FullDen, t.opts.FullNum)
	minimumGrowth := ceilDiv(t.logicalSlotCount()*8, 7)
	newCapacity := neededForCount
	if minimumGrowth > newCapacity {
		newCapacity = minimumGrowth
	}
	t.rehash(newCapacity)
}

// Rehash resizes the table to the given target slot count (not counting
// overflow buckets), or, if slotCount is 0, to whatever size holds the
// current entries at the table's full-utilization ratio.
func (t *Table[S, K]) Rehash(slotCount int) { t.rehash(slotCount) }

func (t *Table[S, K]) rehash(slotCount int) {
	if slotCount == 0 {
		slotCount = ceilDiv(t.size*t.opts.FullDen, t.opts.FullNum)
	}
	newLogicalSize := ceilDiv(slotCount, bucket.SlotsPerBucket)
	old := t.buckets
	t.buckets = buckets.New[S](newLogicalSize)
	t.rehashFrom(old)
}

// rehashFrom reinserts every live entry of old into t in ascending
// physical order, seeding graveyard tombstones as it goes, and
// periodically advises the OS that the already-consumed prefix of old's
// backing array can be released. t.size is left untouched: rehashing
// redistributes entries, it neither adds nor removes any.
func (t *Table[S, K]) rehashFrom(old *buckets.Buckets[S]) {
	firstUninitialized := 0
	period := t.opts.tombstonePeriod()
	for bucketNumber := 0; bucketNumber < old.PhysicalSize(); bucketNumber++ {
		if bucketNumber%(1<<15) == 0 {
			old.ReleasePrefix(bucketNumber)
		}
		bk := old.At(bucketNumber)
		for j := 0; j < bucket.SlotsPerBucket; j++ {
			if bk.H2(j) == bucket.Empty {
				continue
			}
			value := *bk.Slot(j)
			t.insertAscending(value, &firstUninitialized, period)
			var zero S
			*bk.Slot(j) = zero
		}
	}
	t.finishInsertAscending(firstUninitialized)
}

// copyFrom reinserts every live entry of old into t in ascending physical
// order without seeding tombstones, for Clone: a freshly reserved copy is
// already sized exactly to its occupancy, so there's no benefit to
// reserving tombstone room for future growth.
func (t *Table[S, K]) copyFrom(old *buckets.Buckets[S]) {
	firstUninitialized := 0
	for i := 0; i < old.PhysicalSize(); i++ {
		bk := old.At(i)
		for j := 0; j < bucket.SlotsPerBucket; j++ {
			if bk.H2(j) != bucket.Empty {
				t.insertAscending(*bk.Slot(j), &firstUninitialized, 0)
			}
		}
	}
	t.finishInsertAscending(firstUninitialized)
}

// insertAscending places value into the (already appropriately sized) new
// bucket array, initializing any bucket it passes over for the first
// time. It requires that bucketToTry only increases across a sequence of
// calls sharing the same firstUninitialized counter (both rehashFrom and
// copyFrom visit old entries in ascending physical order, which preserves
// this as long as hashes aren't adversarial). tombstonePeriod == 0
// disables tombstone seeding.
func (t *Table[S, K]) insertAscending(value S, firstUninitialized *int, tombstonePeriod int) {
	key := t.keyOf(&value)
	hash := t.hasher(key)
	preferredBucket := t.buckets.H1(hash)
	h2 := buckets.H2(hash)

	bucketToTry := preferredBucket
	for {
		invariant.Check(bucketToTry < t.buckets.PhysicalSize(), "graveyard: rehash insert ran past the physical bucket array")
		for bucketToTry >= *firstUninitialized {
			t.buckets.At(*firstUninitialized).Init()
			*firstUninitialized++
		}
		bk := t.buckets.At(bucketToTry)
		matches := bk.EmptyMask()
		if tombstonePeriod > 0 {
			globalSlot := bucketToTry * bucket.SlotsPerBucket
			modPeriod := globalSlot % tombstonePeriod
			if modPeriod >= tombstonePeriod-bucket.SlotsPerBucket {
				// Reserve slot 0 of this bucket as a tombstone: leave it
				// out of the empty slots we're willing to fill.
				matches &^= 1
			}
		}
		if matches != 0 {
			idx := bits.TrailingZeros16(matches)
			bk.SetH2(idx, h2)
			*bk.Slot(idx) = value
			pref := t.buckets.At(preferredBucket)
			invariant.Check(bucketToTry-preferredBucket+1 < int(bucket.SearchDistanceEndSentinel), "graveyard: search distance overflow during rehash")
			if d := uint8(bucketToTry - preferredBucket + 1); d > pref.SearchDistance() {
				pref.SetSearchDistance(d)
			}
			return
		}
		bucketToTry++
	}
}

// finishInsertAscending initializes any remaining buckets after the
// rehash/copy loop and stamps the end-of-search sentinel onto the last
// physical bucket.
func (t *Table[S, K]) finishInsertAscending(firstUninitialized int) {
	for firstUninitialized < t.buckets.PhysicalSize() {
		t.buckets.At(firstUninitialized).Init()
		firstUninitialized++
	}
	if n := t.buckets.PhysicalSize(); n > 0 {
		t.buckets.At(n - 1).SetSearchDistance(bucket.SearchDistanceEndSentinel)
	}
}

func (t *Table[S, K]) findInBucket(bk *bucket.Bucket[S], h2 uint8, key K) int {
	return bk.FindKey(h2, func(s *S) bool { return t.equal(t.keyOf(s), key) })
}

// Insert places value into the table if its key is not already present.
// It returns an iterator to the (possibly preexisting) entry and whether
// an insertion actually happened.
func (t *Table[S, K]) Insert(value S) (Iterator[S], bool) {
	if t.needsRehash(t.size + 1) {
		t.rehash(ceilDiv((t.size+1)*t.opts.RehashedDen, t.opts.RehashedNum))
	}
	key := t.keyOf(&value)
	hash := t.hasher(key)
	preferredBucket := t.buckets.H1(hash)
	h2 := buckets.H2(hash)

	distance := int(t.buckets.At(preferredBucket).SearchDistance())
	for i := 0; i < distance; i++ {
		bk := t.buckets.At(preferredBucket + i)
		if idx := t.findInBucket(bk, h2, key); idx < bucket.SlotsPerBucket {
			return Iterator[S]{b: t.buckets, bucketIdx: preferredBucket + i, slotIdx: idx}, false
		}
	}
	return t.insertNoRehashNeeded(value, preferredBucket, h2), true
}

// insertNoRehashNeeded requires that value's key is not present and that
// the table does not need to grow to accommodate it.
func (t *Table[S, K]) insertNoRehashNeeded(value S, preferredBucket int, h2 uint8) Iterator[S] {
	for i := 0; ; i++ {
		invariant.Check(preferredBucket+i < t.buckets.PhysicalSize(), "graveyard: insert ran past the physical bucket array")
		bk := t.buckets.At(preferredBucket + i)
		idx := bk.FindFirstEmpty()
		if idx < bucket.SlotsPerBucket {
			bk.SetH2(idx, h2)
			*bk.Slot(idx) = value
			pref := t.buckets.At(preferredBucket)
			invariant.Check(i+1 < int(bucket.SearchDistanceEndSentinel), "graveyard: search distance overflow on insert")
			if d := uint8(i + 1); d > pref.SearchDistance() {
				pref.SetSearchDistance(d)
			}
			t.size++
			return Iterator[S]{b: t.buckets, bucketIdx: preferredBucket + i, slotIdx: idx}
		}
	}
}

// FindWithHash looks up key, given its precomputed hash (which must
// actually be the hash of key). It is the low-level extension point
// Find uses; callers that already have the hash on hand (e.g. after a
// failed Insert) can skip recomputing it.
func (t *Table[S, K]) FindWithHash(key K, hash uint64) (Iterator[S], bool) {
	if t.size == 0 {
		return t.End(), false
	}
	preferredBucket := t.buckets.H1(hash)
	h2 := buckets.H2(hash)
	distance := int(t.buckets.At(preferredBucket).SearchDistance())
	for i := 0; i < distance; i++ {
		bk := t.buckets.At(preferredBucket + i)
		if idx := t.findInBucket(bk, h2, key); idx < bucket.SlotsPerBucket {
			return Iterator[S]{b: t.buckets, bucketIdx: preferredBucket + i, slotIdx: idx}, true
		}
	}
	return t.End(), false
}

// Find looks up key, returning its iterator and true if present.
func (t *Table[S, K]) Find(key K) (Iterator[S], bool) {
	return t.FindWithHash(key, t.hasher(key))
}

// Contains reports whether key is present.
func (t *Table[S, K]) Contains(key K) bool {
	_, ok := t.Find(key)
	return ok
}

// Count returns 1 if key is present, 0 otherwise (a set never holds
// duplicate keys).
func (t *Table[S, K]) Count(key K) int {
	if t.Contains(key) {
		return 1
	}
	return 0
}

// EqualRange returns the (at most one element) range of entries matching
// key: (it, it+1) if found, (end, end) otherwise.
func (t *Table[S, K]) EqualRange(key K) (Iterator[S], Iterator[S]) {
	it, ok := t.Find(key)
	if !ok {
		return it, it
	}
	next := it
	next.Next()
	return it, next
}

// Erase removes the entry at it. It does not lower any bucket's
// search_distance and does not compact the bucket array — both match the
// algorithm this is grounded on, which treats search_distance as a
// monotonically nondecreasing high-water mark between rehashes.
func (t *Table[S, K]) Erase(it Iterator[S]) {
	bk := t.buckets.At(it.bucketIdx)
	invariant.Check(bk.H2(it.slotIdx) != bucket.Empty, "graveyard: erase of an already-empty slot")
	var zero S
	bk.SetH2(it.slotIdx, bucket.Empty)
	*bk.Slot(it.slotIdx) = zero
	t.size--
}

// EraseKey removes the entry for key, if present, reporting whether
// anything was removed.
func (t *Table[S, K]) EraseKey(key K) bool {
	it, ok := t.Find(key)
	if !ok {
		return false
	}
	t.Erase(it)
	return true
}

// Clone returns a new Table holding the same entries, reserved to
// exactly the current occupancy and without graveyard tombstones (a copy
// sized to fit has no future growth to amortize).
func (t *Table[S, K]) Clone() *Table[S, K] {
	nt := New[S, K](t.hasher, t.equal, t.keyOf, t.opts)
	nt.Reserve(t.size)
	nt.size = t.size
	nt.copyFrom(t.buckets)
	return nt
}

// ProbeStatistics reports the mean successful and unsuccessful probe
// lengths across the table's current contents.
func (t *Table[S, K]) ProbeStatistics() ProbeStatistics {
	var stats ProbeStatistics
	successSum := 0.0
	for it := t.Begin(); !it.Equal(t.End()); it.Next() {
		key := t.keyOf(it.Value())
		successSum += float64(t.probeLengthForKey(key))
	}
	if t.size > 0 {
		stats.Successful = successSum / float64(t.size)
	}
	unsuccessSum := 0.0
	for i := 0; i < t.buckets.LogicalSize(); i++ {
		unsuccessSum += float64(t.buckets.At(i).SearchDistance()) + 1
	}
	if n := t.buckets.LogicalSize(); n > 0 {
		stats.Unsuccessful = unsuccessSum / float64(n)
	}
	return stats
}

// SuccessfulProbeLength returns the number of buckets a lookup of key
// would have to visit. It requires that key is present.
func (t *Table[S, K]) SuccessfulProbeLength(key K) int {
	return t.probeLengthForKey(key)
}

func (t *Table[S, K]) probeLengthForKey(key K) int {
	hash := t.hasher(key)
	h1 := t.buckets.H1(hash)
	h2 := buckets.H2(hash)
	distance := int(t.buckets.At(h1).SearchDistance())
	for i := 0; i < distance; i++ {
		bk := t.buckets.At(h1 + i)
		if idx := t.findInBucket(bk, h2, key); idx < bucket.SlotsPerBucket {
			return i + 1
		}
	}
	invariant.Check(false, "graveyard: probe length requested for a key that is not present")
	return 0
}

// ToString renders the table's full internal layout for debugging,
// formatting each live value with format.
func (t *Table[S, K]) ToString(format func(S) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "{size=%d logical_size=%d physical_size=%d", t.size, t.buckets.LogicalSize(), t.buckets.PhysicalSize())
	for i := 0; i < t.buckets.PhysicalSize(); i++ {
		bk := t.buckets.At(i)
		fmt.Fprintf(&b, "\n bucket[%d]: search_distance=%d", i, bk.SearchDistance())
		for j := 0; j < bucket.SlotsPerBucket; j++ {
			fmt.Fprintf(&b, " %d:", j)
			if bk.H2(j) == bucket.Empty {
				b.WriteString("_")
			} else {
				b.WriteString(format(*bk.Slot(j)))
			}
		}
	}
	b.WriteString("}")
	return b.String()
}

// Validate checks every structural invariant of the table: that
// occupancy doesn't exceed the full-utilization bound, that every
// bucket's search_distance stays within the physical array, that the
// overflow buckets are otherwise quiescent except for the end-of-search
// sentinel on the very last one, that every live entry sits within its
// preferred bucket's search_distance, and that the live count matches
// Size(). It returns the first violation found, or nil.
func (t *Table[S, K]) Validate() error {
	logicalSlots := t.logicalSlotCount()
	if logicalSlots > 0 && t.size*t.opts.FullDen > logicalSlots*t.opts.FullNum {
		return fmt.Errorf("graveyard: size %d exceeds the full-utilization bound for %d logical slots", t.size, logicalSlots)
	}
	for i := 0; i < t.buckets.LogicalSize(); i++ {
		if i+int(t.buckets.At(i).SearchDistance()) > t.buckets.PhysicalSize() {
			return fmt.Errorf("graveyard: search distance at bucket %d runs past the physical bucket array", i)
		}
	}
	for i := t.buckets.LogicalSize(); i+1 < t.buckets.PhysicalSize(); i++ {
		if t.buckets.At(i).SearchDistance() != 0 {
			return fmt.Errorf("graveyard: overflow bucket %d has a nonzero search distance", i)
		}
	}
	if n := t.buckets.PhysicalSize(); n > 0 {
		if t.buckets.At(n - 1).SearchDistance() != bucket.SearchDistanceEndSentinel {
			return fmt.Errorf("graveyard: last physical bucket is missing the end-of-search sentinel")
		}
	}
	actualSize := 0
	for i := 0; i < t.buckets.PhysicalSize(); i++ {
		bk := t.buckets.At(i)
		for j := 0; j < bucket.SlotsPerBucket; j++ {
			if bk.H2(j) == bucket.Empty {
				continue
			}
			actualSize++
			key := t.keyOf(bk.Slot(j))
			h1 := t.buckets.H1(t.hasher(key))
			if h1 > i {
				return fmt.Errorf("graveyard: entry at bucket %d slot %d precedes its preferred bucket %d", i, j, h1)
			}
			if h1 >= t.buckets.LogicalSize() {
				return fmt.Errorf("graveyard: preferred bucket %d for bucket %d slot %d is outside the logical range %d", h1, i, j, t.buckets.LogicalSize())
			}
			if i-h1 >= int(t.buckets.At(h1).SearchDistance()) {
				return fmt.Errorf("graveyard: entry at bucket %d slot %d is outside preferred bucket %d's search distance", i, j, h1)
			}
		}
	}
	if actualSize != t.size {
		return fmt.Errorf("graveyard: counted %d live entries, want %d", actualSize, t.size)
	}
	return nil
}
