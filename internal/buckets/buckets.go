// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package buckets implements the contiguous bucket array that
// internal/table probes: the mapping from a 64-bit hash to a preferred
// bucket (H1) and a 7-bit tag (H2), the logical/physical size split that
// lets probing run off the end of the logical domain without wraparound,
// and the page-release hook rehash uses to keep peak memory down.
package buckets

import (
	"math/bits"
	"unsafe"

	"github.com/aristanetworks/graveyard/internal/bucket"
)

// CacheLineSize is the alignment internal/buckets attempts for the backing
// array, matching the teacher algorithm's std::aligned_alloc(64, ...) call.
const CacheLineSize = 64

// Overflow returns the number of extra physical buckets appended after the
// logicalSize buckets that participate in H1, so that a probe started at
// any preferred bucket can run search_distance steps past the end of the
// logical array without wrapping.
func Overflow(logicalSize int) int {
	switch {
	case logicalSize == 0:
		return 0
	case logicalSize <= 2:
		return 1
	case logicalSize <= 5:
		return logicalSize - 1
	default:
		return 5
	}
}

// PhysicalSize returns logicalSize + Overflow(logicalSize).
func PhysicalSize(logicalSize int) int {
	return logicalSize + Overflow(logicalSize)
}

// H2 returns the 7-bit secondary hash stored in an occupied control byte.
func H2(hash uint64) uint8 {
	return uint8(hash % bucket.H2Modulo)
}

// Buckets is the contiguous, (best-effort) cache-line-aligned array backing
// a hash table: logicalSize buckets participating in H1, followed by
// Overflow(logicalSize) overflow buckets. A zero-value Buckets holds
// logicalSize 0 and performs no allocation.
type Buckets[S any] struct {
	logicalSize int
	data        []bucket.Bucket[S]
}

// New allocates a Buckets with the given logical size. New(0) does not
// allocate, matching the table's "born empty" lifecycle rule.
func New[S any](logicalSize int) *Buckets[S] {
	if logicalSize == 0 {
		return &Buckets[S]{}
	}
	return &Buckets[S]{
		logicalSize: logicalSize,
		data:        alignedAlloc[S](PhysicalSize(logicalSize)),
	}
}

// alignedAlloc allocates n buckets, attempting to land the first element on
// a CacheLineSize boundary by over-allocating by one element: it starts at
// raw[0] if that is aligned and at raw[1] otherwise, without checking
// raw[1] (which is never aligned when raw[0] is not and the bucket size is
// a multiple of CacheLineSize). This is a best-effort
// analogue of std::aligned_alloc: Go's allocator exposes no alignment
// parameter, and if the runtime ever starts relocating large slice-backed
// allocations the guarantee stops holding across that move. Nothing in the
// engine depends on this for correctness — it is a cache-locality hint
// only, exactly as in the original algorithm's allocation step.
func alignedAlloc[S any](n int) []bucket.Bucket[S] {
	if n == 0 {
		return nil
	}
	raw := make([]bucket.Bucket[S], n+1)
	if uintptr(unsafe.Pointer(&raw[0]))%CacheLineSize == 0 {
		return raw[:n]
	}
	return raw[1 : n+1]
}

// LogicalSize returns the number of buckets participating in H1.
func (b *Buckets[S]) LogicalSize() int { return b.logicalSize }

// PhysicalSize returns the total number of buckets, including overflow.
func (b *Buckets[S]) PhysicalSize() int { return len(b.data) }

// Empty reports whether b holds no bucket array (never allocated, or
// released by Clear).
func (b *Buckets[S]) Empty() bool { return b.logicalSize == 0 }

// At returns a pointer to physical bucket i.
func (b *Buckets[S]) At(i int) *bucket.Bucket[S] { return &b.data[i] }

// H1 returns the preferred bucket for hash, in 0..LogicalSize().
func (b *Buckets[S]) H1(hash uint64) int {
	hi, _ := bits.Mul64(hash, uint64(b.logicalSize))
	return int(hi)
}

// AllocatedMemorySize returns the number of bytes held by the backing
// array, not counting the Buckets header itself.
func (b *Buckets[S]) AllocatedMemorySize() int {
	var zero bucket.Bucket[S]
	return len(b.data) * int(unsafe.Sizeof(zero))
}

// Clear destroys every live value (by zeroing its slot, so Go's GC can
// reclaim anything it points to) and releases the backing array.
func (b *Buckets[S]) Clear() {
	if b.data != nil {
		var zero S
		for i := range b.data {
			bk := &b.data[i]
			for j := 0; j < bucket.SlotsPerBucket; j++ {
				if bk.H2(j) != bucket.Empty {
					*bk.Slot(j) = zero
				}
			}
		}
	}
	b.data = nil
	b.logicalSize = 0
}

// Swap exchanges the contents of b and other.
func (b *Buckets[S]) Swap(other *Buckets[S]) {
	b.logicalSize, other.logicalSize = other.logicalSize, b.logicalSize
	b.data, other.data = other.data, b.data
}

// ReleasePrefix advises the OS that it may drop the pages backing physical
// buckets [0, throughIndex), rounded inward to whole pages. It is the
// incremental page release step rehash uses to keep the high-water RSS
// near 2x instead of 3x during growth; on platforms without a page-advise
// primitive it is a no-op.
func (b *Buckets[S]) ReleasePrefix(throughIndex int) {
	if b.data == nil || throughIndex <= 0 {
		return
	}
	if throughIndex > len(b.data) {
		throughIndex = len(b.data)
	}
	var zero bucket.Bucket[S]
	elemSize := unsafe.Sizeof(zero)
	if elemSize == 0 {
		return
	}
	start := uintptr(unsafe.Pointer(&b.data[0]))
	here := start + elemSize*uintptr(throughIndex)
	releaseRange(start, here)
}
