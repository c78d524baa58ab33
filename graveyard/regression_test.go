// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package graveyard

import (
	"runtime"
	"testing"

	"golang.org/x/exp/rand"
)

// heapBytes forces a GC and reports the live heap size, used as a stand-in
// for the resident/high-water measurements the peak-memory regression
// scenario calls for (§8 scenario 6). Go's runtime doesn't expose a
// process high-water mark the way rusage does, and the live heap after a
// forced GC no longer includes the old bucket array, so this test does not
// see the transient peak during a rehash: it compares the live-heap growth
// across a batch of inserts for the tombstoned high-load profile against
// the same growth for the tombstone-free default profile.
func heapBytes() uint64 {
	runtime.GC()
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc
}

// TestPeakMemoryRegressionGraveyardVariant is the bidirectional check §8
// scenario 6 describes: the graveyard (tombstoned) profile must show a
// visibly smaller resident-growth ratio across its rehash point than the
// abseil-like (tombstone-free) profile, not merely stay under some loose
// absolute bound in isolation.
func TestPeakMemoryRegressionGraveyardVariant(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates several large tables; skipped in -short")
	}
	const n = 400000

	measure := func(opts Options) (before, after uint64) {
		s := NewSet[uint64](HashUint64, uint64Equal, opts)
		rng := rand.New(rand.NewSource(1))
		// Fill to a fixed n entries, then add n/10 more; n is not derived
		// from either profile's rehash point.
		for s.Len() < n {
			s.Insert(rng.Uint64())
		}
		before = heapBytes()
		for i := 0; i < n/10; i++ {
			s.Insert(rng.Uint64())
		}
		after = heapBytes()
		return before, after
	}

	withTombstones := NewHighLoad()
	beforeWith, afterWith := measure(withTombstones)
	if beforeWith == 0 {
		t.Fatal("heapBytes() returned 0 before any allocation, measurement is broken")
	}
	ratioWith := float64(afterWith) / float64(beforeWith)
	if ratioWith > 2.5 {
		t.Fatalf("resident growth ratio %.2f implausibly large for a graveyard-seeded rehash", ratioWith)
	}

	withoutTombstones := DefaultOptions()
	beforeWithout, afterWithout := measure(withoutTombstones)
	if beforeWithout == 0 {
		t.Fatal("heapBytes() returned 0 before any allocation (no-tombstone run), measurement is broken")
	}
	ratioWithout := float64(afterWithout) / float64(beforeWithout)

	if ratioWith >= ratioWithout {
		t.Fatalf("graveyard tombstones should keep resident growth lower across a rehash: with=%.2f without=%.2f", ratioWith, ratioWithout)
	}
}
