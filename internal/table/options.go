// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package table

import "github.com/aristanetworks/graveyard/internal/bucket"

// Options configures a Table's growth policy: the load factor that
// triggers a rehash, the load factor a rehash targets, and how densely
// graveyard tombstones are seeded while rehashing. The underlying
// algorithm fixes these as compile-time template constants; Go has no
// const-generics to hold them at the type level, so they become a small
// runtime struct supplied once at construction and held for the table's
// lifetime.
type Options struct {
	FullNum, FullDen         int
	RehashedNum, RehashedDen int

	// TombstoneRatioA/B is the (a, b) pair the tombstone period is derived
	// from: period = ceil(SlotsPerBucket * B / A). A zero A disables
	// tombstone seeding entirely.
	TombstoneRatioA, TombstoneRatioB int
}

// DefaultOptions rehashes at 7/8 full down to 3/4 full, with no
// tombstones — the algorithm's out-of-the-box policy.
func DefaultOptions() Options {
	return Options{
		FullNum: 7, FullDen: 8,
		RehashedNum: 3, RehashedDen: 4,
	}
}

// NewHighLoad trades memory for probe length: the table runs up to 37/40
// full before rehashing back to 9/10 full, seeding a tombstone every 20
// slots (a (7, 10) ratio) so that probe lengths stay bounded as occupancy
// climbs.
func NewHighLoad() Options {
	return Options{
		FullNum: 37, FullDen: 40,
		RehashedNum: 9, RehashedDen: 10,
		TombstoneRatioA: 7, TombstoneRatioB: 10,
	}
}

// NewVeryHighLoad pushes further: 97/100 full, rehashing to 96/100, with a
// sparser tombstone every 50 slots (a (72, 256) ratio).
func NewVeryHighLoad() Options {
	return Options{
		FullNum: 97, FullDen: 100,
		RehashedNum: 96, RehashedDen: 100,
		TombstoneRatioA: 72, TombstoneRatioB: 256,
	}
}

func (o Options) tombstonePeriod() int {
	if o.TombstoneRatioA == 0 {
		return 0
	}
	return ceilDiv(bucket.SlotsPerBucket*o.TombstoneRatioB, o.TombstoneRatioA)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
