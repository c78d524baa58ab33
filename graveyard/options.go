// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package graveyard

import "github.com/aristanetworks/graveyard/internal/table"

// Options configures the growth policy shared by every Set and Map: the
// load factor that triggers a rehash, the load factor a rehash targets,
// and how densely graveyard tombstones are seeded while rehashing.
type Options = table.Options

// DefaultOptions rehashes at 7/8 full down to 3/4 full, with no
// tombstones.
func DefaultOptions() Options { return table.DefaultOptions() }

// NewHighLoad runs the table up to 37/40 full before rehashing back to
// 9/10 full, seeding one tombstone every 20 slots so probe lengths stay
// bounded as occupancy climbs.
func NewHighLoad() Options { return table.NewHighLoad() }

// NewVeryHighLoad pushes further still: 97/100 full, rehashing to 96/100,
// with a sparser tombstone every 50 slots.
func NewVeryHighLoad() Options { return table.NewVeryHighLoad() }
