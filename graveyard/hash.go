// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package graveyard

import (
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// seed is process-global so that HashString and HashBytes agree with each
// other within a run, the same way maphash.Bytes/maphash.String require a
// shared seed to be comparable.
var seed = maphash.MakeSeed()

// HashString returns a 64-bit hash of s suitable for use as a Set[string]
// or Map[string, V]'s Hasher.
func HashString(s string) uint64 {
	return maphash.String(seed, s)
}

// HashBytes returns a 64-bit hash of b suitable for use as a
// Set[[]byte]-like Hasher (Go forbids slices as map/set keys directly, so
// callers normally wrap b in a string or array first, but the hash helper
// is exposed for that wrapping code to reuse).
func HashBytes(b []byte) uint64 {
	return maphash.Bytes(seed, b)
}

// HashUint64 finalizes an integer key through xxhash's 64-bit avalanche
// mix rather than using it directly, so that keys differing only in a
// handful of low bits still land in well-separated buckets under H1.
func HashUint64(v uint64) uint64 {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
	return xxhash.Sum64(buf[:])
}
