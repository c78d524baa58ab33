// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package bucket

import (
	"testing"

	"golang.org/x/exp/rand"
)

func TestInitIsAllEmpty(t *testing.T) {
	var b Bucket[int]
	b.Init()
	if got := b.EmptyMask(); got != (1<<SlotsPerBucket)-1 {
		t.Fatalf("EmptyMask after Init = %x, want all 14 bits set", got)
	}
	if got := b.NonEmptyMask(); got != 0 {
		t.Fatalf("NonEmptyMask after Init = %x, want 0", got)
	}
	if got := b.FindFirstEmpty(); got != 0 {
		t.Fatalf("FindFirstEmpty after Init = %d, want 0", got)
	}
	if got := b.SearchDistance(); got != 0 {
		t.Fatalf("SearchDistance after Init = %d, want 0", got)
	}
}

func TestMatchMaskScalarAndSWARAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 10000; trial++ {
		var ctrl [16]uint8
		for i := range ctrl {
			switch rng.Intn(3) {
			case 0:
				ctrl[i] = Empty
			case 1:
				ctrl[i] = uint8(rng.Intn(H2Modulo))
			default:
				ctrl[i] = uint8(rng.Intn(256))
			}
		}
		needle := uint8(rng.Intn(256))
		scalar := matchMaskScalar(&ctrl, needle)
		swar := matchMaskSWAR(&ctrl, needle)
		if scalar != swar {
			t.Fatalf("trial %d: ctrl=%v needle=%d scalar=%016b swar=%016b", trial, ctrl, needle, scalar, swar)
		}
	}
}

func TestFindKeyAscendingOrderAndSingleCallPerMatch(t *testing.T) {
	var b Bucket[string]
	b.Init()
	b.SetH2(2, 5)
	*b.Slot(2) = "two"
	b.SetH2(9, 5)
	*b.Slot(9) = "nine"
	b.SetH2(13, 5)
	*b.Slot(13) = "thirteen"

	var visited []int
	idx := b.FindKey(5, func(s *string) bool {
		visited = append(visited, len(visited))
		return *s == "nine"
	})
	if idx != 9 {
		t.Fatalf("FindKey returned %d, want 9", idx)
	}
	if len(visited) != 2 {
		t.Fatalf("match callback invoked %d times, want 2 (ascending order, stop on hit)", len(visited))
	}

	idx = b.FindKey(5, func(s *string) bool { return *s == "absent" })
	if idx != SlotsPerBucket {
		t.Fatalf("FindKey miss returned %d, want %d", idx, SlotsPerBucket)
	}
}

func TestEmptyMaskIgnoresSearchDistanceByte(t *testing.T) {
	var b Bucket[int]
	b.Init()
	b.SetSearchDistance(250) // bit 7 set, like Empty; must still be masked out
	if got := b.EmptyMask(); got != (1<<SlotsPerBucket)-1 {
		t.Fatalf("EmptyMask = %x with search_distance=250, want all 14 bits still set", got)
	}
}

func TestUsePortableFallbackMatchesDefault(t *testing.T) {
	var b Bucket[int]
	b.Init()
	b.SetH2(0, 7)
	b.SetH2(13, 7)

	fast := b.MatchMask(7)
	UsePortableFallback = true
	defer func() { UsePortableFallback = false }()
	slow := b.MatchMask(7)
	if fast != slow {
		t.Fatalf("fast path mask %016b != portable fallback mask %016b", fast, slow)
	}
}
