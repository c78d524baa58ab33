// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package buckets

import (
	"testing"

	"github.com/aristanetworks/graveyard/internal/bucket"
)

func TestOverflowTable(t *testing.T) {
	cases := map[int]int{
		0: 0,
		1: 1, 2: 1,
		3: 2, 4: 3, 5: 4,
		6: 5, 7: 5, 1000: 5,
	}
	for l, want := range cases {
		if got := Overflow(l); got != want {
			t.Errorf("Overflow(%d) = %d, want %d", l, got, want)
		}
		if got := PhysicalSize(l); got != l+want {
			t.Errorf("PhysicalSize(%d) = %d, want %d", l, got, l+want)
		}
	}
}

func TestNewZeroLogicalSizeDoesNotAllocate(t *testing.T) {
	b := New[int](0)
	if !b.Empty() {
		t.Fatal("New(0) should be Empty")
	}
	if b.PhysicalSize() != 0 {
		t.Fatalf("New(0).PhysicalSize() = %d, want 0", b.PhysicalSize())
	}
	if b.AllocatedMemorySize() != 0 {
		t.Fatalf("New(0).AllocatedMemorySize() = %d, want 0", b.AllocatedMemorySize())
	}
}

func TestNewAllocatesPhysicalSize(t *testing.T) {
	b := New[int](4)
	if b.LogicalSize() != 4 {
		t.Fatalf("LogicalSize() = %d, want 4", b.LogicalSize())
	}
	if b.PhysicalSize() != PhysicalSize(4) {
		t.Fatalf("PhysicalSize() = %d, want %d", b.PhysicalSize(), PhysicalSize(4))
	}
	for i := 0; i < b.PhysicalSize(); i++ {
		bk := b.At(i)
		for j := 0; j < bucket.SlotsPerBucket; j++ {
			if bk.H2(j) != 0 {
				t.Fatalf("bucket %d slot %d not zero-valued before Init", i, j)
			}
		}
	}
}

func TestH1DistributesAcrossLogicalRange(t *testing.T) {
	b := New[int](1 << 20)
	seen := map[int]bool{}
	for h := uint64(0); h < 64; h++ {
		idx := b.H1(h * 0x9E3779B97F4A7C15)
		if idx < 0 || idx >= b.LogicalSize() {
			t.Fatalf("H1 returned %d outside [0, %d)", idx, b.LogicalSize())
		}
		seen[idx] = true
	}
	if len(seen) < 2 {
		t.Fatalf("H1 produced only %d distinct buckets across 64 hashes, expected spread", len(seen))
	}
}

func TestH1ZeroLogicalSizeIsZero(t *testing.T) {
	b := New[int](0)
	if got := b.H1(12345); got != 0 {
		t.Fatalf("H1 on empty Buckets = %d, want 0", got)
	}
}

func TestH2Range(t *testing.T) {
	for h := uint64(0); h < 10000; h++ {
		if v := H2(h); v >= bucket.H2Modulo {
			t.Fatalf("H2(%d) = %d, want < %d", h, v, bucket.H2Modulo)
		}
	}
}

func TestClearReleasesAndResets(t *testing.T) {
	b := New[string](10)
	bk := b.At(0)
	bk.Init()
	bk.SetH2(0, 5)
	*bk.Slot(0) = "hello"

	b.Clear()
	if !b.Empty() {
		t.Fatal("Clear should leave Buckets Empty")
	}
	if b.PhysicalSize() != 0 {
		t.Fatalf("PhysicalSize() after Clear = %d, want 0", b.PhysicalSize())
	}
}

func TestSwapExchangesContents(t *testing.T) {
	a := New[int](4)
	b := New[int](10)
	aPhys, bPhys := a.PhysicalSize(), b.PhysicalSize()

	a.Swap(b)

	if a.PhysicalSize() != bPhys || a.LogicalSize() != 10 {
		t.Fatalf("after Swap, a has logical=%d physical=%d, want logical=10 physical=%d", a.LogicalSize(), a.PhysicalSize(), bPhys)
	}
	if b.PhysicalSize() != aPhys || b.LogicalSize() != 4 {
		t.Fatalf("after Swap, b has logical=%d physical=%d, want logical=4 physical=%d", b.LogicalSize(), b.PhysicalSize(), aPhys)
	}
}

func TestReleasePrefixOnEmptyIsNoop(t *testing.T) {
	b := New[int](0)
	b.ReleasePrefix(100) // must not panic on nil backing array
}

func TestReleasePrefixClampsAndDoesNotPanic(t *testing.T) {
	b := New[int](8)
	b.ReleasePrefix(0)
	b.ReleasePrefix(b.PhysicalSize())
	b.ReleasePrefix(b.PhysicalSize() * 10)
}
