// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package graveyard

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"golang.org/x/exp/rand"
)

func uint64Equal(a, b uint64) bool { return a == b }

func TestSetBasic(t *testing.T) {
	s := NewSet[uint64](HashUint64, uint64Equal, DefaultOptions())
	if _, inserted := s.Insert(0); !inserted {
		t.Fatal("first insert of 0 should report inserted")
	}
	if !s.Contains(0) {
		t.Fatal("Contains(0) should be true")
	}
	if s.Contains(1) {
		t.Fatal("Contains(1) should be false")
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	if _, inserted := s.Insert(0); inserted {
		t.Fatal("second insert of 0 should report not inserted")
	}
	if s.Len() != 1 {
		t.Fatalf("Len() after duplicate insert = %d, want 1", s.Len())
	}
}

func TestSetIterationCoversInserts(t *testing.T) {
	s := NewSet[uint64](HashUint64, uint64Equal, DefaultOptions())
	want := []uint64{7, 42, 100, 1 << 40, 1 << 63}
	for _, k := range want {
		s.Insert(k)
	}
	got := map[uint64]bool{}
	for it := s.Begin(); !it.Equal(s.End()); it.Next() {
		got[it.Value()] = true
	}
	diff := pretty.Compare(got, map[uint64]bool{7: true, 42: true, 100: true, 1 << 40: true, 1 << 63: true})
	if diff != "" {
		t.Fatalf("iteration mismatch (-got +want):\n%s", diff)
	}
}

func TestSetStringKeys(t *testing.T) {
	s := NewSet[string](HashString, func(a, b string) bool { return a == b }, DefaultOptions())
	words := []string{"graveyard", "tombstone", "bucket", "slot", "rehash"}
	for _, w := range words {
		s.Insert(w)
	}
	for _, w := range words {
		if !s.Contains(w) {
			t.Fatalf("missing word %q", w)
		}
	}
	if s.Contains("not-inserted") {
		t.Fatal("Contains of an absent string should be false")
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate(): %v", err)
	}
}

func TestSetEraseAndClone(t *testing.T) {
	s := NewSet[uint64](HashUint64, uint64Equal, DefaultOptions())
	rng := rand.New(rand.NewSource(7))
	var keys []uint64
	for i := 0; i < 1000; i++ {
		k := rng.Uint64()
		keys = append(keys, k)
		s.Insert(k)
	}
	clone := s.Clone()
	for i, k := range keys {
		if i%3 == 0 {
			s.EraseValue(k)
		}
	}
	for i, k := range keys {
		if i%3 == 0 {
			if s.Contains(k) {
				t.Fatalf("key %d should have been erased from s", k)
			}
		} else if !s.Contains(k) {
			t.Fatalf("key %d missing from s", k)
		}
		if !clone.Contains(k) {
			t.Fatalf("key %d missing from clone (erase from s leaked)", k)
		}
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() on s after erases: %v", err)
	}
	if err := clone.Validate(); err != nil {
		t.Fatalf("Validate() on clone: %v", err)
	}
}

func TestSetClearAndEmpty(t *testing.T) {
	s := NewSet[uint64](HashUint64, uint64Equal, DefaultOptions())
	for i := uint64(0); i < 50; i++ {
		s.Insert(i)
	}
	s.Clear()
	if !s.Empty() {
		t.Fatal("Empty() should be true after Clear()")
	}
	if !s.Begin().Equal(s.End()) {
		t.Fatal("Begin() != End() after Clear()")
	}
}
