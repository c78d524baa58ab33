// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// graveyardstat reads newline-separated words from stdin into a
// graveyard.Set[string], then reports its internal layout, validity, and
// probe statistics. It is not a benchmark harness: no timing, no
// flag-driven sweep of table variants. It is the minimal illustrative
// consumer of the container API.
//
// Usage:
//
//	graveyardstat < words.txt
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/aristanetworks/glog"
	graveyardglog "github.com/aristanetworks/graveyard/glog"
	"github.com/aristanetworks/graveyard/graveyard"
	"github.com/aristanetworks/graveyard/internal/invariant"
)

func main() {
	// A demo binary is exactly the place to run with invariant checks
	// turned on: it is short-lived and its whole point is to surface a
	// broken table loudly rather than let one slide by silently.
	invariant.Debug = true
	invariant.Log = &graveyardglog.Glog{}

	words, err := readWords(os.Stdin)
	if err != nil {
		glog.Fatalf("graveyardstat: reading stdin: %v", err)
	}

	s := graveyard.NewSet[string](graveyard.HashString, func(a, b string) bool { return a == b }, graveyard.DefaultOptions())
	for _, w := range words {
		s.Insert(w)
	}

	if err := s.Validate(); err != nil {
		glog.Errorf("graveyardstat: table failed validation: %v", err)
	}

	stats := s.ProbeStatistics()
	fmt.Printf("words read:        %d\n", len(words))
	fmt.Printf("distinct words:     %d\n", s.Len())
	fmt.Printf("capacity:           %d\n", s.Capacity())
	fmt.Printf("buckets:            %d\n", s.BucketCount())
	fmt.Printf("allocated bytes:    %d\n", s.AllocatedMemorySize())
	fmt.Printf("mean successful probe:   %.3f\n", stats.Successful)
	fmt.Printf("mean unsuccessful probe: %.3f\n", stats.Unsuccessful)
}

func readWords(r io.Reader) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if w := sc.Text(); w != "" {
			words = append(words, w)
		}
	}
	return words, sc.Err()
}
