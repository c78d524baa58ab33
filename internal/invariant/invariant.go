// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package invariant implements the Check-or-fail-loudly helper that
// internal/table uses for conditions that must hold for the engine to be
// memory-safe (a bucket's search_distance matching what probing actually
// did, a slot's control byte state matching its occupancy) but that are
// expensive enough, or trusted enough, that the release build should not
// pay to re-verify them on every call.
package invariant

import "github.com/aristanetworks/graveyard/logger"

// Debug gates Check. When false (the default, matching a release build),
// Check does nothing: a broken invariant is undefined behavior, same as
// the teacher algorithm's debug-only asserts. Set it true in a test binary
// or a debug build to turn every violated invariant into an immediate,
// logged panic.
var Debug = false

// Log receives the error-level message for a violated invariant. It
// defaults to nil, in which case Check panics without logging first;
// set it once at program startup (e.g. to a *glog.Glog) to get a logged
// message before the panic.
var Log logger.Logger

// Check panics if cond is false and Debug is true. It is a no-op whenever
// Debug is false, so release builds never pay for the check's condition
// beyond evaluating cond itself (the same control-flow caller already did
// to decide whether to call Check at all, if cond is computed lazily by
// the caller via a closure — prefer passing a precomputed bool here).
func Check(cond bool, msg string, args ...interface{}) {
	if !Debug || cond {
		return
	}
	if Log != nil {
		if len(args) == 0 {
			Log.Error(msg)
		} else {
			Log.Errorf(msg, args...)
		}
	}
	panic(msg)
}
