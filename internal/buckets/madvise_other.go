// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

//go:build !linux

package buckets

// releaseRange is a no-op on platforms without a page-advise primitive
// wired up, matching the "on platforms lacking it, this step is a no-op"
// fallback.
func releaseRange(start, end uintptr) {}
