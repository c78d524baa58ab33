// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

//go:build linux

package buckets

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// pageSize matches the original algorithm's hardcoded 4096, rather than
// querying the runtime page size: the rounding below only needs to be
// conservative, and a literal keeps the release step branch-free.
const pageSize = 4096

// releaseRange advises the kernel that the whole pages between start and
// end may be discarded, via MADV_DONTNEED. Partial pages at either end are
// left untouched by rounding start up and end down.
func releaseRange(start, end uintptr) {
	startRounded := (start + pageSize - 1) &^ (pageSize - 1)
	endRounded := end &^ (pageSize - 1)
	if startRounded >= endRounded {
		return
	}
	region := unsafe.Slice((*byte)(unsafe.Pointer(startRounded)), endRounded-startRounded)
	_ = unix.Madvise(region, unix.MADV_DONTNEED)
}
