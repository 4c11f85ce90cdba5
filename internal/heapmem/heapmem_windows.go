//go:build windows

package heapmem

import "fmt"

// MmapRegion is unavailable on windows; unix.Mmap's anonymous-mapping
// flags have no portable equivalent here. The type still exists so
// cmd/heaplab can reference heapmem.MmapRegion unconditionally and reject
// --mmap at runtime rather than fail to build.
type MmapRegion = BufferRegion

// NewMmapRegion always fails on this platform.
func NewMmapRegion(capacity uintptr) (*MmapRegion, error) {
	return nil, fmt.Errorf("heapmem: mmap-backed heap is not supported on windows")
}
