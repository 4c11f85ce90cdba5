package allocator

import "unsafe"

// Heap is the host-supplied primitive the allocator grows on top of. It
// models an sbrk-style monotonic region: the only way to obtain new
// addresses is Extend, and addresses already handed out never move.
//
// Implementations live outside this package (see internal/heapmem); the
// allocator treats Heap purely as an external collaborator.
type Heap interface {
	// Low returns the address of the byte-region start. Stable across the
	// lifetime of the Heap.
	Low() unsafe.Pointer

	// High returns the address of the last valid byte, or Low()-1 if the
	// region is still empty.
	High() unsafe.Pointer

	// Size returns the current size of the region in bytes.
	Size() uintptr

	// Extend grows the region by delta bytes and returns the address of
	// the first new byte. It returns an error, and leaves the region
	// unmutated, if the growth cannot be satisfied.
	Extend(delta uintptr) (unsafe.Pointer, error)
}
