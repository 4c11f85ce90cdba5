// Package allocator implements a general-purpose heap memory allocator on
// top of a single contiguous, grow-only byte region. It provides an
// address-ordered explicit free list, best-fit placement with high-end
// splitting, bidirectional coalescing on free, and an in-place-extending
// reallocator.
//
// The allocator never grows its own memory directly; it depends on a Heap,
// supplied by the host, whose only mutation primitive is Extend. Everything
// else (block layout, free-list bookkeeping, placement policy) lives here.
package allocator

import "unsafe"

// wordSize is W from the data model: the header size and the unit every
// block size is a multiple of.
const wordSize = 8

// ptrSize is P: the width of a stored free-list link.
var ptrSize = unsafe.Sizeof(uintptr(0))

// minFreeSize is the smallest a free block may be: header plus both links.
func minFreeSize() uintptr {
	return wordSize + 2*ptrSize
}

// firstBlockOffset is the header offset of the first block ever carved
// out of the heap: the head cell, rounded up to a word boundary. It
// depends only on ptrSize and wordSize, so it is the same for the
// lifetime of an Allocator and needs no stored state.
func firstBlockOffset() uintptr {
	return alignUp(ptrSize, wordSize)
}

// alignUp rounds size up to the next multiple of align (align must be a
// power of two).
func alignUp(size, align uintptr) uintptr {
	return (size + align - 1) &^ (align - 1)
}

// maxPayloadSize bounds the payload a single Alloc/Realloc call may
// request, leaving enough headroom below the uintptr range's top that
// normalization and alignment arithmetic cannot wrap around.
const maxPayloadSize = ^uintptr(0) - 4*wordSize

