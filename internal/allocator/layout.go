package allocator

import "unsafe"

// Block positions are tracked as byte offsets from the heap's base address
// (heap.Low()), not as raw pointers. This is the "arena-with-indices"
// realization of HEADER/PAYLOAD/BACKLINK/END from the data model: offset 0
// is reserved for the head cell, so it doubles as the free-list "null"
// value, and every other position is computed as plain integer arithmetic
// until the moment memory actually needs to be read or written.
const nullOff uintptr = 0

// headerOff is the offset of a block's header word; it is also the block's
// identity everywhere outside the free list, which identifies nodes by
// fwdOff.
type headerOff = uintptr

// fwdOff is the offset of a free block's forward-link word. Per the data
// model this is the same address as PAYLOAD(h): the free list stores the
// address of the forward-link cell, not the header.
type fwdOff = uintptr

// payloadOff returns PAYLOAD(h): header offset plus one word.
func payloadOff(h headerOff) uintptr {
	return h + wordSize
}

// headerOfFwd inverts payloadOff/fwdOff: every traversal of the free list
// computes the header by subtracting one word from the forward-link
// address.
func headerOfFwd(f fwdOff) headerOff {
	return f - wordSize
}

// backOff returns BACKLINK(h): the offset of a free block's backward-link
// word, one pointer past its forward-link word.
func backOff(h headerOff) uintptr {
	return h + wordSize + ptrSize
}

// backOfFwd returns the backward-link offset given the forward-link offset
// of the same block.
func backOfFwd(f fwdOff) uintptr {
	return f + ptrSize
}

// endOff returns END(h, size): the header offset of the next block, or
// one-past-heap if h is the last block.
func endOff(h headerOff, size uintptr) uintptr {
	return h + size
}

// memory is a thin accessor bound to a heap's base address, used to read
// and write the header and link words that make up the block layout.
type memory struct {
	base unsafe.Pointer
}

func (m memory) addr(off uintptr) unsafe.Pointer {
	return unsafe.Add(m.base, off)
}

func (m memory) loadWord(off uintptr) uintptr {
	return *(*uintptr)(m.addr(off))
}

func (m memory) storeWord(off uintptr, v uintptr) {
	*(*uintptr)(m.addr(off)) = v
}

// header reads the raw header word (size with the allocated flag in bit 0).
func (m memory) header(h headerOff) uintptr {
	return m.loadWord(h)
}

// blockSize masks off the allocated flag, returning the true block size.
func blockSize(raw uintptr) uintptr {
	return raw &^ 1
}

// blockAllocated reports the allocated flag of a raw header word.
func blockAllocated(raw uintptr) bool {
	return raw&1 != 0
}

// setHeader writes size and the allocated flag into a block's header word.
// size must already be flag-clear (a multiple of wordSize).
func (m memory) setHeader(h headerOff, size uintptr, allocated bool) {
	v := size
	if allocated {
		v |= 1
	}

	m.storeWord(h, v)
}

// sizeOf is a convenience for m.header(h) with the flag masked off.
func (m memory) sizeOf(h headerOff) uintptr {
	return blockSize(m.header(h))
}

// isFree reports whether the block at h is currently free.
func (m memory) isFree(h headerOff) bool {
	return !blockAllocated(m.header(h))
}

// head reads the free-list head cell at offset 0.
func (m memory) head() fwdOff {
	return m.loadWord(0)
}

// setHead writes the free-list head cell.
func (m memory) setHead(f fwdOff) {
	m.storeWord(0, f)
}

// forward reads a free block's forward-link word, given its forward offset.
func (m memory) forward(f fwdOff) fwdOff {
	return m.loadWord(f)
}

func (m memory) setForward(f fwdOff, v fwdOff) {
	m.storeWord(f, v)
}

// backward reads a free block's backward-link word, given its forward
// offset.
func (m memory) backward(f fwdOff) fwdOff {
	return m.loadWord(backOfFwd(f))
}

func (m memory) setBackward(f fwdOff, v fwdOff) {
	m.storeWord(backOfFwd(f), v)
}
