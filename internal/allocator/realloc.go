package allocator

import (
	"unsafe"

	stderrors "github.com/orizon-lang/heapcore/internal/errors"
)

// Realloc resizes the block at ptr to hold size payload bytes, preserving
// the first min(old, new) bytes of content. It follows the degenerate
// cases, fast path, and extension strategies of spec.md §4.F in order:
// nil input defers to Alloc, a zero size defers to Free, no-shrink-work is
// a no-op, then in-place extension into a free right neighbor or the heap
// end, and only then the alloc+copy+free fallback.
func (a *Allocator) Realloc(ptr unsafe.Pointer, size uintptr) (unsafe.Pointer, error) {
	if ptr == nil {
		return a.Alloc(size)
	}

	if size == 0 {
		return nil, a.Free(ptr)
	}

	if size > maxPayloadSize {
		return nil, stderrors.IntegerOverflow("allocator.Realloc", size)
	}

	m := a.memory()
	h := headerOfFwd(m.offsetOf(ptr))
	cur := m.sizeOf(h)
	newBlock := alignUp(normalizePayload(size)+wordSize, wordSize)

	if newBlock <= cur {
		return ptr, nil
	}

	delta := newBlock - cur
	end := endOff(h, cur)
	heapSize := a.heap.Size()

	if end < heapSize && m.isFree(end) {
		if p, ok := a.reallocIntoNeighbor(m, h, end, cur, newBlock, delta); ok {
			return p, nil
		}
	} else if end == heapSize {
		if _, err := a.heap.Extend(delta); err != nil {
			return nil, errHeapExhausted("allocator.Realloc", delta)
		}

		m.setHeader(h, newBlock, true)
		a.maybeVerify()

		return ptr, nil
	}

	q, err := a.Alloc(size)
	if err != nil {
		return nil, err
	}

	copyPayload(q, ptr, minUintptr(cur-wordSize, size))

	if err := a.Free(ptr); err != nil {
		return nil, err
	}

	return q, nil
}

// reallocIntoNeighbor grows the block at h into its free right neighbor at
// offset end, either by shrinking the neighbor from its low end (if enough
// of it remains to stay a valid free block) or consuming it whole.
func (a *Allocator) reallocIntoNeighbor(m memory, h, end, cur, newBlock, delta uintptr) (unsafe.Pointer, bool) {
	nfree := m.sizeOf(end)
	if nfree < delta {
		return nil, false
	}

	remain := nfree - delta
	if remain >= minFreeSize() {
		m.shiftFreeNode(end, end+delta, remain)
		m.setHeader(h, newBlock, true)
	} else {
		m.unlink(payloadOff(end))
		m.setHeader(h, cur+nfree, true)
	}

	a.maybeVerify()

	return m.addr(payloadOff(h)), true
}

// shiftFreeNode moves a free block's header from oldH to newH (shrinking
// it to newSize), migrating its free-list links to the new forward-link
// address without otherwise touching list order.
func (m memory) shiftFreeNode(oldH, newH, newSize uintptr) {
	oldFwd := payloadOff(oldH)
	prev := m.backward(oldFwd)
	next := m.forward(oldFwd)

	m.setHeader(newH, newSize, false)

	newFwd := payloadOff(newH)
	m.insertBetween(prev, newFwd, next)
}
