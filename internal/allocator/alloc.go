package allocator

import (
	"unsafe"

	stderrors "github.com/orizon-lang/heapcore/internal/errors"
)

// Alloc returns a W-aligned payload pointer for a block able to hold size
// bytes, or an error if the heap could not be extended to satisfy the
// request. size == 0 is normalized up to room for two link words, per
// §4.D, so a subsequent Free always has somewhere to store its links.
func (a *Allocator) Alloc(size uintptr) (unsafe.Pointer, error) {
	if size > maxPayloadSize {
		return nil, stderrors.IntegerOverflow("allocator.Alloc", size)
	}

	if err := a.ensureInit(); err != nil {
		return nil, err
	}

	need := alignUp(normalizePayload(size)+wordSize, wordSize)
	m := a.memory()

	best, exact, tail := nullOff, nullOff, nullOff
	var bestSize uintptr

	for cur := m.head(); cur != nullOff; cur = m.forward(cur) {
		sz := m.sizeOf(headerOfFwd(cur))

		if sz == need {
			exact = cur
			break
		}

		if sz > need && (best == nullOff || sz < bestSize) {
			best, bestSize = cur, sz
		}

		tail = cur
	}

	var h headerOff

	switch {
	case exact != nullOff:
		h = headerOfFwd(exact)
		m.unlink(exact)
		m.setHeader(h, need, true)

	case best != nullOff:
		h = a.placeInBest(m, best, bestSize, need)

	default:
		var err error

		h, err = a.extendForAlloc(m, need, tail)
		if err != nil {
			return nil, err
		}
	}

	a.recordAlloc(m.sizeOf(h) - wordSize)
	a.maybeVerify()

	return m.addr(payloadOff(h)), nil
}

// normalizePayload enforces r' = max(r, 2P): every block, allocated or
// not, must be large enough to later hold both free-list links.
func normalizePayload(r uintptr) uintptr {
	min := 2 * ptrSize
	if r < min {
		return min
	}

	return r
}

// placeInBest resolves selection outcomes 2 and 3 of §4.D: split the
// chosen free block from its high end if the remainder is large enough to
// stay a valid free block, otherwise consume it whole.
func (a *Allocator) placeInBest(m memory, best fwdOff, bestSize, need uintptr) headerOff {
	h := headerOfFwd(best)
	remain := bestSize - need

	if remain >= minFreeSize() {
		// The free block shrinks in place: same header address, same
		// list position, no list surgery. The allocation lands at its
		// high end.
		m.setHeader(h, remain, false)

		allocH := h + remain
		m.setHeader(allocH, need, true)

		return allocH
	}

	m.unlink(best)
	m.setHeader(h, bestSize, true)

	return h
}

// extendForAlloc resolves selection outcome 4: no free block fits. If the
// free list's highest-address node abuts the heap end, only the shortfall
// is extended and that node's header is reused; otherwise a fresh header
// is placed past the current heap end.
func (a *Allocator) extendForAlloc(m memory, need uintptr, tail fwdOff) (headerOff, error) {
	if tail != nullOff {
		h := headerOfFwd(tail)
		sz := m.sizeOf(h)

		if endOff(h, sz) == a.heap.Size() {
			delta := need - sz
			if _, err := a.heap.Extend(delta); err != nil {
				return 0, errHeapExhausted("allocator.Alloc", delta)
			}

			m.unlink(tail)
			m.setHeader(h, need, true)

			return h, nil
		}
	}

	h := a.heap.Size()

	if _, err := a.heap.Extend(need); err != nil {
		return 0, errHeapExhausted("allocator.Alloc", need)
	}

	m.setHeader(h, need, true)

	return h, nil
}
