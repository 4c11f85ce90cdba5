package allocator

import "unsafe"

// Free returns a previously-allocated block to the free list, inserting it
// in address order and coalescing with either neighbor that is also free.
// Per spec.md §4.E, freeing nil or a pointer not returned by Alloc/Realloc
// is undefined; Free makes no attempt to detect either.
func (a *Allocator) Free(ptr unsafe.Pointer) error {
	m := a.memory()

	fwd := m.offsetOf(ptr)
	h := headerOfFwd(fwd)
	size := m.sizeOf(h)
	freed := size - wordSize

	m.setHeader(h, size, false)

	prev, next := m.findInsertionPoint(fwd)
	m.insertBetween(prev, fwd, next)

	end := endOff(h, size)
	if next != nullOff && headerOfFwd(next) == end {
		size += m.sizeOf(end)
		m.unlink(next)
		m.setHeader(h, size, false)
	}

	if prev != nullOff {
		ph := headerOfFwd(prev)
		if endOff(ph, m.sizeOf(ph)) == h {
			m.unlink(fwd)
			m.setHeader(ph, m.sizeOf(ph)+size, false)
		}
	}

	a.recordFree(freed)
	a.maybeVerify()

	return nil
}

// offsetOf converts a payload pointer back to its byte offset from the
// heap base. The inverse of memory.addr.
func (m memory) offsetOf(p unsafe.Pointer) uintptr {
	return uintptr(p) - uintptr(m.base)
}
