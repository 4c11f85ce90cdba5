package allocator

// Check walks the free list once and the heap once, verifying invariants
// P1–P7 (spec.md §8). It performs no mutation and has no side effects
// beyond reading memory; a false return means a bug, not a recoverable
// condition.
func (a *Allocator) Check() bool {
	if !a.initialized {
		return true
	}

	m := a.memory()

	freeHeaders := make(map[uintptr]bool)

	prev := nullOff

	for cur := m.head(); cur != nullOff; cur = m.forward(cur) {
		h := headerOfFwd(cur)
		raw := m.header(h)

		if blockAllocated(raw) {
			return false // P4: list membership implies flag == 0
		}

		sz := blockSize(raw)
		if sz == 0 || sz%wordSize != 0 || sz < minFreeSize() {
			return false // P7
		}

		if cur <= prev {
			return false // P2: strictly ascending
		}

		if m.backward(cur) != prev {
			return false // P5
		}

		freeHeaders[h] = true
		prev = cur
	}

	h := firstBlockOffset()
	heapEnd := a.heap.Size()
	prevFree := false

	for h < heapEnd {
		raw := m.header(h)
		sz := blockSize(raw)

		if sz == 0 || sz%wordSize != 0 || sz < minFreeSize() {
			return false // P7
		}

		free := !blockAllocated(raw)
		if free {
			if !freeHeaders[h] {
				return false // P4: free flag implies list membership
			}

			if prevFree {
				return false // P3: no two free blocks adjacent
			}
		}

		prevFree = free
		h += sz
	}

	return h == heapEnd // P1
}
