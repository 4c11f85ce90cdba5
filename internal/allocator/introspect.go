package allocator

import "unsafe"

// BlockInfo is a read-only snapshot of one block, for diagnostic tools
// outside this package (cmd/heaplab's dump command). Printing itself
// stays entirely outside internal/allocator, matching spec.md §1.
type BlockInfo struct {
	Payload   unsafe.Pointer
	Size      uintptr
	Allocated bool
}

// Blocks walks the heap once, low to high, and returns a snapshot of
// every block. It is read-only, like Check, but returns data instead of
// a verdict.
func (a *Allocator) Blocks() []BlockInfo {
	if !a.initialized {
		return nil
	}

	m := a.memory()

	var out []BlockInfo

	for h, heapEnd := firstBlockOffset(), a.heap.Size(); h < heapEnd; {
		raw := m.header(h)
		sz := blockSize(raw)

		out = append(out, BlockInfo{
			Payload:   m.addr(payloadOff(h)),
			Size:      sz - wordSize,
			Allocated: blockAllocated(raw),
		})

		h += sz
	}

	return out
}
