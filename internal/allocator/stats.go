package allocator

// Stats is a point-in-time snapshot of allocator bookkeeping. The counters
// are maintained only when Config.EnableStats is set; on an Allocator built
// without it they stay zero, while HeapSize and FreeBlockCount are still
// filled in.
type Stats struct {
	TotalAllocated    uint64 // bytes ever returned as payload, across all Alloc calls
	TotalFreed        uint64 // bytes ever returned via Free, across all Free calls
	AllocationCount   uint64
	FreeCount         uint64
	ActiveAllocations uint64 // AllocationCount - FreeCount, kept separately to avoid underflow races
	HeapSize          uintptr
	FreeBlockCount    uint64
}

func (a *Allocator) recordAlloc(payloadSize uintptr) {
	if !a.cfg.EnableStats {
		return
	}

	a.stats.TotalAllocated += uint64(payloadSize)
	a.stats.AllocationCount++
	a.stats.ActiveAllocations++
}

func (a *Allocator) recordFree(payloadSize uintptr) {
	if !a.cfg.EnableStats {
		return
	}

	a.stats.TotalFreed += uint64(payloadSize)
	a.stats.FreeCount++

	if a.stats.ActiveAllocations > 0 {
		a.stats.ActiveAllocations--
	}
}

// Stats returns the current bookkeeping snapshot. HeapSize and
// FreeBlockCount are always computed fresh; the counters are whatever
// EnableStats has accumulated.
func (a *Allocator) Stats() Stats {
	s := a.stats
	s.HeapSize = a.heap.Size()
	s.FreeBlockCount = a.countFreeBlocks()

	return s
}

// HeapSize, FreeBlocks, Allocations, and BytesInUse satisfy
// cli.HeapStatSource, letting cmd/heaplab print a snapshot through
// internal/cli without that package importing internal/allocator.

func (a *Allocator) HeapSize() uintptr {
	return a.heap.Size()
}

func (a *Allocator) FreeBlocks() uint64 {
	return a.countFreeBlocks()
}

func (a *Allocator) Allocations() (total, active uint64) {
	return a.stats.AllocationCount, a.stats.ActiveAllocations
}

func (a *Allocator) BytesInUse() (allocated, freed uint64) {
	return a.stats.TotalAllocated, a.stats.TotalFreed
}

func (a *Allocator) countFreeBlocks() uint64 {
	if !a.initialized {
		return 0
	}

	m := a.memory()

	var n uint64

	for cur := m.head(); cur != nullOff; cur = m.forward(cur) {
		n++
	}

	return n
}
