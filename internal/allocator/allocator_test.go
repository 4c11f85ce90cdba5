package allocator

import (
	"testing"
	"unsafe"

	"github.com/orizon-lang/heapcore/internal/heapmem"
)

func newTestAllocator(t *testing.T, capacity uintptr) *Allocator {
	t.Helper()

	return New(heapmem.NewBufferRegion(capacity))
}

func writePattern(t *testing.T, p unsafe.Pointer, n uintptr, seed byte) {
	t.Helper()

	buf := unsafe.Slice((*byte)(p), n)
	for i := range buf {
		buf[i] = seed + byte(i)
	}
}

func checkPattern(t *testing.T, p unsafe.Pointer, n uintptr, seed byte) {
	t.Helper()

	buf := unsafe.Slice((*byte)(p), n)
	for i := range buf {
		if buf[i] != seed+byte(i) {
			t.Fatalf("byte %d: got %d, want %d", i, buf[i], seed+byte(i))
		}
	}
}

func TestInit(t *testing.T) {
	t.Run("DefaultConfigIsValid", func(t *testing.T) {
		a := newTestAllocator(t, 4096)

		if err := a.Init(); err != nil {
			t.Fatalf("Init() error: %v", err)
		}
	})

	t.Run("RejectsNonDefaultAlignment", func(t *testing.T) {
		a := New(heapmem.NewBufferRegion(4096), WithAlignment(16))

		if err := a.Init(); err != ErrInvalidAlignment {
			t.Fatalf("Init() error = %v, want ErrInvalidAlignment", err)
		}
	})

	t.Run("IsIdempotent", func(t *testing.T) {
		a := newTestAllocator(t, 4096)

		if err := a.Init(); err != nil {
			t.Fatalf("first Init() error: %v", err)
		}

		if err := a.Init(); err != nil {
			t.Fatalf("second Init() error: %v", err)
		}
	})
}

func TestAllocBasics(t *testing.T) {
	t.Run("ReturnsAlignedPointer", func(t *testing.T) {
		a := newTestAllocator(t, 4096)

		p, err := a.Alloc(24)
		if err != nil {
			t.Fatalf("Alloc() error: %v", err)
		}

		if uintptr(p)%wordSize != 0 {
			t.Fatalf("payload pointer %p not %d-aligned", p, wordSize)
		}
	})

	t.Run("DistinctAllocationsDoNotOverlap", func(t *testing.T) {
		a := newTestAllocator(t, 4096)

		p1, err := a.Alloc(32)
		if err != nil {
			t.Fatalf("Alloc() error: %v", err)
		}

		p2, err := a.Alloc(32)
		if err != nil {
			t.Fatalf("Alloc() error: %v", err)
		}

		writePattern(t, p1, 32, 1)
		writePattern(t, p2, 32, 100)
		checkPattern(t, p1, 32, 1)
		checkPattern(t, p2, 32, 100)
	})

	t.Run("TinyRequestStillRoundTrips", func(t *testing.T) {
		a := newTestAllocator(t, 4096)

		p, err := a.Alloc(0)
		if err != nil {
			t.Fatalf("Alloc(0) error: %v", err)
		}

		if p == nil {
			t.Fatal("Alloc(0) returned nil")
		}

		if !a.Check() {
			t.Fatal("Check() failed after Alloc(0)")
		}
	})

	t.Run("OversizedRequestExtendsHeap", func(t *testing.T) {
		a := newTestAllocator(t, 1<<20)

		p, err := a.Alloc(1 << 16)
		if err != nil {
			t.Fatalf("Alloc() error: %v", err)
		}

		writePattern(t, p, 1<<16, 7)
		checkPattern(t, p, 1<<16, 7)

		if !a.Check() {
			t.Fatal("Check() failed after large allocation")
		}
	})

	t.Run("RejectsRequestAboveMaxPayloadSize", func(t *testing.T) {
		a := newTestAllocator(t, 4096)

		if _, err := a.Alloc(maxPayloadSize + 1); err == nil {
			t.Fatal("Alloc() should reject a request above maxPayloadSize")
		}
	})
}

// Scenario 1 (spec.md §8): single alloc/free cycle.
func TestScenarioSingleAllocFreeCycle(t *testing.T) {
	a := newTestAllocator(t, 4096)

	p1, err := a.Alloc(24)
	if err != nil {
		t.Fatalf("Alloc() error: %v", err)
	}

	if !a.Check() {
		t.Fatal("Check() failed after Alloc")
	}

	if err := a.Free(p1); err != nil {
		t.Fatalf("Free() error: %v", err)
	}

	if !a.Check() {
		t.Fatal("Check() failed after Free")
	}

	if n := a.countFreeBlocks(); n != 1 {
		t.Fatalf("free-list node count = %d, want 1", n)
	}
}

// Scenario 2 (spec.md §8): best-fit split-at-high-end.
func TestScenarioBestFitSplitAtHighEnd(t *testing.T) {
	a := newTestAllocator(t, 4096)

	allocA, err := a.Alloc(64)
	if err != nil {
		t.Fatalf("Alloc(64) error: %v", err)
	}

	if _, err := a.Alloc(16); err != nil {
		t.Fatalf("Alloc(16) error: %v", err)
	}

	allocC, err := a.Alloc(64)
	if err != nil {
		t.Fatalf("Alloc(64) error: %v", err)
	}

	m := a.memory()
	ah := headerOfFwd(m.offsetOf(allocA))
	ch := headerOfFwd(m.offsetOf(allocC))
	aEnd := endOff(ah, m.sizeOf(ah))
	cEnd := endOff(ch, m.sizeOf(ch))

	if err := a.Free(allocA); err != nil {
		t.Fatalf("Free(a) error: %v", err)
	}

	if err := a.Free(allocC); err != nil {
		t.Fatalf("Free(c) error: %v", err)
	}

	d, err := a.Alloc(24)
	if err != nil {
		t.Fatalf("Alloc(24) error: %v", err)
	}

	// Split from the high end: d ends where a's (or c's) original block
	// ended, and the remainder keeps the original header as a free block.
	dh := headerOfFwd(m.offsetOf(d))
	dEnd := endOff(dh, m.sizeOf(dh))

	var orig headerOff

	switch dEnd {
	case aEnd:
		orig = ah
	case cEnd:
		orig = ch
	default:
		t.Fatalf("d (header %d, end %d) is not at the high end of a or c", dh, dEnd)
	}

	if dh == orig || !m.isFree(orig) {
		t.Fatalf("remainder at header %d should stay free below d at %d", orig, dh)
	}

	if !a.Check() {
		t.Fatal("Check() failed after split placement")
	}
}

// Scenario 3 (spec.md §8): coalesce both sides.
func TestScenarioCoalesceBothSides(t *testing.T) {
	a := newTestAllocator(t, 4096)

	allocA, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc(a) error: %v", err)
	}

	allocB, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc(b) error: %v", err)
	}

	allocC, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc(c) error: %v", err)
	}

	if err := a.Free(allocA); err != nil {
		t.Fatalf("Free(a) error: %v", err)
	}

	if err := a.Free(allocC); err != nil {
		t.Fatalf("Free(c) error: %v", err)
	}

	if err := a.Free(allocB); err != nil {
		t.Fatalf("Free(b) error: %v", err)
	}

	if n := a.countFreeBlocks(); n != 1 {
		t.Fatalf("free-list node count = %d, want 1 after full coalesce", n)
	}

	if !a.Check() {
		t.Fatal("Check() failed after coalescing")
	}
}

// Scenario 4 (spec.md §8): realloc grows into a free right neighbor.
func TestScenarioReallocGrowsIntoRightNeighbor(t *testing.T) {
	a := newTestAllocator(t, 4096)

	allocA, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc(a) error: %v", err)
	}

	writePattern(t, allocA, 32, 9)

	allocB, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc(b) error: %v", err)
	}

	if err := a.Free(allocB); err != nil {
		t.Fatalf("Free(b) error: %v", err)
	}

	r, err := a.Realloc(allocA, 48)
	if err != nil {
		t.Fatalf("Realloc() error: %v", err)
	}

	if r != allocA {
		t.Fatalf("Realloc() = %p, want the original pointer %p", r, allocA)
	}

	checkPattern(t, r, 32, 9)

	if !a.Check() {
		t.Fatal("Check() failed after in-place grow into right neighbor")
	}
}

// Neighbor is free but too small to survive the grow as its own block
// (nfree - delta < minFreeSize()): the whole neighbor must be consumed, not
// just the delta, or the leftover bytes end up owned by no block.
func TestScenarioReallocConsumesRightNeighborWhole(t *testing.T) {
	a := newTestAllocator(t, 4096)

	allocA, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc(a) error: %v", err)
	}

	writePattern(t, allocA, 32, 7)

	allocB, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc(b) error: %v", err)
	}

	if err := a.Free(allocB); err != nil {
		t.Fatalf("Free(b) error: %v", err)
	}

	// allocA's block is 40 bytes, allocB's freed block is 40 bytes. Growing
	// to hold 64 payload bytes needs a 72-byte block: delta is 32, leaving
	// only 8 bytes of the freed neighbor unconsumed (below minFreeSize()).
	r, err := a.Realloc(allocA, 64)
	if err != nil {
		t.Fatalf("Realloc() error: %v", err)
	}

	if r != allocA {
		t.Fatalf("Realloc() = %p, want the original pointer %p", r, allocA)
	}

	checkPattern(t, r, 32, 7)

	if !a.Check() {
		t.Fatal("Check() failed after consuming a too-small free neighbor whole")
	}
}

// Scenario 5 (spec.md §8): realloc grows at the heap end.
func TestScenarioReallocGrowsAtHeapEnd(t *testing.T) {
	a := newTestAllocator(t, 1<<20)

	allocA, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc(a) error: %v", err)
	}

	before := a.heap.Size()

	r, err := a.Realloc(allocA, 1024)
	if err != nil {
		t.Fatalf("Realloc() error: %v", err)
	}

	if r != allocA {
		t.Fatalf("Realloc() = %p, want the original pointer %p", r, allocA)
	}

	after := a.heap.Size()

	want := alignUp(normalizePayload(1024)+wordSize, wordSize) - alignUp(normalizePayload(32)+wordSize, wordSize)
	if after-before != want {
		t.Fatalf("heap grew by %d bytes, want %d", after-before, want)
	}

	if !a.Check() {
		t.Fatal("Check() failed after growing at heap end")
	}
}

// Scenario 6 (spec.md §8): realloc fallback copy.
func TestScenarioReallocFallbackCopy(t *testing.T) {
	a := newTestAllocator(t, 1<<20)

	allocA, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc(a) error: %v", err)
	}

	writePattern(t, allocA, 32, 3)

	if _, err := a.Alloc(32); err != nil {
		t.Fatalf("Alloc(b) error: %v", err)
	}

	r, err := a.Realloc(allocA, 1024)
	if err != nil {
		t.Fatalf("Realloc() error: %v", err)
	}

	if r == allocA {
		t.Fatal("Realloc() should have moved the block")
	}

	checkPattern(t, r, 32, 3)

	if !a.Check() {
		t.Fatal("Check() failed after fallback realloc")
	}
}

func TestRealloc(t *testing.T) {
	t.Run("NilPointerBehavesLikeAlloc", func(t *testing.T) {
		a := newTestAllocator(t, 4096)

		p, err := a.Realloc(nil, 32)
		if err != nil {
			t.Fatalf("Realloc(nil, 32) error: %v", err)
		}

		if p == nil {
			t.Fatal("Realloc(nil, 32) returned nil")
		}
	})

	t.Run("ZeroSizeFreesAndReturnsNil", func(t *testing.T) {
		a := newTestAllocator(t, 4096)

		p, err := a.Alloc(32)
		if err != nil {
			t.Fatalf("Alloc() error: %v", err)
		}

		r, err := a.Realloc(p, 0)
		if err != nil {
			t.Fatalf("Realloc(p, 0) error: %v", err)
		}

		if r != nil {
			t.Fatalf("Realloc(p, 0) = %p, want nil", r)
		}

		if !a.Check() {
			t.Fatal("Check() failed after Realloc(p, 0)")
		}
	})

	t.Run("ShrinkIsIdempotentAndDoesNotMutateHeader", func(t *testing.T) {
		a := newTestAllocator(t, 4096)

		p, err := a.Alloc(256)
		if err != nil {
			t.Fatalf("Alloc() error: %v", err)
		}

		m := a.memory()
		h := headerOfFwd(m.offsetOf(p))
		before := m.header(h)

		r, err := a.Realloc(p, 32)
		if err != nil {
			t.Fatalf("Realloc() error: %v", err)
		}

		if r != p {
			t.Fatalf("Realloc() shrink = %p, want original pointer %p", r, p)
		}

		if m.header(h) != before {
			t.Fatalf("Realloc() shrink mutated the header: before=%x after=%x", before, m.header(h))
		}
	})
}

func TestStats(t *testing.T) {
	a := newTestAllocator(t, 4096)

	p, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc() error: %v", err)
	}

	s := a.Stats()
	if s.AllocationCount != 1 || s.ActiveAllocations != 1 {
		t.Fatalf("Stats() after one Alloc = %+v", s)
	}

	if err := a.Free(p); err != nil {
		t.Fatalf("Free() error: %v", err)
	}

	s = a.Stats()
	if s.FreeCount != 1 || s.ActiveAllocations != 0 {
		t.Fatalf("Stats() after Free = %+v", s)
	}
}
