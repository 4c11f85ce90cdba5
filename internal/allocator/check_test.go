package allocator

import "testing"

func TestCheckOnFreshHeap(t *testing.T) {
	a := newTestAllocator(t, 4096)

	if !a.Check() {
		t.Fatal("Check() should hold on a heap with no allocations yet")
	}
}

func TestCheckDetectsMisclassifiedAllocatedBlock(t *testing.T) {
	a := newTestAllocator(t, 4096)

	p, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc() error: %v", err)
	}

	m := a.memory()
	h := headerOfFwd(m.offsetOf(p))

	// Corrupt the header: clear the allocated flag without inserting the
	// block into the free list. P4 (free-list membership iff flag == 0)
	// must catch this.
	m.setHeader(h, m.sizeOf(h), false)

	if a.Check() {
		t.Fatal("Check() should fail when a flag-clear block is absent from the free list")
	}
}

func TestCheckDetectsBrokenBackLink(t *testing.T) {
	a := newTestAllocator(t, 4096)

	p1, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc(p1) error: %v", err)
	}

	p2, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc(p2) error: %v", err)
	}

	if err := a.Free(p1); err != nil {
		t.Fatalf("Free(p1) error: %v", err)
	}

	if err := a.Free(p2); err != nil {
		t.Fatalf("Free(p2) error: %v", err)
	}

	m := a.memory()

	head := m.head()
	if head == nullOff {
		t.Fatal("expected a non-empty free list")
	}

	// Corrupt the back-link of the list head: P5 requires it to be null.
	m.setBackward(head, head)

	if a.Check() {
		t.Fatal("Check() should fail when the first node's back-link is not null")
	}
}

func TestCheckDetectsAdjacentFreeBlocks(t *testing.T) {
	a := newTestAllocator(t, 4096)

	p1, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc(p1) error: %v", err)
	}

	p2, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc(p2) error: %v", err)
	}

	m := a.memory()
	h1 := headerOfFwd(m.offsetOf(p1))
	h2 := headerOfFwd(m.offsetOf(p2))

	// Flip both flags to free directly, bypassing Free's coalescing, to
	// build an invariant-6 violation (two address-adjacent free blocks)
	// that Check must still detect through the heap walk even though
	// neither node is reachable from the free list at all.
	m.setHeader(h1, m.sizeOf(h1), false)
	m.setHeader(h2, m.sizeOf(h2), false)

	if a.Check() {
		t.Fatal("Check() should fail on two adjacent free blocks neither in the free list")
	}
}
