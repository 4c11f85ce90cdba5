package allocator

import "unsafe"

// Allocator is a best-fit, address-ordered explicit-free-list heap
// allocator over a host-supplied Heap. It is not reentrant and carries no
// concurrency control of its own, matching spec.md §5 (single-threaded,
// cooperative).
type Allocator struct {
	heap        Heap
	cfg         Config
	initialized bool
	stats       Stats
}

// New constructs an Allocator over heap. The head cell is not installed
// yet (that happens lazily on the first Alloc), so New never touches
// heap beyond storing the reference.
func New(heap Heap, opts ...Option) *Allocator {
	cfg := defaultConfig()

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Allocator{heap: heap, cfg: cfg}
}

// Init validates configuration. It does no heap I/O: any state the
// allocator needs is installed lazily on the first Alloc, leaving Init
// itself a no-op beyond validation.
func (a *Allocator) Init() error {
	if a.cfg.AlignmentSize != 0 && a.cfg.AlignmentSize != wordSize {
		return ErrInvalidAlignment
	}

	return nil
}

func (a *Allocator) memory() memory {
	return memory{base: a.heap.Low()}
}

// ensureInit installs the head cell on the first call that needs it,
// extending the heap by just enough to hold one pointer-sized cell
// (rounded up to a word boundary) and setting it to null.
func (a *Allocator) ensureInit() error {
	if a.initialized {
		return nil
	}

	if _, err := a.heap.Extend(firstBlockOffset()); err != nil {
		return errHeapExhausted("allocator.ensureInit", firstBlockOffset())
	}

	a.memory().setHead(nullOff)
	a.initialized = true

	return nil
}

func (a *Allocator) maybeVerify() {
	if a.cfg.EnableCheckAfterOp && !a.Check() {
		panic("allocator: invariant violation after operation")
	}
}

func copyPayload(dst, src unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}

	d := unsafe.Slice((*byte)(dst), n)
	s := unsafe.Slice((*byte)(src), n)
	copy(d, s)
}

func minUintptr(a, b uintptr) uintptr {
	if a < b {
		return a
	}

	return b
}
