package allocator

import (
	"errors"

	stderrors "github.com/orizon-lang/heapcore/internal/errors"
)

// ErrInvalidAlignment is returned by Init when a non-zero, non-8
// AlignmentSize is configured.
var ErrInvalidAlignment = errors.New("allocator: alignment size must be 8")

// errHeapExhausted wraps a Heap.Extend failure as the error half of
// Alloc/Realloc's (pointer, error) return. Per spec, no heap mutation
// beyond Extend's own effect has happened when this is returned.
func errHeapExhausted(op string, delta uintptr) error {
	return stderrors.HeapExhausted(op, delta)
}
