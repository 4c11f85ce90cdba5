//go:build linux || darwin

package heapmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MmapRegion is a Heap backed by one anonymous mmap mapping, reserved up
// front, with Extend bumping a break offset inside it: the same shape as
// BufferRegion but backed by real OS address space instead of a
// GC-visible Go slice. One concrete type per platform family behind the
// same interface, paired with heapmem_windows.go.
type MmapRegion struct {
	data []byte
	brk  uintptr
}

// NewMmapRegion reserves a single anonymous, private mapping capable of
// growing up to capacity bytes.
func NewMmapRegion(capacity uintptr) (*MmapRegion, error) {
	data, err := unix.Mmap(-1, 0, int(capacity), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("heapmem: mmap reservation of %d bytes failed: %w", capacity, err)
	}

	return &MmapRegion{data: data}, nil
}

// Close unmaps the region. It is not part of allocator.Heap; callers that
// construct an MmapRegion directly are responsible for calling it.
func (r *MmapRegion) Close() error {
	if r.data == nil {
		return nil
	}

	err := unix.Munmap(r.data)
	r.data = nil

	return err
}

func (r *MmapRegion) Low() unsafe.Pointer {
	if len(r.data) == 0 {
		return nil
	}

	return unsafe.Pointer(&r.data[0])
}

func (r *MmapRegion) High() unsafe.Pointer {
	if r.brk == 0 {
		return unsafe.Add(r.Low(), -1)
	}

	return unsafe.Add(r.Low(), r.brk-1)
}

func (r *MmapRegion) Size() uintptr {
	return r.brk
}

func (r *MmapRegion) Extend(delta uintptr) (unsafe.Pointer, error) {
	if r.brk+delta > uintptr(len(r.data)) {
		return nil, fmt.Errorf("heapmem: mmap region exhausted: have %d, need %d more at offset %d",
			len(r.data), delta, r.brk)
	}

	p := unsafe.Add(r.Low(), r.brk)
	r.brk += delta

	return p, nil
}
