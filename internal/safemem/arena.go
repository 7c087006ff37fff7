package safemem

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrInvalidBlock is returned when Release is handed a pointer whose header
// does not describe a mapping made by Alloc.
var ErrInvalidBlock = errors.New("invalid memory block")

// Allocator is the allocation capability required by code that builds
// C-layout data on the launch path.
type Allocator interface {
	// Alloc returns a pointer to at least n zeroed bytes.
	Alloc(n int) (unsafe.Pointer, error)
	// Release returns a block obtained from Alloc.
	Release(p unsafe.Pointer) error
}

// header precedes every block handed out by Arena.
type header struct {
	size  uintptr
	magic uintptr
}

const (
	headerSize = unsafe.Sizeof(header{})
	blockMagic = uintptr(0x70726567)
)

// Arena allocates page-granular blocks from fresh anonymous mappings.
// Every block starts with a header recording the mapped size; the user
// pointer is the address right after the header.
type Arena struct {
	pageSize uintptr

	live  atomic.Int64
	bytes atomic.Int64
}

// NewArena returns an arena using the system page size.
func NewArena() *Arena {
	return &Arena{pageSize: uintptr(unix.Getpagesize())}
}

// PageSize reports the allocation granularity.
func (a *Arena) PageSize() int {
	return int(a.pageSize)
}

// Alloc maps a block big enough for n bytes plus the header, rounded up
// to whole pages.
func (a *Arena) Alloc(n int) (unsafe.Pointer, error) {
	if n < 0 {
		return nil, fmt.Errorf("allocate %d bytes: negative size", n)
	}
	size := (uintptr(n) + headerSize + a.pageSize - 1) &^ (a.pageSize - 1)

	raw, err := unix.MmapPtr(-1, 0, nil, size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("allocate %d bytes: %w", size, err)
	}

	h := (*header)(raw)
	h.size = size
	h.magic = blockMagic

	a.live.Add(1)
	a.bytes.Add(int64(size))
	return unsafe.Add(raw, headerSize), nil
}

// Release unmaps exactly the size recorded in the block's header.
func (a *Arena) Release(p unsafe.Pointer) error {
	if p == nil {
		return fmt.Errorf("release: %w", ErrInvalidBlock)
	}
	raw := unsafe.Add(p, -int(headerSize))
	h := (*header)(raw)
	if h.magic != blockMagic || blockSize(p) == 0 || h.size%a.pageSize != 0 {
		return fmt.Errorf("release %p: %w", p, ErrInvalidBlock)
	}
	size := h.size
	h.magic = 0

	if err := unix.MunmapPtr(raw, size); err != nil {
		return fmt.Errorf("release %p (size %d): %w", p, size, err)
	}
	a.live.Add(-1)
	a.bytes.Add(-int64(size))
	return nil
}

// blockSize returns the mapped size recorded for a live block.
func blockSize(p unsafe.Pointer) int {
	return int((*header)(unsafe.Add(p, -int(headerSize))).size)
}

// Live reports the number of blocks currently mapped and their total size.
func (a *Arena) Live() (blocks int, bytes int) {
	return int(a.live.Load()), int(a.bytes.Load())
}

var _ Allocator = (*Arena)(nil)
