package safemem

import (
	"errors"
	"fmt"
	"unsafe"
)

// ErrVectorFull is returned when appending to a vector with no free slot.
var ErrVectorFull = errors.New("vector full")

const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// Vector is a NULL-terminated array of C strings (char *const[]) living in
// allocator memory. Each element is an independent copy.
type Vector struct {
	a     Allocator
	slots unsafe.Pointer
	n     int
	cap   int
}

// NewVector allocates a vector with room for capacity slots, one of which
// is reserved for the terminator.
func NewVector(a Allocator, capacity int) (*Vector, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("vector capacity %d: must hold the terminator", capacity)
	}
	p, err := a.Alloc(capacity * ptrSize)
	if err != nil {
		return nil, err
	}
	return &Vector{a: a, slots: p, cap: capacity}, nil
}

// VectorOf copies ss into a vector sized to fit.
func VectorOf(a Allocator, ss []string) (*Vector, error) {
	v, err := NewVector(a, len(ss)+1)
	if err != nil {
		return nil, err
	}
	if err := v.AppendAll(ss); err != nil {
		v.Release()
		return nil, err
	}
	return v, nil
}

// PointerSlots returns how many pointers fit in n bytes.
func PointerSlots(n int) int {
	return n / ptrSize
}

func (v *Vector) slot(i int) **byte {
	return (**byte)(unsafe.Add(v.slots, i*ptrSize))
}

// Append copies s into the next free slot.
func (v *Vector) Append(s string) error {
	if v.n+1 >= v.cap {
		return fmt.Errorf("append %q: %w (%d slots)", s, ErrVectorFull, v.cap)
	}
	p, err := DupString(v.a, s)
	if err != nil {
		return err
	}
	*v.slot(v.n) = p
	v.n++
	*v.slot(v.n) = nil
	return nil
}

// AppendAll appends every element of ss in order.
func (v *Vector) AppendAll(ss []string) error {
	for _, s := range ss {
		if err := v.Append(s); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of strings, not counting the terminator.
func (v *Vector) Len() int {
	if v == nil {
		return 0
	}
	return v.n
}

// At returns element i as a C string.
func (v *Vector) At(i int) *byte {
	return *v.slot(i)
}

// Ptr returns the array for passing to C; nil for a nil vector.
func (v *Vector) Ptr() unsafe.Pointer {
	if v == nil {
		return nil
	}
	return v.slots
}

// Strings copies the elements back into Go memory.
func (v *Vector) Strings() []string {
	if v == nil {
		return nil
	}
	out := make([]string, v.n)
	for i := range out {
		out[i] = GoString(v.At(i))
	}
	return out
}

// Release frees every element and then the array itself. The vector must
// not be used afterwards.
func (v *Vector) Release() error {
	if v == nil || v.slots == nil {
		return nil
	}
	var errs []error
	for i := 0; i < v.n; i++ {
		if err := v.a.Release(unsafe.Pointer(v.At(i))); err != nil {
			errs = append(errs, err)
		}
	}
	if err := v.a.Release(v.slots); err != nil {
		errs = append(errs, err)
	}
	v.slots = nil
	v.n = 0
	return errors.Join(errs...)
}
