package safemem

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAllocRoundsToPages(t *testing.T) {
	a := NewArena()
	page := a.PageSize()

	tests := []struct {
		name string
		n    int
		want int
	}{
		{"zero", 0, page},
		{"one byte", 1, page},
		{"fills first page", page - int(headerSize), page},
		{"spills into second page", page - int(headerSize) + 1, 2 * page},
		{"three pages", 2*page + 10, 3 * page},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := a.Alloc(tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, blockSize(p))
			require.NoError(t, a.Release(p))
		})
	}
}

func TestArenaBlocksAreZeroedAndWritable(t *testing.T) {
	a := NewArena()
	p, err := a.Alloc(100)
	require.NoError(t, err)
	defer a.Release(p)

	buf := unsafe.Slice((*byte)(p), 100)
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0", i, b)
		}
	}
	for i := range buf {
		buf[i] = byte(i)
	}
	assert.Equal(t, byte(99), buf[99])
}

func TestArenaReleaseLeavesNeighboursIntact(t *testing.T) {
	a := NewArena()

	var blocks []*byte
	for _, s := range []string{"first", strings.Repeat("x", 5000), "third"} {
		p, err := DupString(a, s)
		require.NoError(t, err)
		blocks = append(blocks, p)
	}

	require.NoError(t, a.Release(unsafe.Pointer(blocks[1])))

	assert.Equal(t, "first", GoString(blocks[0]))
	assert.Equal(t, "third", GoString(blocks[2]))

	n, _ := a.Live()
	assert.Equal(t, 2, n)

	require.NoError(t, a.Release(unsafe.Pointer(blocks[0])))
	require.NoError(t, a.Release(unsafe.Pointer(blocks[2])))

	n, size := a.Live()
	assert.Zero(t, n)
	assert.Zero(t, size)
}

func TestArenaReleaseRejectsForeignPointer(t *testing.T) {
	a := NewArena()
	p, err := a.Alloc(2 * a.PageSize())
	require.NoError(t, err)
	defer a.Release(p)

	// A pointer into the middle of a block has no header in front of it.
	inner := unsafe.Add(p, a.PageSize())
	err = a.Release(inner)
	assert.ErrorIs(t, err, ErrInvalidBlock)

	assert.ErrorIs(t, a.Release(nil), ErrInvalidBlock)
}

func TestArenaRejectsNegativeSize(t *testing.T) {
	_, err := NewArena().Alloc(-1)
	assert.Error(t, err)
}

func TestDupStringIsIndependent(t *testing.T) {
	a := NewArena()
	src := []byte("hello")
	p, err := DupString(a, string(src))
	require.NoError(t, err)
	defer a.Release(unsafe.Pointer(p))

	src[0] = 'j'
	assert.Equal(t, "hello", GoString(p))
	assert.Equal(t, byte(0), *(*byte)(unsafe.Add(unsafe.Pointer(p), 5)))
}

func TestGoStringNil(t *testing.T) {
	assert.Equal(t, "", GoString(nil))
}
