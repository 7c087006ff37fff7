//go:build !linux

package intercept

import (
	"errors"

	"github.com/majorcontext/pregrind/internal/safemem"
)

// ErrSymbolNotFound is returned when a real primitive cannot be resolved.
var ErrSymbolNotFound = errors.New("symbol not found")

// ResolveLibc is only implemented on Linux.
func ResolveLibc(alloc safemem.Allocator, environ Environ) (Primitives, error) {
	return nil, errors.ErrUnsupported
}

// Locate reports every entry point as unsupported.
func Locate() []Symbol {
	out := make([]Symbol, 0, len(EntryPoints))
	for _, name := range EntryPoints {
		out = append(out, Symbol{Name: name, Err: errors.ErrUnsupported})
	}
	return out
}
