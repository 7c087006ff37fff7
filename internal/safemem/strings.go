package safemem

import (
	"strings"
	"unicode/utf8"
	"unsafe"
)

// DupString copies s into a fresh block as a NUL-terminated C string.
func DupString(a Allocator, s string) (*byte, error) {
	p, err := a.Alloc(len(s) + 1)
	if err != nil {
		return nil, err
	}
	buf := unsafe.Slice((*byte)(p), len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return (*byte)(p), nil
}

// GoString copies a NUL-terminated C string into a Go string.
func GoString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

// Basename returns the part of path after the last '/', or path itself.
func Basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// GlobMatch reports whether text matches pattern. '?' matches exactly one
// character and '*' matches any run of characters, including none. Text
// that is not valid UTF-8 is matched a byte at a time. There are no
// character classes and no escapes; '/' is not special.
func GlobMatch(pattern, text string) bool {
	if pattern == "" {
		return text == ""
	}
	switch pattern[0] {
	case '*':
		rest := pattern[1:]
		for rest != "" && rest[0] == '*' {
			rest = rest[1:]
		}
		if rest == "" {
			return true
		}
		for i := 0; ; {
			if GlobMatch(rest, text[i:]) {
				return true
			}
			if i == len(text) {
				return false
			}
			_, n := utf8.DecodeRuneInString(text[i:])
			i += n
		}
	case '?':
		if text == "" {
			return false
		}
		_, n := utf8.DecodeRuneInString(text)
		return GlobMatch(pattern[1:], text[n:])
	default:
		return text != "" && pattern[0] == text[0] && GlobMatch(pattern[1:], text[1:])
	}
}
