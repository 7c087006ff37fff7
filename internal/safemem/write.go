package safemem

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// MaxLine bounds the output of Printf.
const MaxLine = 512

// ErrShortWrite is returned when write(2) reports a negative count.
var ErrShortWrite = errors.New("write returned a negative count")

// WriteRaw writes all of s to fd, retrying partial writes.
func WriteRaw(fd int, s string) error {
	b := []byte(s)
	for len(b) > 0 {
		n, err := unix.Write(fd, b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("write fd %d: %w", fd, err)
		}
		if n < 0 {
			return fmt.Errorf("write fd %d: %w", fd, ErrShortWrite)
		}
		b = b[n:]
	}
	return nil
}

// Printf formats into a fixed buffer and writes the result to fd. Output
// longer than MaxLine bytes is cut off.
func Printf(fd int, format string, args ...any) error {
	var buf [MaxLine]byte
	out := fmt.Appendf(buf[:0], format, args...)
	if len(out) > MaxLine {
		out = out[:MaxLine]
	}
	return WriteRaw(fd, string(out))
}
