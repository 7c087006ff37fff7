package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/majorcontext/pregrind/internal/safemem"
)

// cmdlinePath is where the program name is read from.
var cmdlinePath = "/proc/self/cmdline"

// ProgName returns the base name of argv[0] as recorded by the kernel.
func ProgName() (string, error) {
	data, err := os.ReadFile(cmdlinePath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", cmdlinePath, err)
	}
	arg0, _, found := bytes.Cut(data, []byte{0})
	if !found || len(arg0) == 0 {
		return "", fmt.Errorf("read %s: %w", cmdlinePath, errors.New("no program name"))
	}
	return safemem.Basename(string(arg0)), nil
}
