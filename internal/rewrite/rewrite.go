// Package rewrite builds the argument vector that launches a program under
// the instrumentation tool.
package rewrite

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/majorcontext/pregrind/internal/config"
	"github.com/majorcontext/pregrind/internal/safemem"
)

// Capacity is the number of slots in a rewritten vector, terminator
// included: one page worth of pointers.
var Capacity = safemem.PointerSlots(unix.Getpagesize())

// LogFileFlag returns the tool flag naming a per-process log file. The tool
// replaces %p with the pid of the instrumented process.
func LogFileFlag(template, program string) string {
	return fmt.Sprintf("--log-file=%s%s.%%p", template, safemem.Basename(program))
}

// Build returns, in order: the tool path, the log file flag when a log
// template is configured, the forwarded flags and the original arguments.
// Every element is an independent copy owned by the returned vector.
func Build(a safemem.Allocator, cfg *config.Config, program string, argv []string) (*safemem.Vector, error) {
	v, err := safemem.NewVector(a, Capacity)
	if err != nil {
		return nil, fmt.Errorf("allocate argument vector: %w", err)
	}
	if err := fill(v, cfg, program, argv); err != nil {
		v.Release()
		return nil, fmt.Errorf("build argument vector: %w", err)
	}
	return v, nil
}

func fill(v *safemem.Vector, cfg *config.Config, program string, argv []string) error {
	if err := v.Append(cfg.Tool); err != nil {
		return err
	}
	if cfg.LogTemplate != "" {
		name := program
		if len(argv) > 0 {
			name = argv[0]
		}
		if err := v.Append(LogFileFlag(cfg.LogTemplate, name)); err != nil {
			return err
		}
	}
	if err := v.AppendAll(cfg.Flags); err != nil {
		return err
	}
	return v.AppendAll(argv)
}
