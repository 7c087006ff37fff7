package intercept

import (
	"errors"
	"fmt"
	"unsafe"
)

// ErrBadArguments is returned when a variadic entry point is called with
// arguments it cannot normalize.
var ErrBadArguments = errors.New("bad arguments")

// SpawnAttrs carries posix_spawn's file actions and attributes. Both are
// opaque and passed to the real primitive untouched.
type SpawnAttrs struct {
	FileActions unsafe.Pointer
	Attr        unsafe.Pointer
}

// Request is the canonical form of every intercepted call.
type Request struct {
	// Entry names the entry point that was called.
	Entry string
	// Program is the path or, when Search is set, possibly a bare name.
	Program string
	Argv    []string
	// Search selects PATH lookup for bare names.
	Search bool
	// ExplicitEnv is set when Env replaces the inherited environment.
	ExplicitEnv bool
	Env         []string
	// Spawn marks the posix_spawn family.
	Spawn bool
	Attrs SpawnAttrs
}

// splitEnv separates execle's arguments: strings, then one trailing
// environment slice.
func splitEnv(args []any) ([]string, []string, error) {
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("execle: %w: missing environment", ErrBadArguments)
	}
	env, ok := args[len(args)-1].([]string)
	if !ok {
		return nil, nil, fmt.Errorf("execle: %w: last argument is %T, want []string", ErrBadArguments, args[len(args)-1])
	}
	argv := make([]string, 0, len(args)-1)
	for i, a := range args[:len(args)-1] {
		s, ok := a.(string)
		if !ok {
			return nil, nil, fmt.Errorf("execle: %w: argument %d is %T, want string", ErrBadArguments, i, a)
		}
		argv = append(argv, s)
	}
	if env == nil {
		env = []string{}
	}
	return argv, env, nil
}
