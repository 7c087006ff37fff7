// Command libpregrind is the interception library loaded with LD_PRELOAD.
// Build it with:
//
//	go build -buildmode=c-shared -o libpregrind.so ./cmd/libpregrind
//
// preload.c defines the nine launch entry points; each one gathers its
// arguments into arrays and calls pregrindLaunch, which runs the request
// through the interceptor. Interception is set up from package init, so it
// is ready before the host program's first launch.
package main

/*
#include <stdlib.h>
#include <sys/types.h>

extern char **environ;

// Entry points, in the order preload.c passes them.
typedef enum {
    PG_EXECL = 0,
    PG_EXECLP,
    PG_EXECLE,
    PG_EXECV,
    PG_EXECVP,
    PG_EXECVE,
    PG_EXECVPE,
    PG_POSIX_SPAWN,
    PG_POSIX_SPAWNP
} pg_entry;
*/
import "C"

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/majorcontext/pregrind/internal/bootstrap"
	"github.com/majorcontext/pregrind/internal/config"
	"github.com/majorcontext/pregrind/internal/intercept"
	"github.com/majorcontext/pregrind/internal/log"
)

var session *bootstrap.Session

func init() {
	s, err := bootstrap.Start(config.ProcessEnv{}, environ)
	if err != nil {
		log.Fatal("bootstrap failed", "error", err)
		return
	}
	session = s
}

// environ reads the host's environment. The runtime's copy is taken at
// load time and misses later setenv calls.
func environ() []string {
	return goStrings(C.environ)
}

// goStrings copies a NULL-terminated C string array. A NULL array yields
// nil.
func goStrings(v **C.char) []string {
	if v == nil {
		return nil
	}
	out := []string{}
	for p := v; *p != nil; p = (**C.char)(unsafe.Add(unsafe.Pointer(p), unsafe.Sizeof(*p))) {
		out = append(out, C.GoString(*p))
	}
	return out
}

// errnoOf maps a launch error to the errno reported to C callers.
func errnoOf(err error) C.int {
	if err == nil {
		return 0
	}
	var en unix.Errno
	if errors.As(err, &en) {
		return C.int(en)
	}
	return C.int(unix.EINVAL)
}

//export pregrindLaunch
func pregrindLaunch(entry C.pg_entry, program *C.char, argv, envp **C.char,
	pid *C.pid_t, actions, attr unsafe.Pointer) C.int {
	ic := session.Interceptor
	path := C.GoString(program)
	args := goStrings(argv)

	var err error
	switch entry {
	case C.PG_EXECL:
		err = ic.Execl(path, args...)
	case C.PG_EXECLP:
		err = ic.Execlp(path, args...)
	case C.PG_EXECLE:
		list := make([]any, 0, len(args)+1)
		for _, a := range args {
			list = append(list, a)
		}
		err = ic.Execle(path, append(list, goStrings(envp))...)
	case C.PG_EXECV:
		err = ic.Execv(path, args)
	case C.PG_EXECVP:
		err = ic.Execvp(path, args)
	case C.PG_EXECVE:
		err = ic.Execve(path, args, goStrings(envp))
	case C.PG_EXECVPE:
		err = ic.Execvpe(path, args, goStrings(envp))
	case C.PG_POSIX_SPAWN, C.PG_POSIX_SPAWNP:
		env := goStrings(envp)
		if env == nil {
			env = environ()
		}
		attrs := intercept.SpawnAttrs{FileActions: actions, Attr: attr}
		var n int
		if entry == C.PG_POSIX_SPAWN {
			n, err = ic.PosixSpawn(path, attrs, args, env)
		} else {
			n, err = ic.PosixSpawnp(path, attrs, args, env)
		}
		if err == nil && pid != nil {
			*pid = C.pid_t(n)
		}
	default:
		err = unix.ENOSYS
	}
	return errnoOf(err)
}

func main() {}
