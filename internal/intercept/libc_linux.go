//go:build linux

package intercept

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"

	"github.com/majorcontext/pregrind/internal/log"
	"github.com/majorcontext/pregrind/internal/safemem"
)

// ErrSymbolNotFound is returned when a real primitive cannot be resolved.
var ErrSymbolNotFound = errors.New("symbol not found")

// rtldNext is glibc's RTLD_NEXT: search the objects loaded after the caller.
const rtldNext = ^uintptr(0)

const libcName = "libc.so.6"

// libc calls the C library's launch functions.
//
// A Go program keeps its own copy of the environment, which libc's environ
// does not follow, so the inherited-environment forms pass the environment
// explicitly through execve and execvpe.
type libc struct {
	alloc   safemem.Allocator
	environ Environ
	fatal   func(msg string, args ...any)

	execve      func(path *byte, argv, envp unsafe.Pointer) int32
	execvpe     func(file *byte, argv, envp unsafe.Pointer) int32
	posixSpawn  func(pid *int32, path *byte, actions, attr, argv, envp unsafe.Pointer) int32
	posixSpawnp func(pid *int32, file *byte, actions, attr, argv, envp unsafe.Pointer) int32
	errnoLoc    func() unsafe.Pointer
}

// ResolveLibc looks up every real primitive, preferring the next definition
// after this program in load order and falling back to libc itself. Any
// missing symbol is an error. environ supplies the inherited environment;
// nil means os.Environ.
func ResolveLibc(alloc safemem.Allocator, environ Environ) (Primitives, error) {
	if environ == nil {
		environ = os.Environ
	}
	l := &libc{alloc: alloc, environ: environ, fatal: log.Fatal}

	syms := []struct {
		name string
		fn   any
	}{
		{"execve", &l.execve},
		{"execvpe", &l.execvpe},
		{"posix_spawn", &l.posixSpawn},
		{"posix_spawnp", &l.posixSpawnp},
		{"__errno_location", &l.errnoLoc},
	}

	var handle uintptr
	for _, s := range syms {
		addr, _, err := locate(s.name, &handle)
		if err != nil {
			return nil, err
		}
		purego.RegisterFunc(s.fn, addr)
	}
	return l, nil
}

// locate finds name after this program in load order, then in libc. The
// libc handle is opened on first use and cached in *handle.
func locate(name string, handle *uintptr) (uintptr, string, error) {
	if addr, err := purego.Dlsym(rtldNext, name); err == nil && addr != 0 {
		return addr, SourceNext, nil
	}
	if *handle == 0 {
		h, err := purego.Dlopen(libcName, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			return 0, "", fmt.Errorf("load %s: %w", libcName, err)
		}
		*handle = h
	}
	addr, err := purego.Dlsym(*handle, name)
	if err != nil || addr == 0 {
		return 0, "", fmt.Errorf("failed to locate real %s: %w", name, ErrSymbolNotFound)
	}
	return addr, libcName, nil
}

// Locate reports where each entry point's real definition is found.
func Locate() []Symbol {
	var handle uintptr
	out := make([]Symbol, 0, len(EntryPoints))
	for _, name := range EntryPoints {
		addr, src, err := locate(name, &handle)
		out = append(out, Symbol{Name: name, Addr: addr, Source: src, Err: err})
	}
	return out
}

// inherited copies the inherited environment into C memory. Failing to
// allocate it is fatal, like every other allocation on the launch path.
func (l *libc) inherited() (*safemem.Vector, error) {
	env, err := safemem.VectorOf(l.alloc, l.environ())
	if err != nil {
		l.fatal("failed to copy environment", "error", err)
		return nil, err
	}
	return env, nil
}

func (l *libc) Execv(path string, argv *safemem.Vector) error {
	env, err := l.inherited()
	if err != nil {
		return err
	}
	defer env.Release()
	return l.Execve(path, argv, env)
}

func (l *libc) Execve(path string, argv, envv *safemem.Vector) error {
	p, err := unix.BytePtrFromString(path)
	if err != nil {
		return err
	}
	return l.call(func() { l.execve(p, argv.Ptr(), envv.Ptr()) })
}

func (l *libc) Execvp(file string, argv *safemem.Vector) error {
	env, err := l.inherited()
	if err != nil {
		return err
	}
	defer env.Release()
	return l.Execvpe(file, argv, env)
}

func (l *libc) Execvpe(file string, argv, envv *safemem.Vector) error {
	p, err := unix.BytePtrFromString(file)
	if err != nil {
		return err
	}
	return l.call(func() { l.execvpe(p, argv.Ptr(), envv.Ptr()) })
}

// call runs an exec primitive and reads errno on the same OS thread.
func (l *libc) call(fn func()) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	fn()
	return unix.Errno(*(*int32)(l.errnoLoc()))
}

func (l *libc) Spawn(path string, attrs SpawnAttrs, argv, envv *safemem.Vector) (int, error) {
	return l.spawn(l.posixSpawn, path, attrs, argv, envv)
}

func (l *libc) Spawnp(file string, attrs SpawnAttrs, argv, envv *safemem.Vector) (int, error) {
	return l.spawn(l.posixSpawnp, file, attrs, argv, envv)
}

func (l *libc) spawn(fn func(*int32, *byte, unsafe.Pointer, unsafe.Pointer, unsafe.Pointer, unsafe.Pointer) int32,
	path string, attrs SpawnAttrs, argv, envv *safemem.Vector) (int, error) {
	p, err := unix.BytePtrFromString(path)
	if err != nil {
		return 0, err
	}
	var pid int32
	rc := fn(&pid, p, attrs.FileActions, attrs.Attr, argv.Ptr(), envv.Ptr())
	runtime.KeepAlive(p)
	if rc != 0 {
		return 0, unix.Errno(rc)
	}
	return int(pid), nil
}

var _ Primitives = (*libc)(nil)
