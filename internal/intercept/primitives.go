package intercept

import (
	"github.com/majorcontext/pregrind/internal/safemem"
)

// Primitive names a real launch primitive.
type Primitive string

const (
	PrimExecv   Primitive = "execv"
	PrimExecve  Primitive = "execve"
	PrimExecvp  Primitive = "execvp"
	PrimExecvpe Primitive = "execvpe"
	PrimSpawn   Primitive = "posix_spawn"
	PrimSpawnp  Primitive = "posix_spawnp"
)

// Primitives are the real, non-intercepted launch functions. Vectors are
// NULL-terminated C arrays. The exec family only returns on failure.
type Primitives interface {
	Execv(path string, argv *safemem.Vector) error
	Execve(path string, argv, envv *safemem.Vector) error
	Execvp(file string, argv *safemem.Vector) error
	Execvpe(file string, argv, envv *safemem.Vector) error
	Spawn(path string, attrs SpawnAttrs, argv, envv *safemem.Vector) (int, error)
	Spawnp(file string, attrs SpawnAttrs, argv, envv *safemem.Vector) (int, error)
}

// Environ returns the environment inherited by launches that do not pass
// one explicitly.
type Environ func() []string

// EntryPoints are the C library functions pregrind intercepts.
var EntryPoints = []string{
	"execl", "execlp", "execle", "execv", "execvp", "execve", "execvpe",
	"posix_spawn", "posix_spawnp",
}

// SourceNext marks a symbol found after this program in load order.
const SourceNext = "RTLD_NEXT"

// Symbol is the resolution result for one entry point.
type Symbol struct {
	Name string
	Addr uintptr
	// Source is SourceNext or the library the symbol was found in.
	Source string
	Err    error
}
