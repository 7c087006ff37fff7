package intercept

import (
	"sync"

	"github.com/majorcontext/pregrind/internal/safemem"
)

// Call is one invocation seen by a Recorder.
type Call struct {
	Primitive Primitive
	Path      string
	Argv      []string
	// Env is nil for the inherited-environment forms.
	Env   []string
	Attrs SpawnAttrs
}

// Recorder is a Primitives implementation that records calls instead of
// launching anything.
type Recorder struct {
	// Err is returned from every call.
	Err error
	// PID is returned from the spawn primitives.
	PID int

	mu    sync.Mutex
	calls []Call
}

// NewRecorder creates a recorder whose spawns report pid.
func NewRecorder(pid int) *Recorder {
	return &Recorder{PID: pid}
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Last returns the most recent call.
func (r *Recorder) Last() (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return Call{}, false
	}
	return r.calls[len(r.calls)-1], true
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

func (r *Recorder) Execv(path string, argv *safemem.Vector) error {
	r.record(Call{Primitive: PrimExecv, Path: path, Argv: argv.Strings()})
	return r.Err
}

func (r *Recorder) Execve(path string, argv, envv *safemem.Vector) error {
	r.record(Call{Primitive: PrimExecve, Path: path, Argv: argv.Strings(), Env: envv.Strings()})
	return r.Err
}

func (r *Recorder) Execvp(file string, argv *safemem.Vector) error {
	r.record(Call{Primitive: PrimExecvp, Path: file, Argv: argv.Strings()})
	return r.Err
}

func (r *Recorder) Execvpe(file string, argv, envv *safemem.Vector) error {
	r.record(Call{Primitive: PrimExecvpe, Path: file, Argv: argv.Strings(), Env: envv.Strings()})
	return r.Err
}

func (r *Recorder) Spawn(path string, attrs SpawnAttrs, argv, envv *safemem.Vector) (int, error) {
	r.record(Call{Primitive: PrimSpawn, Path: path, Argv: argv.Strings(), Env: envv.Strings(), Attrs: attrs})
	if r.Err != nil {
		return 0, r.Err
	}
	return r.PID, nil
}

func (r *Recorder) Spawnp(file string, attrs SpawnAttrs, argv, envv *safemem.Vector) (int, error) {
	r.record(Call{Primitive: PrimSpawnp, Path: file, Argv: argv.Strings(), Env: envv.Strings(), Attrs: attrs})
	if r.Err != nil {
		return 0, r.Err
	}
	return r.PID, nil
}

// Compile-time check
var _ Primitives = (*Recorder)(nil)
