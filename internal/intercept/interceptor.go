package intercept

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/majorcontext/pregrind/internal/config"
	"github.com/majorcontext/pregrind/internal/eligibility"
	"github.com/majorcontext/pregrind/internal/log"
	"github.com/majorcontext/pregrind/internal/rewrite"
	"github.com/majorcontext/pregrind/internal/safemem"
)

// ErrAlreadyInitialized is returned by a second Publish.
var ErrAlreadyInitialized = errors.New("interceptor already initialized")

// Event describes one dispatched request. Argv is the rewritten vector
// when the request is instrumented.
type Event struct {
	Request  Request
	Decision eligibility.Decision
	Argv     []string
}

// Interceptor routes launch requests to the real primitives, rewriting
// the ones that should run under the instrumentation tool.
type Interceptor struct {
	real  Primitives
	alloc safemem.Allocator

	once     sync.Once
	engine   atomic.Pointer[eligibility.Engine]
	observer atomic.Pointer[func(Event)]

	// fatal reports an unrecoverable error; it does not return in
	// production.
	fatal func(msg string, args ...any)
}

// New creates an uninitialized interceptor.
func New(real Primitives, alloc safemem.Allocator) *Interceptor {
	return &Interceptor{
		real:  real,
		alloc: alloc,
		fatal: log.Fatal,
	}
}

// Publish freezes cfg into the interceptor. Only the first call takes
// effect. The atomic store orders every write that built cfg before any
// load that observes it.
func (ic *Interceptor) Publish(cfg *config.Config) error {
	err := ErrAlreadyInitialized
	ic.once.Do(func() {
		ic.engine.Store(eligibility.New(cfg))
		err = nil
	})
	return err
}

// Config returns the published configuration, or nil.
func (ic *Interceptor) Config() *config.Config {
	if e := ic.engine.Load(); e != nil {
		return e.Config()
	}
	return nil
}

// Engine returns the published eligibility engine, or nil.
func (ic *Interceptor) Engine() *eligibility.Engine {
	return ic.engine.Load()
}

// SetObserver registers fn to be called for every dispatched request,
// before the real primitive runs.
func (ic *Interceptor) SetObserver(fn func(Event)) {
	if fn == nil {
		ic.observer.Store(nil)
		return
	}
	ic.observer.Store(&fn)
}

func (ic *Interceptor) notify(ev Event) {
	if fn := ic.observer.Load(); fn != nil {
		(*fn)(ev)
	}
}

// Dispatch decides req and launches it. For the exec family a successful
// launch does not return; any return carries the failure.
func (ic *Interceptor) Dispatch(req Request) (int, error) {
	engine := ic.engine.Load()
	d := engine.Decide(req.Program, req.Argv)

	if d.Verdict == eligibility.PassThrough {
		if d.Reason != eligibility.ReasonUninitialized {
			logDecision(req, d)
		}
		ic.notify(Event{Request: req, Decision: d})
		return ic.forward(req)
	}

	cfg := engine.Config()
	argv, err := rewrite.Build(ic.alloc, cfg, req.Program, req.Argv)
	if err != nil {
		ic.fatal("failed to build instrumented command", "program", req.Program, "error", err)
		return -1, err
	}
	if log.Verbose() {
		log.Debug("executing: " + strings.Join(argv.Strings(), " "))
	}
	ic.notify(Event{Request: req, Decision: d, Argv: argv.Strings()})

	pid, err := ic.launch(req, cfg.Tool, argv)
	ic.release(argv)
	return pid, err
}

// release frees a vector built on the launch path. Failing to unmap is
// fatal.
func (ic *Interceptor) release(v *safemem.Vector) {
	if err := v.Release(); err != nil {
		ic.fatal("failed to release argument vector", "error", err)
	}
}

func logDecision(req Request, d eligibility.Decision) {
	switch d.Reason {
	case eligibility.ReasonNotFound:
		log.Debug("not instrumenting: failed to find file in path", "program", req.Program)
	case eligibility.ReasonStatFailed:
		log.Debug("not instrumenting: stat() failed", "program", d.Path, "error", d.Err)
	case eligibility.ReasonBlacklisted:
		log.Debug("not instrumenting: blacklisted", "program", d.Path, "pattern", d.Pattern)
	default:
		log.Debug("not instrumenting", "program", d.Path, "reason", string(d.Reason))
	}
}

// forward hands req to the real primitive matching its search mode and
// environment, with the arguments unchanged.
func (ic *Interceptor) forward(req Request) (int, error) {
	argv, err := safemem.VectorOf(ic.alloc, req.Argv)
	if err != nil {
		ic.fatal("failed to copy arguments", "program", req.Program, "error", err)
		return -1, err
	}
	defer ic.release(argv)

	var env *safemem.Vector
	if req.ExplicitEnv {
		if env, err = safemem.VectorOf(ic.alloc, req.Env); err != nil {
			ic.fatal("failed to copy environment", "program", req.Program, "error", err)
			return -1, err
		}
		defer ic.release(env)
	}

	switch {
	case req.Spawn && req.Search:
		return ic.real.Spawnp(req.Program, req.Attrs, argv, env)
	case req.Spawn:
		return ic.real.Spawn(req.Program, req.Attrs, argv, env)
	case req.ExplicitEnv && req.Search:
		return -1, ic.real.Execvpe(req.Program, argv, env)
	case req.ExplicitEnv:
		return -1, ic.real.Execve(req.Program, argv, env)
	case req.Search:
		return -1, ic.real.Execvp(req.Program, argv)
	default:
		return -1, ic.real.Execv(req.Program, argv)
	}
}

// launch runs the tool with the rewritten vector. Spawns always search
// PATH for the tool; execs use its literal path.
func (ic *Interceptor) launch(req Request, tool string, argv *safemem.Vector) (int, error) {
	var env *safemem.Vector
	if req.ExplicitEnv {
		var err error
		if env, err = safemem.VectorOf(ic.alloc, req.Env); err != nil {
			ic.fatal("failed to copy environment", "program", req.Program, "error", err)
			return -1, err
		}
		defer ic.release(env)
	}

	switch {
	case req.Spawn:
		return ic.real.Spawnp(tool, req.Attrs, argv, env)
	case req.ExplicitEnv:
		return -1, ic.real.Execve(tool, argv, env)
	default:
		return -1, ic.real.Execv(tool, argv)
	}
}

// Setup performs the process bootstrap: load the configuration, start
// logging, resolve the real primitives and publish. environ is handed to
// ResolveLibc.
func Setup(env config.Env, environ Environ) (*Interceptor, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	log.Init(log.Options{Verbosity: cfg.Verbosity, File: cfg.LogFile})

	alloc := safemem.NewArena()
	real, err := ResolveLibc(alloc, environ)
	if err != nil {
		return nil, fmt.Errorf("resolve real entry points: %w", err)
	}

	ic := New(real, alloc)
	if cfg.Verbosity != 0 {
		tmpl := cfg.LogTemplate
		if tmpl == "" {
			tmpl = config.Stderr
		}
		log.Debug("initialized",
			"v", cfg.Verbosity,
			"vg_log_path_templ", tmpl,
			"log_file", cfg.Output(),
			"i_am_root", cfg.Privileged,
			"pid", os.Getpid())
	}
	if err := ic.Publish(cfg); err != nil {
		return nil, err
	}
	return ic, nil
}
