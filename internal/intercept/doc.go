// Package intercept is the launch interception surface.
//
// The nine entry points (execl, execlp, execle, execv, execvp, execve,
// execvpe, posix_spawn, posix_spawnp) normalize their calling convention
// into a Request and hand it to Interceptor.Dispatch. Dispatch asks the
// eligibility engine for a verdict, then either forwards the request to the
// real primitive unchanged or rewrites the argument vector so the program
// runs under the instrumentation tool.
//
// # Lifecycle
//
// An Interceptor is constructed with its real primitives and starts out
// uninitialized: every request passes through. Publish freezes a
// configuration snapshot into it exactly once; from then on requests are
// decided against that snapshot.
//
//	ic, err := intercept.Setup(config.ProcessEnv{}, nil)
//	if err != nil {
//	    log.Fatal("bootstrap failed", "error", err)
//	}
//	err = ic.Execvp("make", []string{"make", "check"})
//
// Setup resolves the real primitives with Dlsym(RTLD_NEXT) through
// ResolveLibc. Tests use a Recorder instead.
//
// # Preloading
//
// The same Interceptor backs cmd/libpregrind, a shared library meant for
// LD_PRELOAD. It defines the nine C symbols, so every dynamically linked
// process that loads it routes its launches through Dispatch, and its
// descendants inherit LD_PRELOAD and are intercepted in turn. There the
// inherited environment is libc's environ rather than os.Environ.
package intercept
