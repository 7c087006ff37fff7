package intercept

import (
	"os"

	"github.com/majorcontext/pregrind/internal/log"
)

func (ic *Interceptor) exec(req Request) error {
	log.Debug("intercepted "+req.Entry, "path", req.Program)
	_, err := ic.Dispatch(req)
	return err
}

// Execl runs path with args as its argument vector.
func (ic *Interceptor) Execl(path string, args ...string) error {
	return ic.exec(Request{Entry: "execl", Program: path, Argv: args})
}

// Execlp is Execl with PATH lookup for a bare file name.
func (ic *Interceptor) Execlp(file string, args ...string) error {
	return ic.exec(Request{Entry: "execlp", Program: file, Argv: args, Search: true})
}

// Execle is Execl with an explicit environment, passed as the final
// argument: Execle("/bin/ls", "ls", "-l", []string{"A=1"}).
func (ic *Interceptor) Execle(path string, args ...any) error {
	argv, env, err := splitEnv(args)
	if err != nil {
		return err
	}
	return ic.exec(Request{Entry: "execle", Program: path, Argv: argv, ExplicitEnv: true, Env: env})
}

// Execv runs path with argv.
func (ic *Interceptor) Execv(path string, argv []string) error {
	return ic.exec(Request{Entry: "execv", Program: path, Argv: argv})
}

// Execvp is Execv with PATH lookup for a bare file name.
func (ic *Interceptor) Execvp(file string, argv []string) error {
	return ic.exec(Request{Entry: "execvp", Program: file, Argv: argv, Search: true})
}

// Execve runs path with argv and the environment envv.
func (ic *Interceptor) Execve(path string, argv, envv []string) error {
	return ic.exec(Request{Entry: "execve", Program: path, Argv: argv, ExplicitEnv: true, Env: orEmpty(envv)})
}

// Execvpe is Execve with PATH lookup for a bare file name.
func (ic *Interceptor) Execvpe(file string, argv, envv []string) error {
	return ic.exec(Request{Entry: "execvpe", Program: file, Argv: argv, Search: true, ExplicitEnv: true, Env: orEmpty(envv)})
}

// PosixSpawn starts path as a child process and returns its pid. A nil
// envv passes the current environment.
func (ic *Interceptor) PosixSpawn(path string, attrs SpawnAttrs, argv, envv []string) (int, error) {
	log.Debug("intercepted posix_spawn", "path", path)
	return ic.Dispatch(Request{Entry: "posix_spawn", Program: path, Argv: argv,
		ExplicitEnv: true, Env: spawnEnv(envv), Spawn: true, Attrs: attrs})
}

// PosixSpawnp is PosixSpawn with PATH lookup for a bare file name.
func (ic *Interceptor) PosixSpawnp(file string, attrs SpawnAttrs, argv, envv []string) (int, error) {
	log.Debug("intercepted posix_spawnp", "path", file)
	return ic.Dispatch(Request{Entry: "posix_spawnp", Program: file, Argv: argv, Search: true,
		ExplicitEnv: true, Env: spawnEnv(envv), Spawn: true, Attrs: attrs})
}

func orEmpty(env []string) []string {
	if env == nil {
		return []string{}
	}
	return env
}

func spawnEnv(env []string) []string {
	if env == nil {
		return os.Environ()
	}
	return env
}
