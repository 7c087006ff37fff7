package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoader(env MapEnv) loader {
	return loader{
		env:      env,
		euid:     1000,
		pid:      4242,
		progName: func() (string, error) { return "parent", nil },
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := testLoader(MapEnv{}).load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Verbosity)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, DefaultTool, cfg.Tool)
	assert.Equal(t, "valgrind", cfg.ToolName())
	assert.Empty(t, cfg.Flags)
	assert.Empty(t, cfg.Blacklist)
	assert.Empty(t, cfg.LogTemplate)
	assert.Equal(t, Stderr, cfg.Output())
	assert.False(t, cfg.Privileged)
	assert.Equal(t, 1000, cfg.EUID)
	assert.Equal(t, 4242, cfg.PID)
}

func TestLoadVerbosity(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"1", 1},
		{"  3", 3},
		{"2abc", 2},
		{"-1", -1},
		{"+5", 5},
		{"yes", 0},
		{"", 0},
	}
	for _, tt := range tests {
		cfg, err := testLoader(MapEnv{EnvVerbose: tt.value}).load()
		require.NoError(t, err)
		assert.Equal(t, tt.want, cfg.Verbosity, "PREGRIND_VERBOSE=%q", tt.value)
	}
}

func TestLoadFlagsPreserveOrder(t *testing.T) {
	cfg, err := testLoader(MapEnv{EnvFlags: "  --leak-check=full   -q --track-origins=yes "}).load()
	require.NoError(t, err)
	assert.Equal(t, []string{"--leak-check=full", "-q", "--track-origins=yes"}, cfg.Flags)
}

func TestLoadTooManyFlags(t *testing.T) {
	flags := make([]string, MaxFlags+1)
	for i := range flags {
		flags[i] = fmt.Sprintf("-f%d", i)
	}
	_, err := testLoader(MapEnv{EnvFlags: strings.Join(flags, " ")}).load()
	assert.ErrorIs(t, err, ErrTooManyFlags)

	cfg, err := testLoader(MapEnv{EnvFlags: strings.Join(flags[:MaxFlags], " ")}).load()
	require.NoError(t, err)
	assert.Len(t, cfg.Flags, MaxFlags)
}

func TestLoadDisable(t *testing.T) {
	cfg, err := testLoader(MapEnv{EnvDisable: "1"}).load()
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)

	cfg, err = testLoader(MapEnv{EnvDisable: "0"}).load()
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
}

func TestLoadTool(t *testing.T) {
	cfg, err := testLoader(MapEnv{EnvTool: "/opt/vg/bin/valgrind-di"}).load()
	require.NoError(t, err)
	assert.Equal(t, "/opt/vg/bin/valgrind-di", cfg.Tool)
	assert.Equal(t, "valgrind-di", cfg.ToolName())
}

func TestLoadAbsoluteLogPath(t *testing.T) {
	dir := t.TempDir()
	env := MapEnv{EnvLogPath: dir}

	cfg, err := testLoader(env).load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.LogDir)
	assert.Equal(t, dir+"/vg.1000.", cfg.LogTemplate)
	assert.Equal(t, dir+"/parent.1000.4242", cfg.LogFile)
	assert.Equal(t, cfg.LogFile, cfg.Output())
	assert.Equal(t, "parent", cfg.ProgName)
	assert.Equal(t, dir, env[EnvLogPath])
}

func TestLoadRelativeLogPathIsAbsolutized(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(base, "logs"), 0o755))
	t.Chdir(base)

	env := MapEnv{EnvLogPath: "logs"}
	cfg, err := testLoader(env).load()
	require.NoError(t, err)

	want := filepath.Join(base, "logs")
	assert.Equal(t, want, cfg.LogDir)
	assert.Equal(t, want, env[EnvLogPath], "environment should carry the absolute form")
	assert.Equal(t, want+"/vg.1000.", cfg.LogTemplate)
}

func TestLoadMissingRelativeLogPath(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := testLoader(MapEnv{EnvLogPath: "does-not-exist"}).load()
	assert.Error(t, err)
}

func TestLoadProgNameFailure(t *testing.T) {
	l := testLoader(MapEnv{EnvLogPath: t.TempDir()})
	l.progName = func() (string, error) { return "", fmt.Errorf("no cmdline") }
	_, err := l.load()
	assert.Error(t, err)
}

func TestLoadBlacklistFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist")
	require.NoError(t, os.WriteFile(path, []byte("*/child\n/usr/bin/*\n"), 0o644))

	cfg, err := testLoader(MapEnv{EnvBlacklist: path}).load()
	require.NoError(t, err)
	assert.Equal(t, []string{"*/child", "/usr/bin/*"}, cfg.Blacklist)
}

func TestLoadBlacklistMissingFile(t *testing.T) {
	_, err := testLoader(MapEnv{EnvBlacklist: filepath.Join(t.TempDir(), "nope")}).load()
	assert.Error(t, err)
}

func TestLoadPrivileged(t *testing.T) {
	l := testLoader(MapEnv{})
	l.euid = 0
	cfg, err := l.load()
	require.NoError(t, err)
	assert.True(t, cfg.Privileged)
}

func TestLoadUsesProcessEnv(t *testing.T) {
	t.Setenv(EnvVerbose, "2")
	t.Setenv(EnvFlags, "-q")
	t.Setenv(EnvLogPath, "")

	cfg, err := Load(ProcessEnv{})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Verbosity)
	assert.Equal(t, []string{"-q"}, cfg.Flags)
	assert.Equal(t, os.Getpid(), cfg.PID)
}

func TestSplitFlags(t *testing.T) {
	assert.Nil(t, SplitFlags(""))
	assert.Nil(t, SplitFlags("    "))
	assert.Equal(t, []string{"a", "b"}, SplitFlags("a b"))
}
