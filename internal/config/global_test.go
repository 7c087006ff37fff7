package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pregrind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	logDir := t.TempDir()
	path := writeConfig(t, `
verbose: 1
flags: ["--leak-check=full", "-q"]
log_path: `+logDir+`
patterns:
  - "*/make"
tool: /opt/valgrind/bin/valgrind
journal: /tmp/journal.db
preload: /opt/pregrind/lib/libpregrind.so
`)

	cfg, err := testLoader(MapEnv{EnvConfig: path}).load()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Verbosity)
	assert.Equal(t, []string{"--leak-check=full", "-q"}, cfg.Flags)
	assert.Equal(t, logDir, cfg.LogDir)
	assert.Equal(t, []string{"*/make"}, cfg.Blacklist)
	assert.Equal(t, "/opt/valgrind/bin/valgrind", cfg.Tool)
	assert.Equal(t, "/tmp/journal.db", cfg.Journal)
	assert.Equal(t, "/opt/pregrind/lib/libpregrind.so", cfg.Preload)
	assert.True(t, cfg.Enabled)
}

func TestLoadEnvOverridesConfigFile(t *testing.T) {
	blacklist := filepath.Join(t.TempDir(), "bl")
	require.NoError(t, os.WriteFile(blacklist, []byte("*/sh\n"), 0o644))

	path := writeConfig(t, `
verbose: 1
flags: ["-a"]
disable: true
patterns: ["*/make"]
`)

	cfg, err := testLoader(MapEnv{
		EnvConfig:    path,
		EnvVerbose:   "0",
		EnvFlags:     "-b -c",
		EnvDisable:   "0",
		EnvBlacklist: blacklist,
	}).load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Verbosity)
	assert.Equal(t, []string{"-b", "-c"}, cfg.Flags)
	assert.True(t, cfg.Enabled)
	// Inline patterns come first, file patterns follow.
	assert.Equal(t, []string{"*/make", "*/sh"}, cfg.Blacklist)
}

func TestLoadConfigFileErrors(t *testing.T) {
	_, err := testLoader(MapEnv{EnvConfig: filepath.Join(t.TempDir(), "missing.yaml")}).load()
	assert.Error(t, err)

	path := writeConfig(t, "flags: [unterminated\n")
	_, err = testLoader(MapEnv{EnvConfig: path}).load()
	assert.Error(t, err)
}
