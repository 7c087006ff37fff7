package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withCmdline(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cmdline")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	old := cmdlinePath
	cmdlinePath = path
	t.Cleanup(func() { cmdlinePath = old })
}

func TestProgName(t *testing.T) {
	withCmdline(t, "/usr/local/bin/parent\x00--flag\x00")
	name, err := ProgName()
	require.NoError(t, err)
	assert.Equal(t, "parent", name)
}

func TestProgNameBare(t *testing.T) {
	withCmdline(t, "child\x00")
	name, err := ProgName()
	require.NoError(t, err)
	assert.Equal(t, "child", name)
}

func TestProgNameErrors(t *testing.T) {
	withCmdline(t, "")
	_, err := ProgName()
	assert.Error(t, err)

	withCmdline(t, "no-terminator")
	_, err = ProgName()
	assert.Error(t, err)

	cmdlinePath = filepath.Join(t.TempDir(), "missing")
	_, err = ProgName()
	assert.Error(t, err)
}
