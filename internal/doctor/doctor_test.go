package doctor

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/majorcontext/pregrind/internal/config"
	"github.com/majorcontext/pregrind/internal/intercept"
	"github.com/majorcontext/pregrind/internal/ui"
)

type mockSection struct {
	name   string
	output string
	err    error
}

func (m *mockSection) Name() string { return m.name }

func (m *mockSection) Print(w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, m.output)
	return err
}

func TestRegistryOrder(t *testing.T) {
	reg := NewRegistry()
	assert.Empty(t, reg.Sections())

	reg.Register(&mockSection{name: "first"})
	reg.Register(&mockSection{name: "second"})

	sections := reg.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, "first", sections[0].Name())
	assert.Equal(t, "second", sections[1].Name())
}

func TestRunContinuesAfterFailure(t *testing.T) {
	ui.SetColorEnabled(false)
	reg := NewRegistry()
	reg.Register(&mockSection{name: "Broken", err: errors.New("boom")})
	reg.Register(&mockSection{name: "Fine", output: "all good\n"})

	var buf bytes.Buffer
	failed := reg.Run(&buf)

	assert.Equal(t, 1, failed)
	out := buf.String()
	assert.Contains(t, out, "Broken\n──────\n✗ Error: boom\n")
	assert.Contains(t, out, "Fine\n────\nall good\n")
}

func TestConfigSection(t *testing.T) {
	var buf bytes.Buffer
	s := &ConfigSection{Config: &config.Config{
		Enabled:   true,
		Tool:      "/usr/bin/valgrind",
		Flags:     []string{"--leak-check=full"},
		Blacklist: []string{"*/ls"},
	}}
	require.NoError(t, s.Print(&buf))

	out := buf.String()
	assert.Contains(t, out, "/usr/bin/valgrind")
	assert.Contains(t, out, "--leak-check=full")
	assert.Contains(t, out, config.Stderr)
	assert.Contains(t, out, "(off)")
	assert.Contains(t, out, "*/ls")

	assert.Error(t, (&ConfigSection{}).Print(&buf))
}

func TestEntryPointsSection(t *testing.T) {
	ui.SetColorEnabled(false)
	s := &EntryPointsSection{Locate: func() []intercept.Symbol {
		return []intercept.Symbol{
			{Name: "execv", Addr: 0x1000, Source: intercept.SourceNext},
			{Name: "execvpe", Err: intercept.ErrSymbolNotFound},
		}
	}}

	var buf bytes.Buffer
	err := s.Print(&buf)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "execvpe")
	assert.Contains(t, buf.String(), "0x1000")
	assert.Contains(t, buf.String(), "RTLD_NEXT")
}

func TestToolSection(t *testing.T) {
	ui.SetColorEnabled(false)
	dir := t.TempDir()
	tool := filepath.Join(dir, "valgrind")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0o755))

	var buf bytes.Buffer
	s := &ToolSection{Config: &config.Config{Enabled: true, Tool: tool, LogTemplate: filepath.Join(dir, "vg.1000.")}}
	require.NoError(t, s.Print(&buf))
	assert.Equal(t, 2, strings.Count(buf.String(), "✓"))

	buf.Reset()
	s.Config.Tool = filepath.Join(dir, "absent")
	assert.Error(t, s.Print(&buf))
	assert.Contains(t, buf.String(), "not executable")
}
