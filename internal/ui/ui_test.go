package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarnAndError(t *testing.T) {
	SetColorEnabled(false)
	var buf bytes.Buffer
	SetWriter(&buf)
	defer SetWriter(nil)

	Warn("tool not found")
	Errorf("failed to open %s", "journal.db")

	assert.Equal(t, "Warning: tool not found\nError: failed to open journal.db\n", buf.String())
}

func TestColor(t *testing.T) {
	SetColorEnabled(true)
	defer SetColorEnabled(false)

	assert.Equal(t, "\033[32mok\033[0m", Green("ok"))
	assert.Equal(t, "\033[33mpass-through\033[0m", Verdict(false, "pass-through"))
	assert.Equal(t, Green("instrument"), Verdict(true, "instrument"))
}

func TestNoColor(t *testing.T) {
	SetColorEnabled(false)
	assert.Equal(t, "ok", Green("ok"))
	assert.Equal(t, "✓", OKTag())
	assert.Equal(t, "✗", FailTag())
}

func TestSectionAndField(t *testing.T) {
	SetColorEnabled(false)
	var buf bytes.Buffer

	Section(&buf, "Tool")
	Field(&buf, "path", "/usr/bin/valgrind")

	assert.Equal(t, "Tool\n────\n  path:            /usr/bin/valgrind\n", buf.String())
}

func TestQuote(t *testing.T) {
	tests := []struct {
		argv []string
		want string
	}{
		{nil, ""},
		{[]string{"ls", "-l"}, "ls -l"},
		{[]string{"echo", "a b", ""}, `echo "a b" ""`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quote(tt.argv))
	}
}
