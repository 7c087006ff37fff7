// Package ui formats the command line tool's human-facing output.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

var writer io.Writer = os.Stderr

// SetWriter overrides the diagnostics writer (for testing). nil restores
// stderr.
func SetWriter(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	writer = w
}

var (
	stdoutColor = detectColor(os.Stdout)
	stderrColor = detectColor(os.Stderr)
)

func detectColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetColorEnabled overrides color detection (for testing).
func SetColorEnabled(enabled bool) {
	stdoutColor = enabled
	stderrColor = enabled
}

func ansi(on bool, code, s string) string {
	if !on {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Bold returns s in bold when stdout is a terminal.
func Bold(s string) string { return ansi(stdoutColor, "1", s) }

// Dim returns s dimmed when stdout is a terminal.
func Dim(s string) string { return ansi(stdoutColor, "2", s) }

func Green(s string) string { return ansi(stdoutColor, "32", s) }
func Red(s string) string { return ansi(stdoutColor, "31", s) }
func Yellow(s string) string { return ansi(stdoutColor, "33", s) }

// Section writes a bold title with a thin underline.
func Section(w io.Writer, title string) {
	fmt.Fprintln(w, Bold(title))
	fmt.Fprintln(w, Dim(strings.Repeat("─", len(title))))
}

// Field writes an aligned "name: value" line.
func Field(w io.Writer, name, value string) {
	fmt.Fprintf(w, "  %-16s %s\n", name+":", value)
}

func OKTag() string { return Green("✓") }
func FailTag() string { return Red("✗") }
func WarnTag() string { return Yellow("⚠") }

// Verdict renders an instrumentation verdict: green when the program
// would run under the tool, yellow when it would be passed through.
func Verdict(instrument bool, label string) string {
	if instrument {
		return Green(label)
	}
	return Yellow(label)
}

// Quote joins argv for display, quoting elements that contain spaces or
// are empty.
func Quote(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\n\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}

// Warn prints a user-facing warning to stderr.
func Warn(msg string) {
	fmt.Fprintf(writer, "%s %s\n", ansi(stderrColor, "33", "Warning:"), msg)
}

// Warnf prints a formatted user-facing warning to stderr.
func Warnf(format string, args ...any) {
	Warn(fmt.Sprintf(format, args...))
}

// Error prints a user-facing error to stderr.
func Error(msg string) {
	fmt.Fprintf(writer, "%s %s\n", ansi(stderrColor, "31", "Error:"), msg)
}

// Errorf prints a formatted user-facing error to stderr.
func Errorf(format string, args ...any) {
	Error(fmt.Sprintf(format, args...))
}
