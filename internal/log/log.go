// Package log writes pregrind's diagnostics.
//
// Every line is prefixed with Tag. Output goes to the process's private log
// file when a log directory is configured, otherwise to standard error.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/majorcontext/pregrind/internal/safemem"
)

// Tag starts every diagnostic line.
const Tag = "pregrind: "

// AbortStatus is the exit status used by Fatal.
const AbortStatus = 134

var (
	logger     *slog.Logger
	fileWriter *FileWriter
	verbosity  atomic.Int64

	// exit terminates the process; replaced in tests.
	exit = os.Exit
)

// Options configures the logger.
type Options struct {
	// Verbosity 0 shows warnings and errors only.
	Verbosity int
	// File is the private diagnostic log. It is opened on first write.
	// Empty means Stderr.
	File string
	// Stderr is the writer for stderr output (defaults to os.Stderr)
	Stderr io.Writer
}

// Init replaces the global logger.
func Init(opts Options) {
	Close()

	var out io.Writer = opts.Stderr
	if out == nil {
		out = os.Stderr
	}
	if opts.File != "" {
		fileWriter = NewFileWriter(opts.File)
		fileWriter.OnOpenError = func(err error) {
			fallbackFatal(fmt.Sprintf("open() of %s failed: %v", opts.File, err))
		}
		out = fileWriter
	}

	level := slog.LevelWarn
	if opts.Verbosity != 0 {
		level = slog.LevelDebug
	}
	verbosity.Store(int64(opts.Verbosity))

	logger = slog.New(newHandler(out, level))
}

// Close closes the private log file if one was opened.
func Close() {
	if fileWriter != nil {
		fileWriter.Close()
		fileWriter = nil
	}
}

// Verbose reports whether per-decision diagnostics are enabled.
func Verbose() bool {
	return verbosity.Load() != 0
}

func newHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewTextHandler(&prefixWriter{w: w}, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
}

// prefixWriter tags each record. The text handler issues one Write per
// record, so the tag and the line go out in a single write.
type prefixWriter struct {
	w io.Writer
}

func (p *prefixWriter) Write(b []byte) (int, error) {
	line := make([]byte, 0, len(Tag)+len(b))
	line = append(line, Tag...)
	line = append(line, b...)
	if _, err := p.w.Write(line); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// Fatal logs msg and terminates the process with AbortStatus.
func Fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	exit(AbortStatus)
}

// SetOutput sets the output writer (for testing).
func SetOutput(w io.Writer) {
	Close()
	verbosity.Store(1)
	logger = slog.New(newHandler(w, slog.LevelDebug))
}

// fallbackFatal reports a failure of the logger itself straight to
// descriptor 2 and terminates.
func fallbackFatal(msg string) {
	_ = safemem.Printf(2, "%s%s\n", Tag, msg)
	exit(AbortStatus)
}

func init() {
	logger = slog.New(newHandler(os.Stderr, slog.LevelWarn))
}
