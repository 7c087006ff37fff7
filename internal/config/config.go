// Package config builds the process-wide configuration snapshot that drives
// launch interception.
//
// A snapshot is assembled once from defaults, an optional YAML file and the
// PREGRIND_* environment variables, and is never modified afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/majorcontext/pregrind/internal/safemem"
)

// Environment variables read by Load.
const (
	EnvVerbose   = "PREGRIND_VERBOSE"
	EnvFlags     = "PREGRIND_FLAGS"
	EnvLogPath   = "PREGRIND_LOG_PATH"
	EnvDisable   = "PREGRIND_DISABLE"
	EnvBlacklist = "PREGRIND_BLACKLIST"
	EnvTool      = "PREGRIND_TOOL"
	EnvConfig    = "PREGRIND_CONFIG"
	EnvJournal   = "PREGRIND_JOURNAL"
	EnvPreload   = "PREGRIND_PRELOAD"
)

// EnvLDPreload is the dynamic loader's preload list.
const EnvLDPreload = "LD_PRELOAD"

// DefaultTool is the instrumentation tool used when none is configured.
const DefaultTool = "/usr/bin/valgrind"

// Capacity limits. Exceeding any of them is a configuration error.
const (
	MaxFlags    = 127
	MaxPatterns = 64
)

var (
	ErrTooManyFlags    = errors.New("too many forwarded flags")
	ErrTooManyPatterns = errors.New("too many blacklist patterns")
)

// Stderr is the Output value used when diagnostics go to standard error.
const Stderr = "(stderr)"

// Config is an immutable snapshot of the interception settings.
type Config struct {
	// Verbosity 0 is silent; anything else logs every decision.
	Verbosity int
	// Enabled is false when PREGRIND_DISABLE is non-zero.
	Enabled bool
	// Tool is the absolute path of the instrumentation tool.
	Tool string
	// Flags are forwarded to the tool in order.
	Flags []string
	// Blacklist holds glob patterns; a match suppresses instrumentation.
	Blacklist []string

	// LogDir is the absolute log directory, empty when logging to stderr.
	LogDir string
	// LogTemplate prefixes per-launch tool log files ("<dir>/vg.<euid>.").
	LogTemplate string
	// LogFile is this process's private diagnostic log.
	LogFile string

	// Journal is the optional decision journal database.
	Journal string
	// Preload is the interception library launched programs load; empty
	// means it is searched for next to the pregrind executable.
	Preload string

	EUID       int
	PID        int
	ProgName   string
	Privileged bool
}

// ToolName is the base name of the tool, used to avoid instrumenting the
// tool itself.
func (c *Config) ToolName() string {
	return safemem.Basename(c.Tool)
}

// Output names where diagnostics are written.
func (c *Config) Output() string {
	if c.LogFile == "" {
		return Stderr
	}
	return c.LogFile
}

// Env is the environment the configuration is read from.
type Env interface {
	LookupEnv(key string) (string, bool)
	Setenv(key, value string) error
}

// ProcessEnv is the real process environment.
type ProcessEnv struct{}

func (ProcessEnv) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }
func (ProcessEnv) Setenv(key, value string) error      { return os.Setenv(key, value) }

// MapEnv is an in-memory environment, mostly for tests.
type MapEnv map[string]string

func (m MapEnv) LookupEnv(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MapEnv) Setenv(key, value string) error {
	m[key] = value
	return nil
}

// Load builds a snapshot for the current process.
func Load(env Env) (*Config, error) {
	return loader{
		env:      env,
		euid:     unix.Geteuid(),
		pid:      os.Getpid(),
		progName: ProgName,
	}.load()
}

type loader struct {
	env      Env
	euid     int
	pid      int
	progName func() (string, error)
}

func (l loader) load() (*Config, error) {
	cfg := &Config{
		Enabled: true,
		Tool:    DefaultTool,
		EUID:    l.euid,
		PID:     l.pid,
	}

	var fc fileConfig
	if path, ok := l.env.LookupEnv(EnvConfig); ok && path != "" {
		var err error
		if fc, err = loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Verbosity = fc.Verbose
	if v, ok := l.env.LookupEnv(EnvVerbose); ok {
		cfg.Verbosity = atoi(v)
	}

	cfg.Flags = append(cfg.Flags, fc.Flags...)
	if v, ok := l.env.LookupEnv(EnvFlags); ok {
		cfg.Flags = SplitFlags(v)
	}
	if len(cfg.Flags) > MaxFlags {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyFlags, len(cfg.Flags), MaxFlags)
	}

	if fc.Tool != "" {
		cfg.Tool = fc.Tool
	}
	if v, ok := l.env.LookupEnv(EnvTool); ok && v != "" {
		cfg.Tool = v
	}

	if err := l.loadLogPaths(cfg, fc.LogPath); err != nil {
		return nil, err
	}

	disabled := fc.Disable
	if v, ok := l.env.LookupEnv(EnvDisable); ok {
		disabled = atoi(v) != 0
	}
	cfg.Enabled = !disabled

	cfg.Blacklist = append(cfg.Blacklist, fc.Patterns...)
	blacklist := fc.Blacklist
	if v, ok := l.env.LookupEnv(EnvBlacklist); ok {
		blacklist = v
	}
	if blacklist != "" {
		patterns, err := LoadBlacklist(blacklist, MaxPatterns-len(cfg.Blacklist))
		if err != nil {
			return nil, err
		}
		cfg.Blacklist = append(cfg.Blacklist, patterns...)
	}
	if len(cfg.Blacklist) > MaxPatterns {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyPatterns, len(cfg.Blacklist), MaxPatterns)
	}

	cfg.Journal = fc.Journal
	if v, ok := l.env.LookupEnv(EnvJournal); ok {
		cfg.Journal = v
	}

	cfg.Preload = fc.Preload
	if v, ok := l.env.LookupEnv(EnvPreload); ok {
		cfg.Preload = v
	}

	cfg.Privileged = l.euid == 0
	return cfg, nil
}

// loadLogPaths resolves the log directory and derives the tool log template
// and the private diagnostic log path from it.
func (l loader) loadLogPaths(cfg *Config, fileDir string) error {
	dir, fromEnv := l.env.LookupEnv(EnvLogPath)
	if !fromEnv || dir == "" {
		dir, fromEnv = fileDir, false
	}
	if dir == "" {
		return nil
	}

	if !filepath.IsAbs(dir) {
		abs, err := realpath(dir)
		if err != nil {
			return fmt.Errorf("resolve log path %s: %w", dir, err)
		}
		// Children inherit the absolute form, which survives a chdir.
		if fromEnv {
			if err := l.env.Setenv(EnvLogPath, abs); err != nil {
				return fmt.Errorf("set %s: %w", EnvLogPath, err)
			}
		}
		dir = abs
	}

	name, err := l.progName()
	if err != nil {
		return err
	}

	cfg.LogDir = dir
	cfg.ProgName = name
	cfg.LogTemplate = dir + "/vg." + strconv.Itoa(l.euid) + "."
	cfg.LogFile = fmt.Sprintf("%s/%s.%d.%d", dir, name, l.euid, l.pid)
	return nil
}

func realpath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// SplitFlags splits a space-separated flag string, dropping empty fields.
func SplitFlags(s string) []string {
	var flags []string
	for _, f := range strings.Split(s, " ") {
		if f != "" {
			flags = append(flags, f)
		}
	}
	return flags
}

// atoi parses like C atoi: optional leading whitespace and sign, then as
// many digits as are present. Anything else yields 0.
func atoi(s string) int {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		return -n
	}
	return n
}
