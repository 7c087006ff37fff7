// Package eligibility decides whether a launch request is run under the
// instrumentation tool or forwarded untouched.
package eligibility

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/majorcontext/pregrind/internal/config"
	"github.com/majorcontext/pregrind/internal/safemem"
)

// Verdict is the outcome of a decision.
type Verdict int

const (
	PassThrough Verdict = iota
	Instrument
)

func (v Verdict) String() string {
	if v == Instrument {
		return "instrument"
	}
	return "pass-through"
}

// Reason explains a verdict. Gates are checked in the order listed.
type Reason string

const (
	ReasonUninitialized Reason = "uninitialized"
	ReasonDisabled      Reason = "disabled"
	ReasonSelf          Reason = "instrumentation tool"
	ReasonNotFound      Reason = "not found in PATH"
	ReasonBlacklisted   Reason = "blacklisted"
	ReasonStatFailed    Reason = "stat failed"
	ReasonPrivileged    Reason = "setuid"
	ReasonEligible      Reason = "eligible"
)

// maxPath bounds PATH candidates, like PATH_MAX.
const maxPath = 4096

// privilegeBits are the mode bits that mark a binary the tool cannot follow.
const privilegeBits = unix.S_ISUID | unix.S_ISGID | unix.S_ISVTX

// Decision is the result of Engine.Decide.
type Decision struct {
	Verdict Verdict
	Reason  Reason
	// Path is the program after PATH resolution.
	Path string
	// Pattern is the blacklist entry that matched, if any.
	Pattern string
	// Err is the stat error behind ReasonStatFailed.
	Err error
}

// Engine evaluates launch requests against one configuration snapshot.
type Engine struct {
	cfg       *config.Config
	lookupEnv func(string) (string, bool)
}

// New returns an engine for cfg. A nil cfg yields an engine that passes
// everything through.
func New(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg, lookupEnv: os.LookupEnv}
}

// WithLookupEnv returns a copy of the engine that reads PATH through fn.
func (e *Engine) WithLookupEnv(fn func(string) (string, bool)) *Engine {
	c := *e
	c.lookupEnv = fn
	return &c
}

// Config returns the snapshot the engine decides with.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

func pass(r Reason, path string) Decision {
	return Decision{Verdict: PassThrough, Reason: r, Path: path}
}

// Decide reports whether program, launched with argv, should run under the
// instrumentation tool. A bare program name is resolved through PATH.
func (e *Engine) Decide(program string, argv []string) Decision {
	if e == nil || e.cfg == nil {
		return pass(ReasonUninitialized, program)
	}
	cfg := e.cfg
	if !cfg.Enabled {
		return pass(ReasonDisabled, program)
	}

	if tool := cfg.ToolName(); tool != "" {
		if strings.Contains(program, tool) || (len(argv) > 0 && strings.Contains(argv[0], tool)) {
			return pass(ReasonSelf, program)
		}
	}

	path := program
	if !strings.Contains(program, "/") {
		resolved, ok := e.lookPath(program)
		if !ok {
			return pass(ReasonNotFound, program)
		}
		path = resolved
	}

	for _, p := range cfg.Blacklist {
		if safemem.GlobMatch(p, path) {
			d := pass(ReasonBlacklisted, path)
			d.Pattern = p
			return d
		}
	}

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		d := pass(ReasonStatFailed, path)
		d.Err = err
		return d
	}

	if !cfg.Privileged && uint32(st.Mode)&privilegeBits != 0 {
		return pass(ReasonPrivileged, path)
	}

	return Decision{Verdict: Instrument, Reason: ReasonEligible, Path: path}
}

// lookPath searches PATH the way execvp does: each segment in order, an
// empty segment meaning the current directory. The first candidate that
// exists wins.
func (e *Engine) lookPath(name string) (string, bool) {
	path, ok := e.lookupEnv("PATH")
	if !ok {
		return "", false
	}
	for _, dir := range strings.Split(path, ":") {
		candidate := name
		if dir != "" {
			candidate = dir + "/" + name
		}
		if len(candidate) >= maxPath {
			return "", false
		}
		var st unix.Stat_t
		if unix.Stat(candidate, &st) == nil {
			return candidate, true
		}
	}
	return "", false
}
