// Package bootstrap brings up interception for a process: configuration,
// logging, the real primitives and the optional decision journal. Both the
// pregrind command and the preloaded library start here.
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/majorcontext/pregrind/internal/config"
	"github.com/majorcontext/pregrind/internal/intercept"
	"github.com/majorcontext/pregrind/internal/journal"
	"github.com/majorcontext/pregrind/internal/log"
)

// LibraryName is the file name of the preload library.
const LibraryName = "libpregrind.so"

// ErrNoLibrary is returned when the preload library cannot be found.
var ErrNoLibrary = errors.New("preload library not found")

// Session is an initialized interceptor and its optional journal.
type Session struct {
	Interceptor *intercept.Interceptor
	Journal     *journal.Store
}

// Start runs intercept.Setup and attaches the journal when one is
// configured. A journal that cannot be opened is logged and skipped.
func Start(env config.Env, environ intercept.Environ) (*Session, error) {
	ic, err := intercept.Setup(env, environ)
	if err != nil {
		return nil, err
	}
	s := &Session{Interceptor: ic}

	path := ic.Config().Journal
	if path == "" {
		return s, nil
	}
	store, err := journal.Open(path)
	if err != nil {
		log.Warn("decision journal disabled", "path", path, "error", err)
		return s, nil
	}
	s.Journal = store
	ic.SetObserver(journal.Observer(store))
	log.Info("recording decisions", "journal", path)
	return s, nil
}

// Close detaches and closes the journal.
func (s *Session) Close() {
	if s.Journal == nil {
		return
	}
	s.Interceptor.SetObserver(nil)
	if err := s.Journal.Close(); err != nil {
		log.Warn("failed to close decision journal", "error", err)
	}
	s.Journal = nil
}

// executable is replaced in tests.
var executable = os.Executable

// FindPreload returns the absolute path of the preload library: the
// configured one, or else the first LibraryName found next to the running
// executable or in its ../lib/pregrind directory.
func FindPreload(cfg *config.Config) (string, error) {
	if cfg.Preload != "" {
		path, err := filepath.Abs(cfg.Preload)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %w", ErrNoLibrary, err)
		}
		return path, nil
	}

	exe, err := executable()
	if err != nil {
		return "", fmt.Errorf("%w: locate executable: %w", ErrNoLibrary, err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	dir := filepath.Dir(exe)
	candidates := []string{
		filepath.Join(dir, LibraryName),
		filepath.Join(dir, "..", "lib", "pregrind", LibraryName),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return filepath.Clean(c), nil
		}
	}
	return "", fmt.Errorf("%w (looked in %s); set %s", ErrNoLibrary, strings.Join(candidates, ", "), config.EnvPreload)
}

// ExportPreload puts lib first in LD_PRELOAD so every program launched from
// now on loads it. Entries already present are kept, without duplicates.
func ExportPreload(env config.Env, lib string) error {
	entries := []string{lib}
	if cur, ok := env.LookupEnv(config.EnvLDPreload); ok {
		// The loader accepts both separators.
		for _, e := range strings.FieldsFunc(cur, func(r rune) bool { return r == ':' || r == ' ' }) {
			if e != lib {
				entries = append(entries, e)
			}
		}
	}
	if err := env.Setenv(config.EnvLDPreload, strings.Join(entries, ":")); err != nil {
		return fmt.Errorf("set %s: %w", config.EnvLDPreload, err)
	}
	return nil
}
