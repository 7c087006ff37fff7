package journal

import (
	"os"

	"github.com/majorcontext/pregrind/internal/intercept"
	"github.com/majorcontext/pregrind/internal/log"
)

// Observer returns an interceptor observer that records every event in s.
// Recording failures are logged and never block the launch.
func Observer(s *Store) func(intercept.Event) {
	pid := os.Getpid()
	return func(ev intercept.Event) {
		if err := s.Record(FromEvent(pid, ev)); err != nil {
			log.Warn("failed to record decision", "program", ev.Request.Program, "error", err)
		}
	}
}

// FromEvent converts an interceptor event into a journal entry. The
// recorded argv is the one actually launched.
func FromEvent(pid int, ev intercept.Event) Entry {
	argv := ev.Argv
	if argv == nil {
		argv = ev.Request.Argv
	}
	return Entry{
		PID:        pid,
		EntryPoint: ev.Request.Entry,
		Program:    ev.Request.Program,
		Resolved:   ev.Decision.Path,
		Verdict:    ev.Decision.Verdict.String(),
		Reason:     string(ev.Decision.Reason),
		Argv:       argv,
	}
}
