// Package cli implements the pregrind command-line interface using Cobra.
// It launches programs through the interceptor and inspects its
// configuration and decision journal.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/majorcontext/pregrind/internal/bootstrap"
	"github.com/majorcontext/pregrind/internal/config"
	"github.com/majorcontext/pregrind/internal/log"
	"github.com/majorcontext/pregrind/internal/ui"
)

var (
	verbose   bool
	preload   string
	noPreload bool
)

var rootCmd = &cobra.Command{
	Use:   "pregrind",
	Short: "Run programs and their children under an instrumentation tool",
	Long: `pregrind intercepts every program launch (the exec family and
posix_spawn) and rewrites eligible ones to run under an instrumentation
tool, Valgrind by default.

Configuration comes from the environment:

  PREGRIND_VERBOSE    non-zero logs every decision
  PREGRIND_FLAGS      space-separated flags forwarded to the tool
  PREGRIND_LOG_PATH   directory for tool and diagnostic logs
  PREGRIND_DISABLE    non-zero disables instrumentation
  PREGRIND_BLACKLIST  file of glob patterns never instrumented
  PREGRIND_TOOL       instrumentation tool (default /usr/bin/valgrind)
  PREGRIND_CONFIG     YAML file with defaults for the above
  PREGRIND_JOURNAL    SQLite file recording every decision
  PREGRIND_PRELOAD    interception library (default: libpregrind.so next to
                      pregrind, or ../lib/pregrind/libpregrind.so)

exec and run put the library in LD_PRELOAD, so the programs the launched
one starts are intercepted as well.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			return os.Setenv(config.EnvVerbose, "1")
		}
		return nil
	},
}

// exitError carries a process exit status through cobra. A non-nil err is
// reported before exiting.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }

// Execute runs the root command and returns the process exit status.
func Execute() int {
	err := rootCmd.Execute()
	log.Close()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			ui.Error(ee.err.Error())
		}
		return ee.code
	}
	ui.Error(err.Error())
	return 1
}

// launchSession bootstraps interception for a launch command and exports
// the preload library, so the launched program and everything it starts
// are intercepted too. Bootstrap failures are fatal, with the same status a
// preloaded library aborts with.
func launchSession() *bootstrap.Session {
	if preload != "" {
		if err := os.Setenv(config.EnvPreload, preload); err != nil {
			log.Fatal(err.Error())
			return nil
		}
	}
	s, err := bootstrap.Start(config.ProcessEnv{}, nil)
	if err != nil {
		log.Fatal(err.Error())
		return nil
	}
	if !noPreload {
		exportPreload(s.Interceptor.Config())
	}
	return s
}

func exportPreload(cfg *config.Config) {
	lib, err := bootstrap.FindPreload(cfg)
	if err == nil {
		err = bootstrap.ExportPreload(config.ProcessEnv{}, lib)
	}
	if err != nil {
		ui.Warnf("%v; programs started by the launched one will not be intercepted", err)
		return
	}
	log.Debug("preloading", "library", lib)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every decision (sets PREGRIND_VERBOSE=1)")
	rootCmd.PersistentFlags().StringVar(&preload, "preload", "", "interception library for launched programs (env: "+config.EnvPreload+")")
	rootCmd.PersistentFlags().BoolVar(&noPreload, "no-preload", false, "intercept only the first launch")
}
