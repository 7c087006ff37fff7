package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/majorcontext/pregrind/internal/intercept"
	"github.com/majorcontext/pregrind/internal/log"
)

var runCmd = &cobra.Command{
	Use:   "run -- PROGRAM [ARGS...]",
	Short: "Spawn PROGRAM, instrumented if eligible, and wait for it",
	Long: `Starts PROGRAM as a child with posix_spawnp, looked up in PATH when it
is a bare name, waits for it and exits with its status. A child killed by
a signal yields 128 plus the signal number.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	s := launchSession()
	defer s.Close()

	pid, err := s.Interceptor.PosixSpawnp(args[0], intercept.SpawnAttrs{}, args, nil)
	if err != nil {
		return &exitError{code: launchFailureStatus(err), err: fmt.Errorf("spawn %s: %w", args[0], err)}
	}
	log.Debug("spawned", "pid", pid)

	ws, err := wait(pid)
	if err != nil {
		return fmt.Errorf("wait for %d: %w", pid, err)
	}
	if code := exitStatus(ws); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

func wait(pid int) (unix.WaitStatus, error) {
	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(pid, &ws, 0, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return ws, err
	}
}

func exitStatus(ws unix.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	default:
		return 1
	}
}
