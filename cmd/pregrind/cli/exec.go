package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var execCmd = &cobra.Command{
	Use:   "exec -- PROGRAM [ARGS...]",
	Short: "Replace pregrind with PROGRAM, instrumented if eligible",
	Long: `Replaces the pregrind process with PROGRAM, looked up in PATH when it
is a bare name. An eligible program is started under the instrumentation
tool instead. Nothing runs after a successful exec.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	s := launchSession()
	defer s.Close()

	err := s.Interceptor.Execvp(args[0], args)
	return &exitError{code: launchFailureStatus(err), err: fmt.Errorf("exec %s: %w", args[0], err)}
}

// launchFailureStatus follows the shell: 127 when the program does not
// exist, 126 when it cannot be run.
func launchFailureStatus(err error) int {
	if errors.Is(err, unix.ENOENT) {
		return 127
	}
	return 126
}
