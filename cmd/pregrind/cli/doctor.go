package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/majorcontext/pregrind/internal/config"
	"github.com/majorcontext/pregrind/internal/doctor"
	"github.com/majorcontext/pregrind/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the pregrind environment",
	Long: `Displays the effective configuration, where each intercepted entry
point resolves, and whether the instrumentation tool can be launched.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, ui.Bold("pregrind doctor"))
	fmt.Fprintln(w)

	cfg, err := config.Load(config.ProcessEnv{})
	if err != nil {
		ui.Errorf("load configuration: %v", err)
	}

	reg := doctor.NewRegistry()
	reg.Register(&doctor.ConfigSection{Config: cfg})
	reg.Register(&doctor.EntryPointsSection{})
	reg.Register(&doctor.ToolSection{Config: cfg})

	if failed := reg.Run(w); failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}
