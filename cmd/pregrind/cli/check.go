package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/majorcontext/pregrind/internal/config"
	"github.com/majorcontext/pregrind/internal/eligibility"
	"github.com/majorcontext/pregrind/internal/rewrite"
	"github.com/majorcontext/pregrind/internal/safemem"
	"github.com/majorcontext/pregrind/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check PROGRAM [ARGS...]",
	Short: "Show what launching PROGRAM would do, without launching it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.ProcessEnv{})
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		return check(cmd.OutOrStdout(), cfg, args[0], args)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func check(w io.Writer, cfg *config.Config, program string, argv []string) error {
	d := eligibility.New(cfg).Decide(program, argv)

	instrument := d.Verdict == eligibility.Instrument
	ui.Field(w, "program", program)
	ui.Field(w, "resolved", d.Path)
	ui.Field(w, "verdict", ui.Verdict(instrument, d.Verdict.String()))
	ui.Field(w, "reason", string(d.Reason))
	if d.Pattern != "" {
		ui.Field(w, "pattern", d.Pattern)
	}
	if d.Err != nil {
		ui.Field(w, "error", d.Err.Error())
	}

	launched := argv
	if instrument {
		v, err := rewrite.Build(safemem.NewArena(), cfg, program, argv)
		if err != nil {
			return fmt.Errorf("build instrumented command: %w", err)
		}
		launched = v.Strings()
		if err := v.Release(); err != nil {
			return err
		}
	}
	ui.Field(w, "command", ui.Quote(launched))
	return nil
}
