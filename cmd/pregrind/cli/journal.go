package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/majorcontext/pregrind/internal/config"
	"github.com/majorcontext/pregrind/internal/journal"
	"github.com/majorcontext/pregrind/internal/ui"
)

var (
	journalLimit int
	journalPath  string
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List recorded launch decisions, newest first",
	Long: `Lists the decisions recorded in the journal named by PREGRIND_JOURNAL
(or --path). Use --limit 0 to list every entry.`,
	Args: cobra.NoArgs,
	RunE: runJournal,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "maximum entries to show")
	journalCmd.Flags().StringVar(&journalPath, "path", "", "journal database (default $"+config.EnvJournal+")")
}

func runJournal(cmd *cobra.Command, args []string) error {
	path := journalPath
	if path == "" {
		cfg, err := config.Load(config.ProcessEnv{})
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		path = cfg.Journal
	}
	if path == "" {
		return fmt.Errorf("no journal configured; set %s or pass --path", config.EnvJournal)
	}

	store, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(journalLimit)
	if err != nil {
		return err
	}
	return printJournal(cmd.OutOrStdout(), entries)
}

func printJournal(w io.Writer, entries []journal.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, ui.Dim("no decisions recorded"))
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tPID\tENTRY\tVERDICT\tREASON\tCOMMAND")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format(time.DateTime), e.PID, e.EntryPoint,
			e.Verdict, e.Reason, ui.Quote(e.Argv))
	}
	return tw.Flush()
}
