package doctor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"golang.org/x/sys/unix"

	"github.com/majorcontext/pregrind/internal/config"
	"github.com/majorcontext/pregrind/internal/intercept"
	"github.com/majorcontext/pregrind/internal/ui"
)

// ConfigSection shows the effective configuration.
type ConfigSection struct {
	Config *config.Config
}

func (s *ConfigSection) Name() string { return "Configuration" }

func (s *ConfigSection) Print(w io.Writer) error {
	cfg := s.Config
	if cfg == nil {
		return fmt.Errorf("not initialized")
	}
	tmpl := cfg.LogTemplate
	if tmpl == "" {
		tmpl = config.Stderr
	}
	journal := cfg.Journal
	if journal == "" {
		journal = "(off)"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Enabled:\t%t\n", cfg.Enabled)
	fmt.Fprintf(tw, "Verbosity:\t%d\n", cfg.Verbosity)
	fmt.Fprintf(tw, "Tool:\t%s\n", cfg.Tool)
	fmt.Fprintf(tw, "Tool flags:\t%s\n", ui.Quote(cfg.Flags))
	fmt.Fprintf(tw, "Tool log template:\t%s\n", tmpl)
	fmt.Fprintf(tw, "Diagnostics:\t%s\n", cfg.Output())
	fmt.Fprintf(tw, "Journal:\t%s\n", journal)
	fmt.Fprintf(tw, "Privileged:\t%t\n", cfg.Privileged)
	fmt.Fprintf(tw, "Blacklist:\t%d pattern(s)\n", len(cfg.Blacklist))
	for _, p := range cfg.Blacklist {
		fmt.Fprintf(tw, "\t%s\n", p)
	}
	return tw.Flush()
}

// EntryPointsSection shows where each real entry point resolves.
type EntryPointsSection struct {
	// Locate defaults to intercept.Locate.
	Locate func() []intercept.Symbol
}

func (s *EntryPointsSection) Name() string { return "Entry Points" }

func (s *EntryPointsSection) Print(w io.Writer) error {
	locate := s.Locate
	if locate == nil {
		locate = intercept.Locate
	}

	var missing []string
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, sym := range locate() {
		if sym.Err != nil {
			fmt.Fprintf(tw, "%s %s\t%v\n", ui.FailTag(), sym.Name, sym.Err)
			missing = append(missing, sym.Name)
			continue
		}
		fmt.Fprintf(tw, "%s %s\t%#x\t%s\n", ui.OKTag(), sym.Name, sym.Addr, ui.Dim(sym.Source))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("unresolved: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ToolSection checks that the instrumentation tool can be launched and
// that the tool log directory is writable.
type ToolSection struct {
	Config *config.Config
}

func (s *ToolSection) Name() string { return "Tool" }

func (s *ToolSection) Print(w io.Writer) error {
	cfg := s.Config
	if cfg == nil {
		return fmt.Errorf("not initialized")
	}

	path, err := exec.LookPath(cfg.Tool)
	if err != nil {
		fmt.Fprintf(w, "%s %s not executable: %v\n", ui.FailTag(), cfg.Tool, err)
		return fmt.Errorf("tool unavailable")
	}
	fmt.Fprintf(w, "%s %s\n", ui.OKTag(), path)

	if cfg.LogTemplate != "" {
		dir := filepath.Dir(cfg.LogTemplate)
		if err := unix.Access(dir, unix.W_OK); err != nil {
			fmt.Fprintf(w, "%s log directory %s not writable: %v\n", ui.WarnTag(), dir, err)
		} else {
			fmt.Fprintf(w, "%s log directory %s\n", ui.OKTag(), dir)
		}
	}
	if !cfg.Enabled {
		fmt.Fprintf(w, "%s instrumentation disabled by %s\n", ui.WarnTag(), config.EnvDisable)
	}
	if fi, err := os.Stat(path); err == nil && fi.Mode()&os.ModeSetuid != 0 {
		fmt.Fprintf(w, "%s tool is setuid\n", ui.WarnTag())
	}
	return nil
}
