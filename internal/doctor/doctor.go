// Package doctor provides diagnostic output for debugging pregrind.
package doctor

import (
	"fmt"
	"io"

	"github.com/majorcontext/pregrind/internal/ui"
)

// Section represents a diagnostic section that can be printed.
type Section interface {
	// Name returns the section title, e.g. "Configuration".
	Name() string

	// Print writes the section's diagnostics to w.
	Print(w io.Writer) error
}

// Registry holds the registered sections in registration order.
type Registry struct {
	sections []Section
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a section to the registry.
func (r *Registry) Register(s Section) {
	r.sections = append(r.sections, s)
}

// Sections returns all registered sections.
func (r *Registry) Sections() []Section {
	return r.sections
}

// Run prints every section to w. A failing section is reported inline and
// does not stop the others; the number of failures is returned.
func (r *Registry) Run(w io.Writer) int {
	failed := 0
	for _, s := range r.sections {
		ui.Section(w, s.Name())
		if err := s.Print(w); err != nil {
			fmt.Fprintf(w, "%s Error: %v\n", ui.FailTag(), err)
			failed++
		}
		fmt.Fprintln(w)
	}
	return failed
}
