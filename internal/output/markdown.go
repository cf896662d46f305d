package output

import (
	"fmt"
	"io"
)

// MarkdownRenderer produces markdown output for documentation/tickets,
// adapted from the teacher's heading + property-table pattern.
type MarkdownRenderer struct {
	w io.Writer
}

func (r *MarkdownRenderer) Render(heading string, report any) {
	fmt.Fprintf(r.w, "# %s\n\n", heading)
	fmt.Fprintf(r.w, "| Field | Value |\n|---|---|\n")
	for _, f := range orderedFields(report) {
		fmt.Fprintf(r.w, "| %s | `%s` |\n", f.Label, f.Value)
	}
	fmt.Fprintln(r.w)
}
