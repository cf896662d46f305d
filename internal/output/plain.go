package output

import (
	"fmt"
	"io"
)

// PlainRenderer produces unformatted text output safe for piping,
// adapted from the teacher's plain.go.
type PlainRenderer struct {
	w io.Writer
}

func (r *PlainRenderer) Render(heading string, report any) {
	fmt.Fprintf(r.w, "=== %s ===\n\n", heading)
	for _, f := range orderedFields(report) {
		fmt.Fprintf(r.w, "%-24s %s\n", f.Label+":", f.Value)
	}
	fmt.Fprintln(r.w)
}
