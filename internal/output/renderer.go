// Package output renders engine reports in the CLI's supported formats,
// adapted from the teacher's per-format Renderer pattern (spec
// SPEC_FULL.md §1.2). Unlike the teacher, whose two domain types
// (DDL/DML plan, topology info) get one hand-written renderer each, this
// engine's dozen report shapes (analyze, callers, call-graph, the eight
// scorers, spec, spec-with-evidence) share one generic label/value
// rendering built over each report's own JSON field order, keeping the
// teacher's box/label styling without hand-duplicating it per report.
package output

import (
	"io"
)

// Renderer renders one engine report, identified by a human-facing
// heading, to w in the renderer's format. JSON output is the canonical,
// byte-stable contract; text/markdown/plain are convenience renderings
// for a human running the CLI locally.
type Renderer interface {
	Render(heading string, report any)
}

// NewRenderer creates a renderer for the given format, mirroring the
// teacher's NewRenderer switch.
func NewRenderer(format string, w io.Writer) Renderer {
	switch format {
	case "json":
		return &JSONRenderer{w: w}
	case "markdown":
		return &MarkdownRenderer{w: w}
	case "plain":
		return &PlainRenderer{w: w}
	default:
		return &TextRenderer{w: w}
	}
}
