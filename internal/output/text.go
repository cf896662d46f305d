package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TextRenderer produces Lip Gloss styled terminal output, reusing the
// teacher's box/label/value styling (styles.go) over the generic
// ordered-field view of a report.
type TextRenderer struct {
	w io.Writer
}

func (r *TextRenderer) Render(heading string, report any) {
	width := 72
	fmt.Fprintln(r.w)

	title := TitleStyle.Render(heading)

	var lines []string
	for _, f := range orderedFields(report) {
		lines = append(lines, r.labelValue(f.Label, f.Value))
	}

	style := BoxStyle
	if level := levelOf(report); level != "" {
		style = styleForLevel(level)
	}

	box := style.Width(width).Render(title + "\n" + strings.Join(lines, "\n"))
	fmt.Fprintln(r.w, box)
	fmt.Fprintln(r.w)
}

func (r *TextRenderer) labelValue(label, value string) string {
	return LabelStyle.Render(label+":") + " " + ValueStyle.Render(value)
}

// levelOf extracts a report's "level" or "risk_level" field, if present,
// so the box border can reflect risk the way the teacher's RenderPlan
// colors its recommendation box by result.Risk.
func levelOf(report any) string {
	for _, f := range orderedFields(report) {
		if f.Label == "level" || f.Label == "risk_level" {
			return strings.Trim(f.Value, `"`)
		}
	}
	return ""
}

func styleForLevel(level string) lipgloss.Style {
	switch level {
	case "critical", "high", "very_high":
		return DangerBoxStyle
	case "medium":
		return WarningBoxStyle
	case "low":
		return SafeBoxStyle
	default:
		return BoxStyle
	}
}
