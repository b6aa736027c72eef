package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"nanopatterns/internal/analysis"
	"nanopatterns/internal/nanopatterns/styles"
	"nanopatterns/internal/scan"
)

// PatternCount is how often one pattern occurred in a run.
type PatternCount struct {
	Pattern analysis.Pattern
	Methods int
	Percent float64
}

// Tally counts each pattern over methods, in canonical order.
func Tally(methods []scan.MethodReport) []PatternCount {
	counts := make([]PatternCount, len(analysis.Patterns))
	for i, p := range analysis.Patterns {
		counts[i].Pattern = p
	}
	for _, m := range methods {
		for i, set := range m.Result.Flags() {
			if set {
				counts[i].Methods++
			}
		}
	}
	if len(methods) > 0 {
		for i := range counts {
			counts[i].Percent = 100 * float64(counts[i].Methods) / float64(len(methods))
		}
	}
	return counts
}

// Markdown builds the summary document for r.
func Markdown(r *scan.Report) string {
	var sb strings.Builder
	sb.WriteString("# Nanopatterns\n\n")
	fmt.Fprintf(&sb, "**%d** methods in **%d** classes", len(r.Methods), r.Classes)
	if r.Bodiless > 0 {
		fmt.Fprintf(&sb, ", %d without code", r.Bodiless)
	}
	sb.WriteString(".\n\n")

	sb.WriteString("## Patterns\n\n")
	sb.WriteString("| pattern | methods | share | meaning |\n")
	sb.WriteString("|---|---:|---:|---|\n")
	for _, c := range Tally(r.Methods) {
		fmt.Fprintf(&sb, "| `%s` | %d | %.1f%% | %s |\n",
			c.Pattern.Column, c.Methods, c.Percent, c.Pattern.Description)
	}

	if len(r.Failed) > 0 {
		fmt.Fprintf(&sb, "\n## Skipped (%d)\n\n", len(r.Failed))
		for _, f := range r.Failed {
			fmt.Fprintf(&sb, "- `%s`: %v\n", filepath.ToSlash(f.Path), f.Err)
		}
	}
	return sb.String()
}

// RenderSummary renders the markdown summary of r for a terminal of the
// given width.
func RenderSummary(r *scan.Report, width int) (string, error) {
	renderer, err := styles.MarkdownRenderer(width)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := renderer.Render(Markdown(r))
	if err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return out, nil
}

// WriteSummary writes the rendered summary to w.
func WriteSummary(w io.Writer, r *scan.Report, width int) error {
	out, err := RenderSummary(r, width)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
