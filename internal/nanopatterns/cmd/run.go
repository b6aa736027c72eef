package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/x/term"

	"nanopatterns/internal/analysis"
	"nanopatterns/internal/config"
	"nanopatterns/internal/report"
	"nanopatterns/internal/scan"
)

// runReport scans target and writes the report in format to w.
func runReport(ctx context.Context, w io.Writer, cfg *config.Config, target scan.Target, format string) error {
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	rep, err := s.run(ctx, target)
	if err != nil {
		return err
	}
	if n := len(rep.Failed); n > 0 {
		slog.Warn("some classes could not be decoded", "skipped", n)
	}

	switch format {
	case config.FormatJSON:
		return report.WriteJSON(w, rep.Methods)
	case config.FormatSummary:
		return report.WriteSummary(w, rep, terminalWidth())
	default:
		return report.WriteText(w, rep.Methods)
	}
}

func terminalWidth() int {
	if term.IsTerminal(os.Stdout.Fd()) {
		if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
			return w
		}
	}
	return 80
}

// patternColumns lists the column names of the patterns m exhibits.
func patternColumns(m scan.MethodReport) []string {
	var cols []string
	for _, p := range analysis.Patterns {
		if p.Of(m.Result) {
			cols = append(cols, p.Column)
		}
	}
	return cols
}

func describeMethod(m scan.MethodReport) string {
	return fmt.Sprintf("%s.%s%s", m.Class, m.Method, m.Descriptor)
}
