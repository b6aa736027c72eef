// Package report renders scan results as the whitespace separated text
// table, JSON, or a markdown summary.
package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"nanopatterns/internal/analysis"
	"nanopatterns/internal/scan"
)

// Header returns the first line of the text report.
func Header() string {
	cols := []string{"class", "method", "typesig", "numInstrs"}
	for _, p := range analysis.Patterns {
		cols = append(cols, p.Column)
	}
	return strings.Join(cols, " ")
}

// Row formats one method as a text report line without the newline.
func Row(m scan.MethodReport) string {
	var sb strings.Builder
	sb.WriteString(m.Class)
	sb.WriteByte(' ')
	sb.WriteString(m.Method)
	sb.WriteByte(' ')
	sb.WriteString(m.Descriptor)
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(m.Instructions))
	for _, set := range m.Result.Flags() {
		if set {
			sb.WriteString(" 1")
		} else {
			sb.WriteString(" 0")
		}
	}
	return sb.String()
}

// WriteText writes the header followed by one row per method.
func WriteText(w io.Writer, methods []scan.MethodReport) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(Header())
	bw.WriteByte('\n')
	for _, m := range methods {
		bw.WriteString(Row(m))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
