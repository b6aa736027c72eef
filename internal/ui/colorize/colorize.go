// Package colorize highlights JVM bytecode listings for the terminal.
package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"
)

// Enabled reports whether output should be colored. Setting
// NANOPATTERNS_NO_COLOR disables it.
func Enabled() bool {
	return os.Getenv("NANOPATTERNS_NO_COLOR") == ""
}

// getBytecodeStyle returns the listing style with fallbacks
func getBytecodeStyle() *chroma.Style {
	candidates := []string{"bytecode-dark", "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Listing highlights a whole multi-line listing. The input is returned
// unchanged when colors are disabled or on error.
func Listing(code string) (string, error) {
	if !Enabled() {
		return code, nil
	}

	iterator, err := JVMBytecode.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getBytecodeStyle(), iterator); err != nil {
		return code, err
	}
	out := buf.String()
	if !strings.HasSuffix(code, "\n") {
		// the lexer appended a newline; drop it even when it is wrapped in escapes
		if i := strings.LastIndex(out, "\n"); i >= 0 {
			out = out[:i] + out[i+1:]
		}
	}
	return out, nil
}

// Line highlights a single listing line, falling back to the plain line.
func Line(line string) string {
	out, err := Listing(line)
	if err != nil {
		return line
	}
	return out
}

// StripANSI removes ANSI escape sequences from s.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
		} else if inEscape {
			if r == 'm' {
				inEscape = false
			}
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
