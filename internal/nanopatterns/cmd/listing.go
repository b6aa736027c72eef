package cmd

import (
	"fmt"
	"strings"

	"nanopatterns/internal/bytecode"
)

// formatListing renders a decoded stream one instruction per line, labels
// flush left and instructions after their bytecode offset.
func formatListing(stream bytecode.Stream) string {
	var sb strings.Builder
	for i, in := range stream {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if in.Kind == bytecode.KindLabel {
			sb.WriteString(in.String())
			continue
		}
		fmt.Fprintf(&sb, "%6d  %s", in.Offset, in)
	}
	return sb.String()
}
