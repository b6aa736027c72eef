package report

import (
	"encoding/json"
	"io"

	"nanopatterns/internal/scan"
)

// WriteJSON writes methods as an indented JSON array. Patterns are keyed
// by canonical name.
func WriteJSON(w io.Writer, methods []scan.MethodReport) error {
	if methods == nil {
		methods = []scan.MethodReport{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(methods)
}
