// Package scan runs the nanopattern analysis over class files, jars and
// directories.
package scan

import (
	"strings"

	"nanopatterns/internal/bytecode"
)

// Target selects what to analyze. With only Paths set every method found
// is analyzed. Class and Method narrow the selection; a Class without
// Paths is looked up on the classpath.
type Target struct {
	Paths  []string
	Class  string // class name, dotted or internal form
	Method string // "name" or "name:descriptor"
}

// Selective reports whether the target filters classes or methods.
func (t Target) Selective() bool { return t.Class != "" || t.Method != "" }

// FromClasspath reports whether the class is resolved on the classpath
// instead of being found under Paths.
func (t Target) FromClasspath() bool { return len(t.Paths) == 0 && t.Class != "" }

// MatchClass reports whether the class with internal name is selected.
func (t Target) MatchClass(name string) bool {
	return t.Class == "" || bytecode.InternalName(t.Class) == name
}

// MatchMethod reports whether the method name with descriptor desc is
// selected.
func (t Target) MatchMethod(name, desc string) bool {
	if t.Method == "" {
		return true
	}
	want, wantDesc, hasDesc := strings.Cut(t.Method, ":")
	if want != name {
		return false
	}
	return !hasDesc || wantDesc == desc
}
