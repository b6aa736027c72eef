package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nanopatterns/internal/scan"
)

// targetFromArgs sorts positional arguments into input paths and a class
// or method reference. An argument that is neither an existing path nor
// named like a class file or archive is a reference: pkg.Class or
// pkg.Class:method[:descriptor].
func targetFromArgs(args []string, class, method string) (scan.Target, error) {
	t := scan.Target{Class: class, Method: method}
	for _, arg := range args {
		if isInputPath(arg) {
			t.Paths = append(t.Paths, arg)
			continue
		}
		if t.Class != "" {
			return t, fmt.Errorf("%s: only one class may be selected", arg)
		}
		cls, m, hasMethod := strings.Cut(arg, ":")
		if cls == "" {
			return t, fmt.Errorf("%s: missing class name", arg)
		}
		t.Class = cls
		if hasMethod {
			if t.Method != "" {
				return t, fmt.Errorf("%s: method given twice", arg)
			}
			t.Method = m
		}
	}
	if len(t.Paths) == 0 && !t.Selective() {
		return t, errors.New("nothing to analyze: give a class file, jar, directory or class name")
	}
	if len(t.Paths) == 0 && t.Class == "" {
		return t, errors.New("--method needs a class (--class or pkg.Class) when no path is given")
	}
	return t, nil
}

func isInputPath(arg string) bool {
	if _, err := os.Stat(arg); err == nil {
		return true
	}
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".class", ".jar", ".zip":
		return true
	}
	return false
}
