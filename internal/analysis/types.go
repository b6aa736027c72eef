package analysis

import (
	"fmt"

	"nanopatterns/internal/bytecode"
)

// MethodFacts is the method metadata the orchestrator needs besides the
// instruction stream.
type MethodFacts struct {
	Class       string // internal name of the declaring class
	Name        string
	Descriptor  string
	ParamCount  int
	ReturnsVoid bool
	Exceptions  int // number of declared (throws) exceptions
}

// FactsFor builds MethodFacts from a method descriptor.
func FactsFor(class, name, desc string, exceptions int) (MethodFacts, error) {
	mt, err := bytecode.ParseMethodDescriptor(desc)
	if err != nil {
		return MethodFacts{}, fmt.Errorf("method %s.%s: %w", class, name, err)
	}
	return MethodFacts{
		Class:       class,
		Name:        name,
		Descriptor:  desc,
		ParamCount:  len(mt.Params),
		ReturnsVoid: mt.Void(),
		Exceptions:  exceptions,
	}, nil
}

// Result holds one flag per nanopattern, in canonical order.
type Result struct {
	NoParams                   bool `json:"noParams"`
	NoReturn                   bool `json:"noReturn"`
	IsRecursive                bool `json:"isRecursive"`
	IsSameNameCaller           bool `json:"isSameNameCaller"`
	IsLeaf                     bool `json:"isLeaf"`
	IsObjectCreator            bool `json:"isObjectCreator"`
	IsThisInstanceFieldReader  bool `json:"isThisInstanceFieldReader"`
	IsThisInstanceFieldWriter  bool `json:"isThisInstanceFieldWriter"`
	IsOtherInstanceFieldReader bool `json:"isOtherInstanceFieldReader"`
	IsOtherInstanceFieldWriter bool `json:"isOtherInstanceFieldWriter"`
	IsStaticFieldReader        bool `json:"isStaticFieldReader"`
	IsStaticFieldWriter        bool `json:"isStaticFieldWriter"`
	IsTypeManipulator          bool `json:"isTypeManipulator"`
	IsStraightLineCode         bool `json:"isStraightLineCode"`
	IsLoopingCode              bool `json:"isLoopingCode"`
	IsSwitcher                 bool `json:"isSwitcher"`
	ThrowsExceptions           bool `json:"throwsExceptions"`
	IsLocalVarReader           bool `json:"isLocalVarReader"`
	IsLocalVarWriter           bool `json:"isLocalVarWriter"`
	IsArrayCreator             bool `json:"isArrayCreator"`
	IsArrayReader              bool `json:"isArrayReader"`
	IsArrayWriter              bool `json:"isArrayWriter"`
	IsPolymorphic              bool `json:"isPolymorphic"`
	IsSingleReturner           bool `json:"isSingleReturner"`
	IsMultipleReturner         bool `json:"isMultipleReturner"`
	IsClient                   bool `json:"isClient"`
	IsStandardLibraryClient    bool `json:"isStandardLibraryClient"`
	IsTailCaller               bool `json:"isTailCaller"`
}

// Pattern describes one nanopattern of the catalogue.
type Pattern struct {
	Name        string // canonical field name
	Column      string // column name in the text report header
	Description string
	get         func(Result) bool
}

// Of returns the pattern's flag in r.
func (p Pattern) Of(r Result) bool { return p.get(r) }

// Patterns lists the catalogue in canonical order. The order is part of
// the report format and must not change.
var Patterns = []Pattern{
	{"noParams", "noparams", "takes no arguments", func(r Result) bool { return r.NoParams }},
	{"noReturn", "void", "returns void", func(r Result) bool { return r.NoReturn }},
	{"isRecursive", "recursive", "calls itself", func(r Result) bool { return r.IsRecursive }},
	{"isSameNameCaller", "samename", "calls another method with the same name", func(r Result) bool { return r.IsSameNameCaller }},
	{"isLeaf", "leaf", "issues no calls", func(r Result) bool { return r.IsLeaf }},
	{"isObjectCreator", "objCreator", "instantiates objects", func(r Result) bool { return r.IsObjectCreator }},
	{"isThisInstanceFieldReader", "thisInstanceFieldReader", "reads fields of this", func(r Result) bool { return r.IsThisInstanceFieldReader }},
	{"isThisInstanceFieldWriter", "thisInstanceFieldWriter", "writes fields of this", func(r Result) bool { return r.IsThisInstanceFieldWriter }},
	{"isOtherInstanceFieldReader", "otherInstanceFieldReader", "reads fields of other objects", func(r Result) bool { return r.IsOtherInstanceFieldReader }},
	{"isOtherInstanceFieldWriter", "otherInstanceFieldWriter", "writes fields of other objects", func(r Result) bool { return r.IsOtherInstanceFieldWriter }},
	{"isStaticFieldReader", "staticFieldReader", "reads static fields", func(r Result) bool { return r.IsStaticFieldReader }},
	{"isStaticFieldWriter", "staticFieldWriter", "writes static fields", func(r Result) bool { return r.IsStaticFieldWriter }},
	{"isTypeManipulator", "typeManipulator", "uses checkcast or instanceof", func(r Result) bool { return r.IsTypeManipulator }},
	{"isStraightLineCode", "straightLine", "has no branches or switches", func(r Result) bool { return r.IsStraightLineCode }},
	{"isLoopingCode", "looper", "has a backward jump", func(r Result) bool { return r.IsLoopingCode }},
	{"isSwitcher", "switcher", "has a switch", func(r Result) bool { return r.IsSwitcher }},
	{"throwsExceptions", "exceptions", "declares thrown exceptions", func(r Result) bool { return r.ThrowsExceptions }},
	{"isLocalVarReader", "localReader", "reads local variables", func(r Result) bool { return r.IsLocalVarReader }},
	{"isLocalVarWriter", "localWriter", "writes local variables", func(r Result) bool { return r.IsLocalVarWriter }},
	{"isArrayCreator", "arrCreator", "creates arrays", func(r Result) bool { return r.IsArrayCreator }},
	{"isArrayReader", "arrReader", "reads array elements", func(r Result) bool { return r.IsArrayReader }},
	{"isArrayWriter", "arrWriter", "writes array elements", func(r Result) bool { return r.IsArrayWriter }},
	{"isPolymorphic", "polymorphic", "calls interface or abstract methods", func(r Result) bool { return r.IsPolymorphic }},
	{"isSingleReturner", "singleReturner", "has exactly one return", func(r Result) bool { return r.IsSingleReturner }},
	{"isMultipleReturner", "multipleReturner", "has more than one return", func(r Result) bool { return r.IsMultipleReturner }},
	{"isClient", "client", "calls only through interfaces", func(r Result) bool { return r.IsClient }},
	{"isStandardLibraryClient", "jdkClient", "calls the standard library", func(r Result) bool { return r.IsStandardLibraryClient }},
	{"isTailCaller", "tailCaller", "returns a call result directly", func(r Result) bool { return r.IsTailCaller }},
}

// Flags returns the flags of r in canonical order.
func (r Result) Flags() []bool {
	flags := make([]bool, len(Patterns))
	for i, p := range Patterns {
		flags[i] = p.get(r)
	}
	return flags
}

// Map returns the flags keyed by canonical name.
func (r Result) Map() map[string]bool {
	m := make(map[string]bool, len(Patterns))
	for _, p := range Patterns {
		m[p.Name] = p.get(r)
	}
	return m
}

// Count returns how many patterns r exhibits.
func (r Result) Count() int {
	n := 0
	for _, p := range Patterns {
		if p.get(r) {
			n++
		}
	}
	return n
}

// PatternByName looks a pattern up by canonical or column name.
func PatternByName(name string) (Pattern, bool) {
	for _, p := range Patterns {
		if p.Name == name || p.Column == name {
			return p, true
		}
	}
	return Pattern{}, false
}
