package analysis

import (
	"log/slog"
	"strings"

	"nanopatterns/internal/bytecode"
)

// recursionScanner compares every call against the enclosing method.
type recursionScanner struct {
	class, name, desc string

	calls          int
	recursive      bool
	sameNameCaller bool
}

func newRecursionScanner(facts MethodFacts) *recursionScanner {
	return &recursionScanner{class: facts.Class, name: facts.Name, desc: facts.Descriptor}
}

func (s *recursionScanner) observe(in bytecode.Inst) {
	if in.Kind != bytecode.KindCall {
		return
	}
	s.calls++
	switch {
	case in.Owner == s.class && in.Name == s.name && in.Desc == s.desc:
		s.recursive = true
	case in.Name == s.name:
		s.sameNameCaller = true
	}
}

func (s *recursionScanner) IsRecursive() bool      { return s.recursive }
func (s *recursionScanner) IsSameNameCaller() bool { return s.sameNameCaller }
func (s *recursionScanner) IsLeaf() bool           { return s.calls == 0 }

// callSiteScanner looks at how a method calls out.
//
// Tail calls are found by remembering that the previous observed
// instruction was a call. Only zero-operand instructions clear that
// memory; loads, stores, jumps and other operand-carrying instructions
// between a call and a return do not, so "invoke; istore; return" reports
// a tail call. This imprecision is inherited from the classic tool.
type callSiteScanner struct {
	stdlib []string

	calls          int
	interfaceCalls int
	lastWasCall    bool
	tailCaller     bool
	stdlibClient   bool
}

func newCallSiteScanner(stdlib []string) *callSiteScanner {
	return &callSiteScanner{stdlib: stdlib}
}

func (s *callSiteScanner) observe(in bytecode.Inst) {
	switch {
	case in.Kind == bytecode.KindCall:
		s.calls++
		if in.Call == bytecode.Interface {
			s.interfaceCalls++
		}
		s.lastWasCall = true
		if s.isStdlib(in.Owner) {
			s.stdlibClient = true
		}
	case in.ZeroOperand():
		if in.IsReturn() && s.lastWasCall {
			s.tailCaller = true
		}
		s.lastWasCall = false
	}
}

func (s *callSiteScanner) isStdlib(owner string) bool {
	for _, p := range s.stdlib {
		if strings.HasPrefix(owner, p) {
			return true
		}
	}
	return false
}

func (s *callSiteScanner) IsClient() bool {
	return s.interfaceCalls > 0 && s.interfaceCalls == s.calls
}

func (s *callSiteScanner) IsStandardLibraryClient() bool { return s.stdlibClient }
func (s *callSiteScanner) IsTailCaller() bool            { return s.tailCaller }

// polymorphismScanner flags calls that dispatch through an interface or
// to an abstract method. Resolution is the costly part, so once the
// method is known to be polymorphic no further queries are made.
type polymorphismScanner struct {
	resolver    AbstractMethodResolver
	logger      *slog.Logger
	polymorphic bool
	queries     int
}

func newPolymorphismScanner(resolver AbstractMethodResolver, logger *slog.Logger) *polymorphismScanner {
	if resolver == nil {
		resolver = NoResolver
	}
	return &polymorphismScanner{resolver: resolver, logger: logger}
}

func (s *polymorphismScanner) observe(in bytecode.Inst) {
	if in.Kind != bytecode.KindCall {
		return
	}
	switch in.Call {
	case bytecode.Interface:
		s.polymorphic = true
	case bytecode.Virtual:
		if s.polymorphic {
			return
		}
		s.queries++
		abstract, err := s.resolver.IsAbstract(in.Owner, in.Name, in.Desc)
		if err != nil {
			// Unresolvable callees are treated as concrete.
			s.logger.Debug("abstract check failed",
				"owner", in.Owner, "method", in.Name, "desc", in.Desc, "error", err)
			return
		}
		if abstract {
			s.polymorphic = true
		}
	}
}

func (s *polymorphismScanner) IsPolymorphic() bool { return s.polymorphic }
