package analysis

import (
	"log/slog"

	"nanopatterns/internal/bytecode"
)

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithStdlibPrefixes sets the owner-class prefixes that count as the
// standard library for isStandardLibraryClient.
func WithStdlibPrefixes(prefixes ...string) Option {
	return func(a *Analyzer) {
		a.stdlib = append([]string(nil), prefixes...)
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Analyzer runs every scanner over a method and assembles the Result.
// It holds no per-method state and may be shared between goroutines as
// long as its resolver is safe for concurrent use.
type Analyzer struct {
	resolver AbstractMethodResolver
	stdlib   []string
	logger   *slog.Logger
}

// NewAnalyzer creates an analyzer that asks resolver about virtual call
// targets. A nil resolver resolves nothing.
func NewAnalyzer(resolver AbstractMethodResolver, opts ...Option) *Analyzer {
	if resolver == nil {
		resolver = NoResolver
	}
	a := &Analyzer{
		resolver: resolver,
		stdlib:   DefaultStdlibPrefixes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze classifies one method. It returns false when the stream is
// empty (abstract or native methods): there is nothing to analyze, which
// is not an error.
func (a *Analyzer) Analyze(stream bytecode.Stream, facts MethodFacts) (Result, bool) {
	if len(stream) == 0 {
		return Result{}, false
	}

	rs := newRecursionScanner(facts)
	oas := newObjectAccessScanner()
	ts := &typeScanner{}
	cfs := newControlFlowScanner()
	las := &localArrayScanner{}
	ps := newPolymorphismScanner(a.resolver, a.logger)
	rets := &returnScanner{}
	css := newCallSiteScanner(a.stdlib)

	newObserverChain(rs, oas, ts, cfs, las, ps, rets, css).run(stream)

	r := Result{
		NoParams:                   facts.ParamCount == 0,
		NoReturn:                   facts.ReturnsVoid,
		IsRecursive:                rs.IsRecursive(),
		IsSameNameCaller:           rs.IsSameNameCaller(),
		IsLeaf:                     rs.IsLeaf(),
		IsObjectCreator:            oas.IsObjectCreator(),
		IsThisInstanceFieldReader:  oas.IsThisInstanceFieldReader(),
		IsThisInstanceFieldWriter:  oas.IsThisInstanceFieldWriter(),
		IsOtherInstanceFieldReader: oas.IsOtherInstanceFieldReader(),
		IsOtherInstanceFieldWriter: oas.IsOtherInstanceFieldWriter(),
		IsStaticFieldReader:        oas.IsStaticFieldReader(),
		IsStaticFieldWriter:        oas.IsStaticFieldWriter(),
		IsTypeManipulator:          ts.IsTypeManipulator(),
		IsStraightLineCode:         cfs.IsStraightLineCode(),
		IsLoopingCode:              cfs.IsLoopingCode(),
		IsSwitcher:                 cfs.IsSwitcher(),
		ThrowsExceptions:           facts.Exceptions > 0,
		IsLocalVarReader:           las.IsLocalVarReader(),
		IsLocalVarWriter:           las.IsLocalVarWriter(),
		IsArrayCreator:             las.IsArrayCreator(),
		IsArrayReader:              las.IsArrayReader(),
		IsArrayWriter:              las.IsArrayWriter(),
		IsPolymorphic:              ps.IsPolymorphic(),
		IsSingleReturner:           rets.IsSingleReturner(),
		IsMultipleReturner:         rets.IsMultipleReturner(),
		IsClient:                   css.IsClient(),
		IsStandardLibraryClient:    css.IsStandardLibraryClient(),
		IsTailCaller:               css.IsTailCaller(),
	}

	a.logger.Debug("analyzed method",
		"class", facts.Class, "method", facts.Name, "desc", facts.Descriptor,
		"instructions", len(stream), "patterns", r.Count(), "resolverQueries", ps.queries)
	return r, true
}

// Analyze classifies one method with default options.
func Analyze(stream bytecode.Stream, facts MethodFacts, resolver AbstractMethodResolver) (Result, bool) {
	return NewAnalyzer(resolver).Analyze(stream, facts)
}
