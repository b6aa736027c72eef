package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// JVMBytecode tokenizes listings produced by the disasm command:
// an offset column, labels, mnemonics and symbolic member references.
var JVMBytecode = lexers.Register(chroma.MustNewLexer(
	&chroma.Config{
		Name:      "JVM bytecode",
		Aliases:   []string{"jvm-bytecode", "jvmasm"},
		MimeTypes: []string{"text/x-jvm-bytecode"},
		EnsureNL:  true,
	},
	func() chroma.Rules {
		return chroma.Rules{
			"root": {
				{Pattern: `\s+`, Type: chroma.Text},
				{Pattern: `L\d+:?`, Type: chroma.NameLabel},
				{Pattern: `-?\d+`, Type: chroma.LiteralNumberInteger},
				{Pattern: `\([^)\s]*\)\S*`, Type: chroma.KeywordType},
				{Pattern: `:\S+`, Type: chroma.KeywordType},
				{Pattern: `[\w$]+(?:/[\w$]+)+`, Type: chroma.NameClass},
				{Pattern: `(\.)(<?[\w$]+>?)`, Type: chroma.ByGroups(chroma.Punctuation, chroma.NameFunction)},
				{Pattern: `(?:invoke\w*|[ilfda]?return|athrow|goto\w*|if\w*|jsr\w*|tableswitch|lookupswitch)\b`, Type: chroma.KeywordReserved},
				{Pattern: `[a-z][a-z0-9_]*`, Type: chroma.Keyword},
				{Pattern: `[\w$]+`, Type: chroma.NameClass},
				{Pattern: `.`, Type: chroma.Text},
			},
		}
	},
))
