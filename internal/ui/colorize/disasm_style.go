package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// BytecodeDark is the style for bytecode listings.
var BytecodeDark = styles.Register(chroma.MustNewStyle("bytecode-dark", chroma.StyleEntries{
	chroma.Text:       "#FFFFFF",
	chroma.Background: "bg:#1e1e1e",

	chroma.Keyword:         "#FFFFFF", // mnemonics
	chroma.KeywordReserved: "#FF79C6", // control transfer
	chroma.KeywordType:     "#7C9C9D", // descriptors

	chroma.LiteralNumberInteger: "#4F4F4F", // offsets and slots

	chroma.NameLabel:    "#FFD700",
	chroma.NameClass:    "#EACD53",
	chroma.NameFunction: "#8BE9FD",

	chroma.Punctuation: "#FFFFFF",
}))
