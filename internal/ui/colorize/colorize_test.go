package colorize

import (
	"strings"
	"testing"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tok struct {
	typ   chroma.TokenType
	value string
}

func tokens(t *testing.T, line string) []tok {
	t.Helper()
	it, err := JVMBytecode.Tokenise(nil, line)
	require.NoError(t, err)
	var out []tok
	for _, tk := range it.Tokens() {
		if tk.Type == chroma.Text && strings.TrimSpace(tk.Value) == "" {
			continue
		}
		out = append(out, tok{tk.Type, tk.Value})
	}
	return out
}

func TestLexer(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []tok
	}{
		{
			name: "label",
			line: "L12:",
			want: []tok{{chroma.NameLabel, "L12:"}},
		},
		{
			name: "call",
			line: "    4  invokevirtual geo/Shape.area()D",
			want: []tok{
				{chroma.LiteralNumberInteger, "4"},
				{chroma.KeywordReserved, "invokevirtual"},
				{chroma.NameClass, "geo/Shape"},
				{chroma.Punctuation, "."},
				{chroma.NameFunction, "area"},
				{chroma.KeywordType, "()D"},
			},
		},
		{
			name: "constructor",
			line: "1 invokespecial java/lang/Object.<init>()V",
			want: []tok{
				{chroma.LiteralNumberInteger, "1"},
				{chroma.KeywordReserved, "invokespecial"},
				{chroma.NameClass, "java/lang/Object"},
				{chroma.Punctuation, "."},
				{chroma.NameFunction, "<init>"},
				{chroma.KeywordType, "()V"},
			},
		},
		{
			name: "field",
			line: "7 getfield app/Main.count:I",
			want: []tok{
				{chroma.LiteralNumberInteger, "7"},
				{chroma.Keyword, "getfield"},
				{chroma.NameClass, "app/Main"},
				{chroma.Punctuation, "."},
				{chroma.NameFunction, "count"},
				{chroma.KeywordType, ":I"},
			},
		},
		{
			name: "jump",
			line: "9 goto L2",
			want: []tok{
				{chroma.LiteralNumberInteger, "9"},
				{chroma.KeywordReserved, "goto"},
				{chroma.NameLabel, "L2"},
			},
		},
		{
			name: "local",
			line: "0 aload 0",
			want: []tok{
				{chroma.LiteralNumberInteger, "0"},
				{chroma.Keyword, "aload"},
				{chroma.LiteralNumberInteger, "0"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokens(t, tt.line))
		})
	}
}

func TestLexerRegistered(t *testing.T) {
	assert.Equal(t, JVMBytecode, lexers.Get("jvm-bytecode"))
}

func TestListing(t *testing.T) {
	const code = "L0:\n    0  aload 0\n    1  areturn"

	t.Setenv("NANOPATTERNS_NO_COLOR", "1")
	plain, err := Listing(code)
	require.NoError(t, err)
	assert.Equal(t, code, plain)
	assert.Equal(t, "0 aload 0", Line("0 aload 0"))

	t.Setenv("NANOPATTERNS_NO_COLOR", "")
	colored, err := Listing(code)
	require.NoError(t, err)
	assert.Contains(t, colored, "\x1b[")
	assert.Equal(t, code, StripANSI(colored))
}
