package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nanopatterns/internal/analysis"
	"nanopatterns/internal/scan"
)

const wantHeader = "class method typesig numInstrs noparams void recursive samename leaf objCreator " +
	"thisInstanceFieldReader thisInstanceFieldWriter otherInstanceFieldReader otherInstanceFieldWriter " +
	"staticFieldReader staticFieldWriter typeManipulator straightLine looper switcher exceptions " +
	"localReader localWriter arrCreator arrReader arrWriter polymorphic singleReturner multipleReturner " +
	"client jdkClient tailCaller"

func sampleMethods() []scan.MethodReport {
	return []scan.MethodReport{
		{
			Class: "pkg/A", Method: "<init>", Descriptor: "()V", Instructions: 3,
			Result: analysis.Result{
				NoParams: true, NoReturn: true, IsStraightLineCode: true, IsLocalVarReader: true,
				IsSingleReturner: true, IsStandardLibraryClient: true, IsTailCaller: true,
			},
		},
		{
			Class: "pkg/A", Method: "get", Descriptor: "(I)I", Instructions: 2,
			Result: analysis.Result{IsLeaf: true, IsStraightLineCode: true, IsLocalVarReader: true, IsSingleReturner: true},
		},
	}
}

func TestHeader(t *testing.T) {
	assert.Equal(t, wantHeader, Header())
	assert.Len(t, strings.Fields(Header()), 4+len(analysis.Patterns))
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleMethods()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, wantHeader, lines[0])
	assert.Equal(t, "pkg/A <init> ()V 3 1 1 0 0 0 0 0 0 0 0 0 0 0 1 0 0 0 1 0 0 0 0 0 1 0 0 1 1", lines[1])
	assert.Equal(t, "pkg/A get (I)I 2 0 0 0 0 1 0 0 0 0 0 0 0 0 1 0 0 0 1 0 0 0 0 0 1 0 0 0 0", lines[2])

	for _, line := range lines[1:] {
		assert.Len(t, strings.Fields(line), len(strings.Fields(lines[0])))
	}
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, nil))
	assert.Equal(t, wantHeader+"\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleMethods()))

	var got []struct {
		Class        string          `json:"class"`
		Method       string          `json:"method"`
		Descriptor   string          `json:"descriptor"`
		Instructions int             `json:"instructions"`
		Patterns     map[string]bool `json:"patterns"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "<init>", got[0].Method)
	assert.Equal(t, 3, got[0].Instructions)
	assert.Len(t, got[0].Patterns, len(analysis.Patterns))
	assert.True(t, got[0].Patterns["isTailCaller"])
	assert.False(t, got[0].Patterns["isLeaf"])
	assert.True(t, got[1].Patterns["isLeaf"])

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestTally(t *testing.T) {
	counts := Tally(sampleMethods())
	require.Len(t, counts, len(analysis.Patterns))

	byName := map[string]PatternCount{}
	for _, c := range counts {
		byName[c.Pattern.Name] = c
	}
	assert.Equal(t, 2, byName["isStraightLineCode"].Methods)
	assert.InDelta(t, 100.0, byName["isStraightLineCode"].Percent, 1e-9)
	assert.Equal(t, 1, byName["isLeaf"].Methods)
	assert.InDelta(t, 50.0, byName["isLeaf"].Percent, 1e-9)
	assert.Zero(t, byName["isSwitcher"].Methods)

	for _, c := range Tally(nil) {
		assert.Zero(t, c.Percent)
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(&scan.Report{
		Methods:  sampleMethods(),
		Classes:  1,
		Bodiless: 4,
		Failed:   []scan.Failure{{Path: "bad/X.class", Err: errors.New("not a class file")}},
	})
	assert.Contains(t, md, "**2** methods in **1** classes, 4 without code.")
	assert.Contains(t, md, "| `leaf` | 1 | 50.0% | issues no calls |")
	assert.Contains(t, md, "| `straightLine` | 2 | 100.0% |")
	assert.Contains(t, md, "## Skipped (1)")
	assert.Contains(t, md, "- `bad/X.class`: not a class file")

	assert.NotContains(t, Markdown(&scan.Report{}), "Skipped")
}

func TestRenderSummary(t *testing.T) {
	out, err := RenderSummary(&scan.Report{Methods: sampleMethods(), Classes: 1}, 100)
	require.NoError(t, err)
	assert.Contains(t, out, "Nanopatterns")
	assert.Contains(t, out, "tailCaller")
}
