package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bc "nanopatterns/internal/bytecode"
)

const (
	selfClass = "pkg/Self"
	selfName  = "run"
	selfDesc  = "()V"
)

var selfFacts = MethodFacts{
	Class:       selfClass,
	Name:        selfName,
	Descriptor:  selfDesc,
	ReturnsVoid: true,
}

func analyze(t *testing.T, stream bc.Stream) Result {
	t.Helper()
	r, ok := Analyze(stream, selfFacts, nil)
	require.True(t, ok, "expected a result for a non-empty stream")
	return r
}

func getField() bc.Inst { return bc.FieldAccess(bc.GetInstance, selfClass, "x", "I") }
func putField() bc.Inst { return bc.FieldAccess(bc.PutInstance, selfClass, "x", "I") }

func TestAnalyzeEmptyStream(t *testing.T) {
	r, ok := Analyze(nil, selfFacts, nil)
	assert.False(t, ok)
	assert.Equal(t, Result{}, r)

	_, ok = Analyze(bc.Stream{}, selfFacts, nil)
	assert.False(t, ok)
}

func TestAnalyzeFactsFlags(t *testing.T) {
	facts, err := FactsFor("a/B", "f", "(I)I", 1)
	require.NoError(t, err)

	r, ok := Analyze(bc.Stream{bc.ReturnInst()}, facts, nil)
	require.True(t, ok)
	assert.False(t, r.NoParams)
	assert.False(t, r.NoReturn)
	assert.True(t, r.ThrowsExceptions)

	facts, err = FactsFor("a/B", "g", "()V", 0)
	require.NoError(t, err)
	r, _ = Analyze(bc.Stream{bc.ReturnInst()}, facts, nil)
	assert.True(t, r.NoParams)
	assert.True(t, r.NoReturn)
	assert.False(t, r.ThrowsExceptions)

	_, err = FactsFor("a/B", "h", "(X)V", 0)
	assert.True(t, errors.Is(err, bc.ErrBadDescriptor))
}

func TestLeafMethodHasNoCallPatterns(t *testing.T) {
	r := analyze(t, bc.Stream{bc.LoadVar(1), bc.StoreVar(2), bc.ReturnInst()})

	assert.True(t, r.IsLeaf)
	assert.False(t, r.IsRecursive)
	assert.False(t, r.IsSameNameCaller)
	assert.False(t, r.IsTailCaller)
	assert.False(t, r.IsClient)
	assert.False(t, r.IsStandardLibraryClient)
	assert.False(t, r.IsPolymorphic)
	assert.True(t, r.IsLocalVarReader)
	assert.True(t, r.IsLocalVarWriter)
	assert.True(t, r.IsStraightLineCode)
	assert.True(t, r.IsSingleReturner)
}

func TestFieldAccess(t *testing.T) {
	tests := []struct {
		name       string
		stream     bc.Stream
		ownRead    bool
		otherRead  bool
		ownWrite   bool
		otherWrite bool
	}{
		{
			name:    "receiver load then getfield",
			stream:  bc.Stream{bc.LoadVar(0), getField()},
			ownRead: true,
		},
		{
			name:      "other local then getfield",
			stream:    bc.Stream{bc.LoadVar(1), getField()},
			otherRead: true,
		},
		{
			name:      "getfield without any load",
			stream:    bc.Stream{getField()},
			otherRead: true,
		},
		{
			name:     "receiver, value, putfield",
			stream:   bc.Stream{bc.LoadVar(0), bc.LoadVar(1), putField()},
			ownWrite: true,
		},
		{
			name:       "receiver then putfield directly",
			stream:     bc.Stream{bc.LoadVar(0), putField()},
			otherWrite: true,
		},
		{
			name:       "receiver, two values, putfield",
			stream:     bc.Stream{bc.LoadVar(0), bc.LoadVar(1), bc.SimpleInst(bc.ICONST_1), putField()},
			otherWrite: true,
		},
		{
			name:      "store to slot 0 does not reset",
			stream:    bc.Stream{bc.StoreVar(0), getField()},
			otherRead: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := analyze(t, tt.stream)
			assert.Equal(t, tt.ownRead, r.IsThisInstanceFieldReader, "this reader")
			assert.Equal(t, tt.otherRead, r.IsOtherInstanceFieldReader, "other reader")
			assert.Equal(t, tt.ownWrite, r.IsThisInstanceFieldWriter, "this writer")
			assert.Equal(t, tt.otherWrite, r.IsOtherInstanceFieldWriter, "other writer")
		})
	}
}

// The receiver distance only advances on field, local variable and
// zero-operand instructions. These cases pin that coverage.
func TestReceiverDistanceCoverage(t *testing.T) {
	tests := []struct {
		name     string
		between  bc.Inst
		advances bool
	}{
		{"label", bc.Mark(7), false},
		{"jump", bc.JumpTo(7), false},
		{"switch", bc.SwitchInst(bc.TableSwitch), false},
		{"call", bc.Invoke(bc.Virtual, "a/B", "f", "()La/B;"), false},
		{"new", bc.ObjectInst(bc.New, "a/B"), false},
		{"checkcast", bc.ObjectInst(bc.CheckCast, "a/B"), false},
		{"ldc", bc.OtherInst(bc.LDC), false},
		{"array create", bc.ArrayAccess(bc.ArrayCreate), false},
		{"dup", bc.SimpleInst(bc.DUP), true},
		{"array read", bc.ArrayAccess(bc.ArrayRead), true},
		{"array write", bc.ArrayAccess(bc.ArrayWrite), true},
		{"local load", bc.LoadVar(3), true},
		{"ret", bc.RetVar(0), true},
		{"static field", bc.FieldAccess(bc.GetStatic, "a/B", "s", "I"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := analyze(t, bc.Stream{bc.LoadVar(0), tt.between, getField()})
			assert.Equal(t, !tt.advances, r.IsThisInstanceFieldReader, "this reader")
			assert.Equal(t, tt.advances, r.IsOtherInstanceFieldReader, "other reader")
		})
	}
}

func TestRetIsNotLocalVarTraffic(t *testing.T) {
	r := analyze(t, bc.Stream{bc.RetVar(1)})
	assert.False(t, r.IsLocalVarReader)
	assert.False(t, r.IsLocalVarWriter)
}

func TestStaticAndObjectFlags(t *testing.T) {
	r := analyze(t, bc.Stream{
		bc.FieldAccess(bc.GetStatic, "a/B", "s", "I"),
		bc.FieldAccess(bc.PutStatic, "a/B", "s", "I"),
		bc.ObjectInst(bc.New, "a/B"),
		bc.ObjectInst(bc.InstanceOf, "a/C"),
		bc.ReturnInst(),
	})
	assert.True(t, r.IsStaticFieldReader)
	assert.True(t, r.IsStaticFieldWriter)
	assert.True(t, r.IsObjectCreator)
	assert.True(t, r.IsTypeManipulator)
	assert.False(t, r.IsThisInstanceFieldReader)
	assert.False(t, r.IsOtherInstanceFieldReader)

	r = analyze(t, bc.Stream{bc.ObjectInst(bc.CheckCast, "a/C"), bc.ReturnInst()})
	assert.True(t, r.IsTypeManipulator)
	assert.False(t, r.IsObjectCreator)
}

func TestArrayFlags(t *testing.T) {
	r := analyze(t, bc.Stream{
		bc.ArrayAccess(bc.ArrayCreate),
		bc.ArrayAccess(bc.ArrayRead),
		bc.ReturnInst(),
	})
	assert.True(t, r.IsArrayCreator)
	assert.True(t, r.IsArrayReader)
	assert.False(t, r.IsArrayWriter)

	r = analyze(t, bc.Stream{bc.ArrayAccess(bc.ArrayWrite)})
	assert.True(t, r.IsArrayWriter)
	assert.False(t, r.IsArrayCreator)
}

func TestRecursion(t *testing.T) {
	tests := []struct {
		name      string
		call      bc.Inst
		recursive bool
		sameName  bool
	}{
		{"self call", bc.Invoke(bc.Virtual, selfClass, selfName, selfDesc), true, false},
		{"same name other class", bc.Invoke(bc.Static, "other/C", selfName, selfDesc), false, true},
		{"same name other descriptor", bc.Invoke(bc.Virtual, selfClass, selfName, "(I)V"), false, true},
		{"unrelated call", bc.Invoke(bc.Static, selfClass, "other", selfDesc), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := analyze(t, bc.Stream{tt.call, bc.ReturnInst()})
			assert.Equal(t, tt.recursive, r.IsRecursive)
			assert.Equal(t, tt.sameName, r.IsSameNameCaller)
			assert.False(t, r.IsLeaf)
		})
	}
}

func TestControlFlow(t *testing.T) {
	tests := []struct {
		name     string
		stream   bc.Stream
		straight bool
		looping  bool
		switcher bool
	}{
		{
			name:     "no branches",
			stream:   bc.Stream{bc.LoadVar(1), bc.ReturnInst()},
			straight: true,
		},
		{
			name:    "jump to earlier label",
			stream:  bc.Stream{bc.Mark(1), bc.LoadVar(1), bc.JumpTo(1)},
			looping: true,
		},
		{
			name:   "jump to later label",
			stream: bc.Stream{bc.JumpTo(1), bc.LoadVar(1), bc.Mark(1), bc.ReturnInst()},
		},
		{
			name:   "jump to a label never seen",
			stream: bc.Stream{bc.JumpTo(42), bc.ReturnInst()},
		},
		{
			name:     "switch only",
			stream:   bc.Stream{bc.SwitchInst(bc.LookupSwitch), bc.Mark(2), bc.ReturnInst()},
			switcher: true,
		},
		{
			name:     "labels alone keep straight line",
			stream:   bc.Stream{bc.Mark(1), bc.Mark(1), bc.ReturnInst()},
			straight: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := analyze(t, tt.stream)
			assert.Equal(t, tt.straight, r.IsStraightLineCode, "straight line")
			assert.Equal(t, tt.looping, r.IsLoopingCode, "looping")
			assert.Equal(t, tt.switcher, r.IsSwitcher, "switcher")
			assert.False(t, r.IsStraightLineCode && r.IsLoopingCode)
		})
	}
}

func TestReturnCount(t *testing.T) {
	tests := []struct {
		name     string
		stream   bc.Stream
		single   bool
		multiple bool
	}{
		{"always throws", bc.Stream{bc.SimpleInst(bc.ATHROW)}, false, false},
		{"one return", bc.Stream{bc.ReturnInst()}, true, false},
		{"two returns", bc.Stream{bc.ReturnInst(), bc.Mark(1), bc.ReturnInst()}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := analyze(t, tt.stream)
			assert.Equal(t, tt.single, r.IsSingleReturner)
			assert.Equal(t, tt.multiple, r.IsMultipleReturner)
		})
	}
}

func TestTailCalls(t *testing.T) {
	call := bc.Invoke(bc.Static, "a/B", "f", "()I")
	tests := []struct {
		name   string
		stream bc.Stream
		tail   bool
	}{
		{"call then return", bc.Stream{call, bc.ReturnInst()}, true},
		{"call, pop, return", bc.Stream{call, bc.SimpleInst(bc.POP), bc.ReturnInst()}, false},
		{"call, array read, return", bc.Stream{call, bc.ArrayAccess(bc.ArrayRead), bc.ReturnInst()}, false},
		{"return without call", bc.Stream{bc.ReturnInst()}, false},
		// Instructions outside the call and zero-operand categories do not
		// clear the pending call, so these are reported as tail calls.
		{"call, store, load, return", bc.Stream{call, bc.StoreVar(1), bc.LoadVar(1), bc.ReturnInst()}, true},
		{"call, label, return", bc.Stream{call, bc.Mark(3), bc.ReturnInst()}, true},
		{"call, goto, return", bc.Stream{call, bc.JumpTo(9), bc.ReturnInst()}, true},
		{"call, ldc, return", bc.Stream{call, bc.OtherInst(bc.LDC), bc.ReturnInst()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := analyze(t, tt.stream)
			assert.Equal(t, tt.tail, r.IsTailCaller)
		})
	}
}

func TestClientAndStdlib(t *testing.T) {
	iface := bc.Invoke(bc.Interface, "java/util/List", "size", "()I")
	virt := bc.Invoke(bc.Virtual, "com/acme/Widget", "size", "()I")

	r := analyze(t, bc.Stream{iface, iface, bc.ReturnInst()})
	assert.True(t, r.IsClient)
	assert.True(t, r.IsStandardLibraryClient)
	assert.True(t, r.IsPolymorphic)

	r = analyze(t, bc.Stream{iface, virt, bc.ReturnInst()})
	assert.False(t, r.IsClient)

	r = analyze(t, bc.Stream{virt, bc.ReturnInst()})
	assert.False(t, r.IsClient)
	assert.False(t, r.IsStandardLibraryClient)

	r = analyze(t, bc.Stream{bc.Invoke(bc.Static, "com/javaworld/Util", "f", "()V"), bc.ReturnInst()})
	assert.False(t, r.IsStandardLibraryClient, "namespace is matched by prefix")

	custom := NewAnalyzer(nil, WithStdlibPrefixes("com/acme/"))
	r, ok := custom.Analyze(bc.Stream{virt, bc.ReturnInst()}, selfFacts)
	require.True(t, ok)
	assert.True(t, r.IsStandardLibraryClient)
}

type countingResolver struct {
	abstract map[string]bool
	queries  []string
}

func (c *countingResolver) IsAbstract(class, name, desc string) (bool, error) {
	key := class + "." + name + desc
	c.queries = append(c.queries, key)
	abstract, ok := c.abstract[key]
	if !ok {
		return false, ErrUnresolvable
	}
	return abstract, nil
}

func TestPolymorphism(t *testing.T) {
	v1 := bc.Invoke(bc.Virtual, "a/Concrete", "f", "()V")
	v2 := bc.Invoke(bc.Virtual, "a/Shape", "area", "()D")
	v3 := bc.Invoke(bc.Virtual, "a/Other", "g", "()V")

	t.Run("abstract callee stops further queries", func(t *testing.T) {
		res := &countingResolver{abstract: map[string]bool{
			"a/Concrete.f()V": false,
			"a/Shape.area()D": true,
			"a/Other.g()V":    false,
		}}
		r, ok := NewAnalyzer(res).Analyze(bc.Stream{v1, v2, v3, bc.ReturnInst()}, selfFacts)
		require.True(t, ok)
		assert.True(t, r.IsPolymorphic)
		assert.Equal(t, []string{"a/Concrete.f()V", "a/Shape.area()D"}, res.queries)
	})

	t.Run("unresolvable everywhere", func(t *testing.T) {
		res := &countingResolver{}
		r, ok := NewAnalyzer(res).Analyze(bc.Stream{v1, v2, v3, bc.ReturnInst()}, selfFacts)
		require.True(t, ok)
		assert.False(t, r.IsPolymorphic)
		assert.Len(t, res.queries, 3)
	})

	t.Run("interface call needs no resolver", func(t *testing.T) {
		res := &countingResolver{}
		iface := bc.Invoke(bc.Interface, "a/Iface", "f", "()V")
		r, ok := NewAnalyzer(res).Analyze(bc.Stream{iface, v1, bc.ReturnInst()}, selfFacts)
		require.True(t, ok)
		assert.True(t, r.IsPolymorphic)
		assert.Empty(t, res.queries)
	})

	t.Run("static and special calls are never resolved", func(t *testing.T) {
		res := &countingResolver{}
		r, ok := NewAnalyzer(res).Analyze(bc.Stream{
			bc.Invoke(bc.Static, "a/B", "f", "()V"),
			bc.Invoke(bc.Special, "a/B", "<init>", "()V"),
			bc.ReturnInst(),
		}, selfFacts)
		require.True(t, ok)
		assert.False(t, r.IsPolymorphic)
		assert.Empty(t, res.queries)
	})

	t.Run("resolver func adapter", func(t *testing.T) {
		resolver := ResolverFunc(func(class, name, desc string) (bool, error) {
			return class == "a/Concrete", nil
		})
		r, _ := Analyze(bc.Stream{v1}, selfFacts, resolver)
		assert.True(t, r.IsPolymorphic)
	})
}

func TestPatternCatalogue(t *testing.T) {
	require.Len(t, Patterns, 28)

	seen := make(map[string]bool)
	for _, p := range Patterns {
		assert.False(t, seen[p.Name], "duplicate pattern %s", p.Name)
		seen[p.Name] = true
		assert.NotEmpty(t, p.Column)
		assert.NotEmpty(t, p.Description)
	}

	assert.Equal(t, "noParams", Patterns[0].Name)
	assert.Equal(t, "isTailCaller", Patterns[27].Name)

	r := Result{NoReturn: true, IsTailCaller: true}
	flags := r.Flags()
	assert.True(t, flags[1])
	assert.True(t, flags[27])
	assert.Equal(t, 2, r.Count())
	assert.True(t, r.Map()["isTailCaller"])

	p, ok := PatternByName("jdkClient")
	require.True(t, ok)
	assert.Equal(t, "isStandardLibraryClient", p.Name)
	_, ok = PatternByName("nope")
	assert.False(t, ok)
}
