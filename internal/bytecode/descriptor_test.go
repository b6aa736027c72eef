package bytecode

import (
	"errors"
	"testing"
)

func TestParseMethodDescriptor(t *testing.T) {
	tests := []struct {
		name   string
		desc   string
		params []string
		ret    string
	}{
		{name: "no params void", desc: "()V", ret: "V"},
		{name: "single int", desc: "(I)I", params: []string{"I"}, ret: "I"},
		{name: "wide primitives", desc: "(JD)J", params: []string{"J", "D"}, ret: "J"},
		{name: "object and array", desc: "(Ljava/lang/String;[[I)[Ljava/lang/Object;",
			params: []string{"Ljava/lang/String;", "[[I"}, ret: "[Ljava/lang/Object;"},
		{name: "main", desc: "([Ljava/lang/String;)V", params: []string{"[Ljava/lang/String;"}, ret: "V"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt, err := ParseMethodDescriptor(tt.desc)
			if err != nil {
				t.Fatalf("ParseMethodDescriptor(%q) failed: %v", tt.desc, err)
			}
			if len(mt.Params) != len(tt.params) {
				t.Fatalf("got %d params %v, want %v", len(mt.Params), mt.Params, tt.params)
			}
			for i := range tt.params {
				if mt.Params[i] != tt.params[i] {
					t.Errorf("param %d = %q, want %q", i, mt.Params[i], tt.params[i])
				}
			}
			if mt.Return != tt.ret {
				t.Errorf("return = %q, want %q", mt.Return, tt.ret)
			}
			if mt.Void() != (tt.ret == "V") {
				t.Errorf("Void() = %v for return %q", mt.Void(), tt.ret)
			}
		})
	}
}

func TestParseMethodDescriptorErrors(t *testing.T) {
	for _, desc := range []string{"", "I", "(I", "(Q)V", "(Ljava/lang/String)V", "()", "()II", "([)V"} {
		if _, err := ParseMethodDescriptor(desc); !errors.Is(err, ErrBadDescriptor) {
			t.Errorf("ParseMethodDescriptor(%q) error = %v, want ErrBadDescriptor", desc, err)
		}
	}
}

func TestInternalName(t *testing.T) {
	tests := map[string]string{
		"java.lang.String":    "java/lang/String",
		"Ljava/util/List;":    "java/util/List",
		"com\\example\\Foo":   "com/example/Foo",
		"already/Internal":    "already/Internal",
	}
	for in, want := range tests {
		if got := InternalName(in); got != want {
			t.Errorf("InternalName(%q) = %q, want %q", in, got, want)
		}
	}
	if got := JavaName("java/lang/String"); got != "java.lang.String" {
		t.Errorf("JavaName = %q", got)
	}
}

func TestZeroOperand(t *testing.T) {
	tests := []struct {
		name string
		in   Inst
		want bool
	}{
		{"return", ReturnInst(), true},
		{"simple", SimpleInst(IADD), true},
		{"array read", ArrayAccess(ArrayRead), true},
		{"array write", ArrayAccess(ArrayWrite), true},
		{"array create", ArrayAccess(ArrayCreate), false},
		{"load", LoadVar(0), false},
		{"call", Invoke(Static, "a/B", "f", "()V"), false},
		{"label", Mark(1), false},
		{"other", OtherInst(BIPUSH), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.ZeroOperand(); got != tt.want {
				t.Errorf("ZeroOperand() = %v, want %v", got, tt.want)
			}
		})
	}
}
