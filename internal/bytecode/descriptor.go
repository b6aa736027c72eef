package bytecode

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadDescriptor is returned for malformed method or field descriptors.
var ErrBadDescriptor = errors.New("malformed descriptor")

// MethodType is a parsed method descriptor such as "(I[Ljava/lang/String;)V".
type MethodType struct {
	Params []string // field descriptors of the parameters
	Return string   // field descriptor of the result, "V" for void
}

// Void reports whether the method returns nothing.
func (t MethodType) Void() bool { return t.Return == "V" }

// ParseMethodDescriptor splits a method descriptor into its parameter and
// return field descriptors.
func ParseMethodDescriptor(desc string) (MethodType, error) {
	var t MethodType
	if !strings.HasPrefix(desc, "(") {
		return t, fmt.Errorf("%w: %q does not start with '('", ErrBadDescriptor, desc)
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		n, err := fieldDescriptorLen(desc[i:])
		if err != nil {
			return t, fmt.Errorf("%w: %q at %d", ErrBadDescriptor, desc, i)
		}
		t.Params = append(t.Params, desc[i:i+n])
		i += n
	}
	if i >= len(desc) {
		return t, fmt.Errorf("%w: %q has no ')'", ErrBadDescriptor, desc)
	}
	ret := desc[i+1:]
	if ret == "V" {
		t.Return = ret
		return t, nil
	}
	n, err := fieldDescriptorLen(ret)
	if err != nil || n != len(ret) {
		return t, fmt.Errorf("%w: %q has bad return type", ErrBadDescriptor, desc)
	}
	t.Return = ret
	return t, nil
}

// fieldDescriptorLen returns the length of the field descriptor at the
// start of s.
func fieldDescriptorLen(s string) (int, error) {
	dims := 0
	for dims < len(s) && s[dims] == '[' {
		dims++
	}
	if dims >= len(s) {
		return 0, ErrBadDescriptor
	}
	switch s[dims] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return dims + 1, nil
	case 'L':
		end := strings.IndexByte(s[dims:], ';')
		if end < 2 {
			return 0, ErrBadDescriptor
		}
		return dims + end + 1, nil
	}
	return 0, ErrBadDescriptor
}

// JavaName converts an internal class name ("java/lang/String") to its
// dotted form.
func JavaName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

// InternalName converts a dotted or backslash-separated class name to the
// internal form. A leading 'L' and trailing ';' of a descriptor are dropped.
func InternalName(name string) string {
	if strings.HasPrefix(name, "L") && strings.HasSuffix(name, ";") {
		name = name[1 : len(name)-1]
	}
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.ReplaceAll(name, ".", "/")
}
