// Package classfile decodes JVM class files into the instruction streams
// the pattern scanners consume, and resolves classes from a classpath.
package classfile

import (
	"errors"
	"fmt"
	"strings"

	"nanopatterns/internal/bytecode"
)

var (
	ErrNotClassFile  = errors.New("not a class file")
	ErrTruncated     = errors.New("truncated class file")
	ErrClassNotFound = errors.New("class not found")
	ErrBadCode       = errors.New("malformed code attribute")
)

const magic = 0xcafebabe

// Access flags, JVMS tables 4.1-B and 4.6-A.
const (
	AccPublic       = 0x0001
	AccPrivate      = 0x0002
	AccProtected    = 0x0004
	AccStatic       = 0x0008
	AccFinal        = 0x0010
	AccSynchronized = 0x0020
	AccBridge       = 0x0040
	AccVarargs      = 0x0080
	AccNative       = 0x0100
	AccInterface    = 0x0200
	AccAbstract     = 0x0400
	AccStrict       = 0x0800
	AccSynthetic    = 0x1000
)

var methodFlagNames = []struct {
	flag uint16
	name string
}{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccSynchronized, "synchronized"},
	{AccBridge, "bridge"},
	{AccVarargs, "varargs"},
	{AccNative, "native"},
	{AccAbstract, "abstract"},
	{AccStrict, "strict"},
	{AccSynthetic, "synthetic"},
}

// Class is a decoded class file. Method bodies are decoded on demand.
type Class struct {
	Name       string // internal name, e.g. java/lang/String
	Super      string // empty for java/lang/Object and module-info
	Interfaces []string
	Access     uint16
	Major      uint16
	Minor      uint16
	Methods    []*Method

	pool constantPool
}

// IsInterface reports whether the class is an interface.
func (c *Class) IsInterface() bool { return c.Access&AccInterface != 0 }

// Method returns the method with the given name and descriptor.
func (c *Class) Method(name, desc string) (*Method, bool) {
	for _, m := range c.Methods {
		if m.Name == name && m.Desc == desc {
			return m, true
		}
	}
	return nil, false
}

// MethodsNamed returns every overload of name.
func (c *Class) MethodsNamed(name string) []*Method {
	var out []*Method
	for _, m := range c.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// Method is one method_info entry.
type Method struct {
	Class      string
	Access     uint16
	Name       string
	Desc       string
	Exceptions []string // declared throws clause

	code *codeAttribute
	pool constantPool
}

// IsAbstract reports whether the method is declared abstract.
func (m *Method) IsAbstract() bool { return m.Access&AccAbstract != 0 }

// HasCode reports whether the method carries a Code attribute.
func (m *Method) HasCode() bool { return m.code != nil }

// Flags renders the access flags as javap-style keywords.
func (m *Method) Flags() string {
	var parts []string
	for _, f := range methodFlagNames {
		if m.Access&f.flag != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, " ")
}

// Decode returns the method body as an instruction stream. Methods without
// code decode to an empty stream.
func (m *Method) Decode() (bytecode.Stream, error) {
	if m.code == nil {
		return nil, nil
	}
	s, err := decodeCode(m.code, m.pool)
	if err != nil {
		return nil, fmt.Errorf("%s.%s%s: %w", m.Class, m.Name, m.Desc, err)
	}
	return s, nil
}

// Parse decodes a class file.
func Parse(data []byte) (*Class, error) {
	r := newReader(data)
	mg, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotClassFile, err)
	}
	if mg != magic {
		return nil, fmt.Errorf("%w: bad magic 0x%08x", ErrNotClassFile, mg)
	}
	c := &Class{}
	if c.Minor, err = r.u16(); err != nil {
		return nil, err
	}
	if c.Major, err = r.u16(); err != nil {
		return nil, err
	}
	if c.pool, err = readConstantPool(r); err != nil {
		return nil, err
	}
	if c.Access, err = r.u16(); err != nil {
		return nil, err
	}

	this, err := r.u16()
	if err != nil {
		return nil, err
	}
	if c.Name, err = c.pool.className(this); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	super, err := r.u16()
	if err != nil {
		return nil, err
	}
	if super != 0 {
		if c.Super, err = c.pool.className(super); err != nil {
			return nil, fmt.Errorf("super_class: %w", err)
		}
	}

	n, err := r.u16()
	if err != nil {
		return nil, err
	}
	for range n {
		idx, err := r.u16()
		if err != nil {
			return nil, err
		}
		name, err := c.pool.className(idx)
		if err != nil {
			return nil, fmt.Errorf("interface: %w", err)
		}
		c.Interfaces = append(c.Interfaces, name)
	}

	// Fields are skipped; nothing downstream looks at them.
	if n, err = r.u16(); err != nil {
		return nil, err
	}
	for range n {
		if err := r.skip(6); err != nil {
			return nil, err
		}
		if err := skipAttributes(r); err != nil {
			return nil, err
		}
	}

	if n, err = r.u16(); err != nil {
		return nil, err
	}
	for range n {
		m, err := c.readMethod(r)
		if err != nil {
			return nil, err
		}
		c.Methods = append(c.Methods, m)
	}
	return c, nil
}

func (c *Class) readMethod(r *reader) (*Method, error) {
	m := &Method{Class: c.Name, pool: c.pool}
	var err error
	if m.Access, err = r.u16(); err != nil {
		return nil, err
	}
	nameIdx, err := r.u16()
	if err != nil {
		return nil, err
	}
	descIdx, err := r.u16()
	if err != nil {
		return nil, err
	}
	if m.Name, err = c.pool.utf8(nameIdx); err != nil {
		return nil, fmt.Errorf("method name: %w", err)
	}
	if m.Desc, err = c.pool.utf8(descIdx); err != nil {
		return nil, fmt.Errorf("method %s descriptor: %w", m.Name, err)
	}

	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	for range count {
		name, body, err := c.readAttribute(r)
		if err != nil {
			return nil, fmt.Errorf("method %s%s: %w", m.Name, m.Desc, err)
		}
		switch name {
		case "Code":
			if m.code, err = parseCodeAttribute(body); err != nil {
				return nil, fmt.Errorf("method %s%s: %w", m.Name, m.Desc, err)
			}
		case "Exceptions":
			if m.Exceptions, err = c.parseExceptions(body); err != nil {
				return nil, fmt.Errorf("method %s%s: %w", m.Name, m.Desc, err)
			}
		}
	}
	return m, nil
}

func (c *Class) readAttribute(r *reader) (string, []byte, error) {
	nameIdx, err := r.u16()
	if err != nil {
		return "", nil, err
	}
	length, err := r.u32()
	if err != nil {
		return "", nil, err
	}
	body, err := r.bytes(int(length))
	if err != nil {
		return "", nil, err
	}
	name, err := c.pool.utf8(nameIdx)
	if err != nil {
		return "", nil, fmt.Errorf("attribute name: %w", err)
	}
	return name, body, nil
}

func (c *Class) parseExceptions(body []byte) ([]string, error) {
	r := newReader(body)
	n, err := r.u16()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for range n {
		idx, err := r.u16()
		if err != nil {
			return nil, err
		}
		name, err := c.pool.className(idx)
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

func skipAttributes(r *reader) error {
	n, err := r.u16()
	if err != nil {
		return err
	}
	for range n {
		if err := r.skip(2); err != nil {
			return err
		}
		length, err := r.u32()
		if err != nil {
			return err
		}
		if err := r.skip(int(length)); err != nil {
			return err
		}
	}
	return nil
}
