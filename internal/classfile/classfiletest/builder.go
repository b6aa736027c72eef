// Package classfiletest assembles small class files and jars for tests.
package classfiletest

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"nanopatterns/internal/bytecode"
)

// Handler is one exception table entry; CatchType 0 catches everything.
type Handler struct {
	Start, End, Handler uint16
}

// Builder assembles a class file. Constant pool entries are interned.
type Builder struct {
	pool   bytes.Buffer
	next   uint16
	index  map[string]uint16
	access uint16
	this   uint16
	super  uint16
	ifaces []uint16
	fields [][]byte
	meths  [][]byte
}

// NewBuilder starts a class named name (internal form) extending super.
// An empty super leaves super_class zero.
func NewBuilder(name, super string) *Builder {
	b := &Builder{next: 1, index: make(map[string]uint16), access: 0x0021}
	b.this = b.Class(name)
	if super != "" {
		b.super = b.Class(super)
	}
	return b
}

// Access overrides the class access flags.
func (b *Builder) Access(flags uint16) *Builder {
	b.access = flags
	return b
}

// Implements adds an interface.
func (b *Builder) Implements(name string) *Builder {
	b.ifaces = append(b.ifaces, b.Class(name))
	return b
}

func (b *Builder) intern(key string, slots uint16, write func()) uint16 {
	if i, ok := b.index[key]; ok {
		return i
	}
	write()
	i := b.next
	b.index[key] = i
	b.next += slots
	return i
}

// Utf8 interns a CONSTANT_Utf8.
func (b *Builder) Utf8(s string) uint16 {
	return b.intern("u:"+s, 1, func() {
		b.pool.WriteByte(1)
		b.u16(&b.pool, uint16(len(s)))
		b.pool.WriteString(s)
	})
}

// Class interns a CONSTANT_Class.
func (b *Builder) Class(name string) uint16 {
	n := b.Utf8(name)
	return b.intern("c:"+name, 1, func() {
		b.pool.WriteByte(7)
		b.u16(&b.pool, n)
	})
}

// Long adds a CONSTANT_Long, which occupies two pool slots.
func (b *Builder) Long(v int64) uint16 {
	return b.intern(fmt.Sprintf("j:%d", v), 2, func() {
		b.pool.WriteByte(5)
		_ = binary.Write(&b.pool, binary.BigEndian, v)
	})
}

// StringConst adds a CONSTANT_String.
func (b *Builder) StringConst(s string) uint16 {
	n := b.Utf8(s)
	return b.intern("s:"+s, 1, func() {
		b.pool.WriteByte(8)
		b.u16(&b.pool, n)
	})
}

func (b *Builder) nameAndType(name, desc string) uint16 {
	n, d := b.Utf8(name), b.Utf8(desc)
	return b.intern("nt:"+name+":"+desc, 1, func() {
		b.pool.WriteByte(12)
		b.u16(&b.pool, n)
		b.u16(&b.pool, d)
	})
}

func (b *Builder) ref(tag byte, owner, name, desc string) uint16 {
	c, nt := b.Class(owner), b.nameAndType(name, desc)
	return b.intern(fmt.Sprintf("r%d:%s.%s:%s", tag, owner, name, desc), 1, func() {
		b.pool.WriteByte(tag)
		b.u16(&b.pool, c)
		b.u16(&b.pool, nt)
	})
}

// FieldRef interns a CONSTANT_Fieldref.
func (b *Builder) FieldRef(owner, name, desc string) uint16 { return b.ref(9, owner, name, desc) }

// MethodRef interns a CONSTANT_Methodref.
func (b *Builder) MethodRef(owner, name, desc string) uint16 { return b.ref(10, owner, name, desc) }

// InterfaceMethodRef interns a CONSTANT_InterfaceMethodref.
func (b *Builder) InterfaceMethodRef(owner, name, desc string) uint16 {
	return b.ref(11, owner, name, desc)
}

// Field adds a field carrying one empty Synthetic attribute.
func (b *Builder) Field(name, desc string) *Builder {
	var f bytes.Buffer
	b.u16(&f, 0x0002)
	b.u16(&f, b.Utf8(name))
	b.u16(&f, b.Utf8(desc))
	b.u16(&f, 1)
	b.u16(&f, b.Utf8("Synthetic"))
	b.u32(&f, 0)
	b.fields = append(b.fields, f.Bytes())
	return b
}

// Method adds a method. A nil code leaves out the Code attribute.
func (b *Builder) Method(access uint16, name, desc string, code []byte, handlers []Handler, throws ...string) *Builder {
	var m bytes.Buffer
	b.u16(&m, access)
	b.u16(&m, b.Utf8(name))
	b.u16(&m, b.Utf8(desc))

	var attrs [][]byte
	if code != nil {
		var body bytes.Buffer
		b.u16(&body, 8) // max_stack
		b.u16(&body, 8) // max_locals
		b.u32(&body, uint32(len(code)))
		body.Write(code)
		b.u16(&body, uint16(len(handlers)))
		for _, h := range handlers {
			b.u16(&body, h.Start)
			b.u16(&body, h.End)
			b.u16(&body, h.Handler)
			b.u16(&body, 0)
		}
		b.u16(&body, 0)
		attrs = append(attrs, b.attribute("Code", body.Bytes()))
	}
	if len(throws) > 0 {
		var body bytes.Buffer
		b.u16(&body, uint16(len(throws)))
		for _, t := range throws {
			b.u16(&body, b.Class(t))
		}
		attrs = append(attrs, b.attribute("Exceptions", body.Bytes()))
	}
	b.u16(&m, uint16(len(attrs)))
	for _, a := range attrs {
		m.Write(a)
	}
	b.meths = append(b.meths, m.Bytes())
	return b
}

func (b *Builder) attribute(name string, body []byte) []byte {
	var a bytes.Buffer
	b.u16(&a, b.Utf8(name))
	b.u32(&a, uint32(len(body)))
	a.Write(body)
	return a.Bytes()
}

// Bytes returns the assembled class file.
func (b *Builder) Bytes() []byte {
	var out bytes.Buffer
	b.u32(&out, 0xcafebabe)
	b.u16(&out, 0)
	b.u16(&out, 52)
	b.u16(&out, b.next)
	out.Write(b.pool.Bytes())
	b.u16(&out, b.access)
	b.u16(&out, b.this)
	b.u16(&out, b.super)
	b.u16(&out, uint16(len(b.ifaces)))
	for _, i := range b.ifaces {
		b.u16(&out, i)
	}
	b.u16(&out, uint16(len(b.fields)))
	for _, f := range b.fields {
		out.Write(f)
	}
	b.u16(&out, uint16(len(b.meths)))
	for _, m := range b.meths {
		out.Write(m)
	}
	b.u16(&out, 0)
	return out.Bytes()
}

func (b *Builder) u16(w *bytes.Buffer, v uint16) { _ = binary.Write(w, binary.BigEndian, v) }
func (b *Builder) u32(w *bytes.Buffer, v uint32) { _ = binary.Write(w, binary.BigEndian, v) }

// Code assembles a code array. Opcodes and bytes take one byte, uint16
// and int16 two, int32 four. Plain ints are single bytes.
func Code(parts ...any) []byte {
	var out bytes.Buffer
	for _, p := range parts {
		switch v := p.(type) {
		case bytecode.Opcode:
			out.WriteByte(byte(v))
		case byte:
			out.WriteByte(v)
		case int:
			if v < -128 || v > 255 {
				panic(fmt.Sprintf("classfiletest: %d does not fit a byte", v))
			}
			out.WriteByte(byte(v))
		case uint16, int16, int32:
			_ = binary.Write(&out, binary.BigEndian, v)
		default:
			panic(fmt.Sprintf("classfiletest: unsupported code part %T", p))
		}
	}
	return out.Bytes()
}

// WriteClass writes data to dir/<name>.class, creating package
// directories, and returns the file path.
func WriteClass(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name)+".class")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// WriteJar writes a jar holding the given classes, keyed by internal name.
func WriteJar(t testing.TB, path string, classes map[string][]byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	if _, err := zw.Create("META-INF/"); err != nil {
		t.Fatal(err)
	}
	for name, data := range classes {
		w, err := zw.Create(name + ".class")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}
