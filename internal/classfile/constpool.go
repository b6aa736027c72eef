package classfile

import "fmt"

// Constant pool tags, JVMS §4.4.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// constant is one pool entry. Only the parts the decoder needs are kept:
// the text of Utf8 entries and up to two indexes for reference entries.
type constant struct {
	tag  uint8
	text string
	a, b uint16
}

type constantPool []constant

func readConstantPool(r *reader) (constantPool, error) {
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	// Index 0 is unused; long and double entries take two slots.
	pool := make(constantPool, count)
	for i := 1; i < int(count); i++ {
		tag, err := r.u8()
		if err != nil {
			return nil, err
		}
		c := constant{tag: tag}
		switch tag {
		case tagUtf8:
			n, err := r.u16()
			if err != nil {
				return nil, err
			}
			b, err := r.bytes(int(n))
			if err != nil {
				return nil, err
			}
			c.text = string(b)
		case tagInteger, tagFloat:
			err = r.skip(4)
		case tagLong, tagDouble:
			err = r.skip(8)
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			c.a, err = r.u16()
		case tagMethodHandle:
			if err = r.skip(1); err == nil {
				c.a, err = r.u16()
			}
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			if c.a, err = r.u16(); err == nil {
				c.b, err = r.u16()
			}
		default:
			return nil, fmt.Errorf("%w: constant %d has unknown tag %d", ErrNotClassFile, i, tag)
		}
		if err != nil {
			return nil, err
		}
		pool[i] = c
		if tag == tagLong || tag == tagDouble {
			i++
		}
	}
	return pool, nil
}

func (p constantPool) entry(i uint16, tags ...uint8) (constant, error) {
	if i == 0 || int(i) >= len(p) {
		return constant{}, fmt.Errorf("%w: constant index %d out of range", ErrNotClassFile, i)
	}
	c := p[i]
	for _, t := range tags {
		if c.tag == t {
			return c, nil
		}
	}
	return constant{}, fmt.Errorf("%w: constant %d has tag %d, want one of %v", ErrNotClassFile, i, c.tag, tags)
}

func (p constantPool) utf8(i uint16) (string, error) {
	c, err := p.entry(i, tagUtf8)
	if err != nil {
		return "", err
	}
	return c.text, nil
}

// className resolves a CONSTANT_Class entry to its internal name.
func (p constantPool) className(i uint16) (string, error) {
	c, err := p.entry(i, tagClass)
	if err != nil {
		return "", err
	}
	return p.utf8(c.a)
}

func (p constantPool) nameAndType(i uint16) (name, desc string, err error) {
	c, err := p.entry(i, tagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = p.utf8(c.a); err != nil {
		return "", "", err
	}
	if desc, err = p.utf8(c.b); err != nil {
		return "", "", err
	}
	return name, desc, nil
}

// memberRef resolves a field or method reference to owner, name and
// descriptor.
func (p constantPool) memberRef(i uint16) (owner, name, desc string, err error) {
	c, err := p.entry(i, tagFieldref, tagMethodref, tagInterfaceMethodref)
	if err != nil {
		return "", "", "", err
	}
	if owner, err = p.className(c.a); err != nil {
		return "", "", "", err
	}
	name, desc, err = p.nameAndType(c.b)
	return owner, name, desc, err
}
