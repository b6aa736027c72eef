package classfile

import (
	"fmt"

	bc "nanopatterns/internal/bytecode"
)

type handler struct {
	start, end, handler uint16
}

type codeAttribute struct {
	maxStack  uint16
	maxLocals uint16
	code      []byte
	handlers  []handler
}

func parseCodeAttribute(body []byte) (*codeAttribute, error) {
	r := newReader(body)
	c := &codeAttribute{}
	var err error
	if c.maxStack, err = r.u16(); err != nil {
		return nil, err
	}
	if c.maxLocals, err = r.u16(); err != nil {
		return nil, err
	}
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if c.code, err = r.bytes(int(n)); err != nil {
		return nil, err
	}
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	for range count {
		var h handler
		if h.start, err = r.u16(); err != nil {
			return nil, err
		}
		if h.end, err = r.u16(); err != nil {
			return nil, err
		}
		if h.handler, err = r.u16(); err != nil {
			return nil, err
		}
		if err = r.skip(2); err != nil {
			return nil, err
		}
		c.handlers = append(c.handlers, h)
	}
	// Nested attributes (LineNumberTable, StackMapTable, ...) are ignored.
	return c, nil
}

// decodeCode turns a code array into an instruction stream in two passes.
// The first pass collects every branch, switch and exception-table offset;
// the second emits instructions, placing a label before each collected
// offset. Label ids are the offsets they mark.
func decodeCode(c *codeAttribute, pool constantPool) (bc.Stream, error) {
	targets := make(map[int]struct{})
	for _, h := range c.handlers {
		targets[int(h.start)] = struct{}{}
		targets[int(h.end)] = struct{}{}
		targets[int(h.handler)] = struct{}{}
	}

	d := &decoder{pool: pool}
	var insts []bc.Inst
	r := newReader(c.code)
	for r.remaining() > 0 {
		in, jumps, err := d.next(r)
		if err != nil {
			return nil, err
		}
		for _, t := range jumps {
			targets[t] = struct{}{}
		}
		insts = append(insts, in)
	}

	stream := make(bc.Stream, 0, len(insts)+len(targets))
	for _, in := range insts {
		if _, ok := targets[in.Offset]; ok {
			stream = append(stream, bc.Inst{Kind: bc.KindLabel, Label: bc.LabelID(in.Offset), Offset: in.Offset})
		}
		stream = append(stream, in)
	}
	// An exception range may end at the code length.
	if _, ok := targets[len(c.code)]; ok {
		stream = append(stream, bc.Inst{Kind: bc.KindLabel, Label: bc.LabelID(len(c.code)), Offset: len(c.code)})
	}
	return stream, nil
}

type decoder struct {
	pool constantPool
}

// next decodes the instruction at the reader's offset. It returns the
// instruction and any branch targets it names.
func (d *decoder) next(r *reader) (bc.Inst, []int, error) {
	at := r.offset
	b, err := r.u8()
	if err != nil {
		return bc.Inst{}, nil, err
	}
	op := bc.Opcode(b)
	in := bc.Inst{Op: op, Offset: at}
	fail := func(err error) (bc.Inst, []int, error) {
		return bc.Inst{}, nil, fmt.Errorf("%w: %s at %d: %w", ErrBadCode, op, at, err)
	}

	switch {
	case op >= bc.ILOAD && op <= bc.ALOAD:
		idx, err := r.u8()
		if err != nil {
			return fail(err)
		}
		in.Kind, in.Var, in.Slot = bc.KindLocalVar, bc.Load, int(idx)
	case op >= bc.ILOAD_0 && op <= bc.ALOAD_3:
		in.Kind, in.Var, in.Slot = bc.KindLocalVar, bc.Load, int(op-bc.ILOAD_0)%4
	case op >= bc.ISTORE && op <= bc.ASTORE:
		idx, err := r.u8()
		if err != nil {
			return fail(err)
		}
		in.Kind, in.Var, in.Slot = bc.KindLocalVar, bc.Store, int(idx)
	case op >= bc.ISTORE_0 && op <= bc.ASTORE_3:
		in.Kind, in.Var, in.Slot = bc.KindLocalVar, bc.Store, int(op-bc.ISTORE_0)%4

	case op >= bc.IALOAD && op <= bc.SALOAD:
		in.Kind, in.Array = bc.KindArray, bc.ArrayRead
	case op >= bc.IASTORE && op <= bc.SASTORE:
		in.Kind, in.Array = bc.KindArray, bc.ArrayWrite
	case op == bc.NEWARRAY:
		atype, err := r.u8()
		if err != nil {
			return fail(err)
		}
		in.Kind, in.Array, in.Owner = bc.KindArray, bc.ArrayCreate, primitiveArrayType(atype)
	case op == bc.ANEWARRAY, op == bc.MULTIANEWARRAY:
		idx, err := r.u16()
		if err != nil {
			return fail(err)
		}
		if op == bc.MULTIANEWARRAY {
			if err := r.skip(1); err != nil {
				return fail(err)
			}
		}
		name, err := d.pool.className(idx)
		if err != nil {
			return fail(err)
		}
		in.Kind, in.Array, in.Owner = bc.KindArray, bc.ArrayCreate, name

	case op >= bc.GETSTATIC && op <= bc.PUTFIELD:
		idx, err := r.u16()
		if err != nil {
			return fail(err)
		}
		owner, name, desc, err := d.pool.memberRef(idx)
		if err != nil {
			return fail(err)
		}
		in.Kind, in.Owner, in.Name, in.Desc = bc.KindField, owner, name, desc
		in.Field = map[bc.Opcode]bc.FieldOp{
			bc.GETSTATIC: bc.GetStatic,
			bc.PUTSTATIC: bc.PutStatic,
			bc.GETFIELD:  bc.GetInstance,
			bc.PUTFIELD:  bc.PutInstance,
		}[op]

	case op >= bc.INVOKEVIRTUAL && op <= bc.INVOKEINTERFACE:
		idx, err := r.u16()
		if err != nil {
			return fail(err)
		}
		if op == bc.INVOKEINTERFACE {
			if err := r.skip(2); err != nil {
				return fail(err)
			}
		}
		owner, name, desc, err := d.pool.memberRef(idx)
		if err != nil {
			return fail(err)
		}
		in.Kind, in.Owner, in.Name, in.Desc = bc.KindCall, owner, name, desc
		in.Call = map[bc.Opcode]bc.CallOp{
			bc.INVOKEVIRTUAL:   bc.Virtual,
			bc.INVOKESPECIAL:   bc.Special,
			bc.INVOKESTATIC:    bc.Static,
			bc.INVOKEINTERFACE: bc.Interface,
		}[op]

	case op == bc.NEW, op == bc.CHECKCAST, op == bc.INSTANCEOF:
		idx, err := r.u16()
		if err != nil {
			return fail(err)
		}
		name, err := d.pool.className(idx)
		if err != nil {
			return fail(err)
		}
		in.Kind, in.Owner = bc.KindObject, name
		in.Object = map[bc.Opcode]bc.ObjectOp{
			bc.NEW:        bc.New,
			bc.CHECKCAST:  bc.CheckCast,
			bc.INSTANCEOF: bc.InstanceOf,
		}[op]

	case (op >= bc.IFEQ && op <= bc.JSR) || op == bc.IFNULL || op == bc.IFNONNULL:
		rel, err := r.s16()
		if err != nil {
			return fail(err)
		}
		target := at + int(rel)
		in.Kind, in.Label = bc.KindJump, bc.LabelID(target)
		return in, []int{target}, nil
	case op == bc.GOTO_W || op == bc.JSR_W:
		rel, err := r.s32()
		if err != nil {
			return fail(err)
		}
		target := at + int(rel)
		in.Kind, in.Label = bc.KindJump, bc.LabelID(target)
		return in, []int{target}, nil

	case op == bc.TABLESWITCH || op == bc.LOOKUPSWITCH:
		targets, err := readSwitch(r, op, at)
		if err != nil {
			return fail(err)
		}
		in.Kind = bc.KindSwitch
		in.Switch = bc.TableSwitch
		if op == bc.LOOKUPSWITCH {
			in.Switch = bc.LookupSwitch
		}
		return in, targets, nil

	case op.IsReturn():
		in.Kind, in.Term = bc.KindTerminal, bc.Return

	case op == bc.RET:
		idx, err := r.u8()
		if err != nil {
			return fail(err)
		}
		in.Kind, in.Var, in.Slot = bc.KindLocalVar, bc.Ret, int(idx)
	case op == bc.BIPUSH, op == bc.LDC:
		if err := r.skip(1); err != nil {
			return fail(err)
		}
		in.Kind = bc.KindOther
	case op == bc.SIPUSH, op == bc.LDC_W, op == bc.LDC2_W, op == bc.IINC:
		if err := r.skip(2); err != nil {
			return fail(err)
		}
		in.Kind = bc.KindOther
	case op == bc.INVOKEDYNAMIC:
		if err := r.skip(4); err != nil {
			return fail(err)
		}
		in.Kind = bc.KindOther

	case op == bc.WIDE:
		return d.wide(r, at)

	case op.Valid():
		in.Kind, in.Term = bc.KindTerminal, bc.Simple
	default:
		return bc.Inst{}, nil, fmt.Errorf("%w: unknown opcode 0x%02x at %d", ErrBadCode, b, at)
	}
	return in, nil, nil
}

// wide decodes the instruction following a wide prefix. The result
// carries the modified opcode and the wide instruction's offset.
func (d *decoder) wide(r *reader, at int) (bc.Inst, []int, error) {
	b, err := r.u8()
	if err != nil {
		return bc.Inst{}, nil, fmt.Errorf("%w: wide at %d: %w", ErrBadCode, at, err)
	}
	op := bc.Opcode(b)
	idx, err := r.u16()
	if err != nil {
		return bc.Inst{}, nil, fmt.Errorf("%w: wide %s at %d: %w", ErrBadCode, op, at, err)
	}
	in := bc.Inst{Op: op, Offset: at}
	switch {
	case op >= bc.ILOAD && op <= bc.ALOAD:
		in.Kind, in.Var, in.Slot = bc.KindLocalVar, bc.Load, int(idx)
	case op >= bc.ISTORE && op <= bc.ASTORE:
		in.Kind, in.Var, in.Slot = bc.KindLocalVar, bc.Store, int(idx)
	case op == bc.IINC:
		if err := r.skip(2); err != nil {
			return bc.Inst{}, nil, fmt.Errorf("%w: wide iinc at %d: %w", ErrBadCode, at, err)
		}
		in.Kind = bc.KindOther
	case op == bc.RET:
		in.Kind, in.Var, in.Slot = bc.KindLocalVar, bc.Ret, int(idx)
	default:
		return bc.Inst{}, nil, fmt.Errorf("%w: wide cannot modify %s at %d", ErrBadCode, op, at)
	}
	return in, nil, nil
}

// readSwitch skips the switch padding and returns the default and case
// targets as absolute offsets.
func readSwitch(r *reader, op bc.Opcode, at int) ([]int, error) {
	// Operands start at the next multiple of four from the code start.
	if err := r.skip((4 - (at+1)%4) % 4); err != nil {
		return nil, err
	}
	def, err := r.s32()
	if err != nil {
		return nil, err
	}
	targets := []int{at + int(def)}

	var n, entry int
	if op == bc.TABLESWITCH {
		low, err := r.s32()
		if err != nil {
			return nil, err
		}
		high, err := r.s32()
		if err != nil {
			return nil, err
		}
		if high < low {
			return nil, fmt.Errorf("tableswitch high %d < low %d", high, low)
		}
		n, entry = int(high)-int(low)+1, 4
	} else {
		pairs, err := r.s32()
		if err != nil {
			return nil, err
		}
		if pairs < 0 {
			return nil, fmt.Errorf("lookupswitch with %d pairs", pairs)
		}
		n, entry = int(pairs), 8
	}
	if err := r.need(n * entry); err != nil {
		return nil, err
	}
	for range n {
		if op == bc.LOOKUPSWITCH {
			if err := r.skip(4); err != nil {
				return nil, err
			}
		}
		rel, err := r.s32()
		if err != nil {
			return nil, err
		}
		targets = append(targets, at+int(rel))
	}
	return targets, nil
}

func primitiveArrayType(atype uint8) string {
	switch atype {
	case 4:
		return "boolean"
	case 5:
		return "char"
	case 6:
		return "float"
	case 7:
		return "double"
	case 8:
		return "byte"
	case 9:
		return "short"
	case 10:
		return "int"
	case 11:
		return "long"
	}
	return fmt.Sprintf("atype(%d)", atype)
}
