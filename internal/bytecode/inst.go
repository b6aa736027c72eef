// Package bytecode defines the decoded JVM instruction representation
// consumed by the pattern scanners.
package bytecode

import "fmt"

// Kind tags the category of an instruction.
type Kind uint8

const (
	KindLocalVar Kind = iota + 1
	KindField
	KindArray
	KindObject
	KindJump
	KindLabel
	KindSwitch
	KindCall
	KindTerminal
	KindOther // operand-carrying ops no scanner inspects (ldc, iinc, bipush, ...)
)

func (k Kind) String() string {
	switch k {
	case KindLocalVar:
		return "localvar"
	case KindField:
		return "field"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindJump:
		return "jump"
	case KindLabel:
		return "label"
	case KindSwitch:
		return "switch"
	case KindCall:
		return "call"
	case KindTerminal:
		return "terminal"
	case KindOther:
		return "other"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

type VarOp uint8

const (
	Load VarOp = iota + 1
	Store
	Ret // ret: names a slot but neither reads nor writes a local
)

type FieldOp uint8

const (
	GetInstance FieldOp = iota + 1
	PutInstance
	GetStatic
	PutStatic
)

type ArrayOp uint8

const (
	ArrayCreate ArrayOp = iota + 1
	ArrayRead
	ArrayWrite
)

type ObjectOp uint8

const (
	New ObjectOp = iota + 1
	CheckCast
	InstanceOf
)

type SwitchOp uint8

const (
	TableSwitch SwitchOp = iota + 1
	LookupSwitch
)

type CallOp uint8

const (
	Virtual CallOp = iota + 1
	Interface
	Static
	Special
)

func (c CallOp) String() string {
	switch c {
	case Virtual:
		return "virtual"
	case Interface:
		return "interface"
	case Static:
		return "static"
	case Special:
		return "special"
	}
	return "unknown"
}

type TermOp uint8

const (
	Simple TermOp = iota + 1
	Return
)

// LabelID identifies a position in the instruction stream. The decoder
// uses the bytecode offset the label marks.
type LabelID int

// Inst is a decoded instruction. Only the fields belonging to Kind are
// meaningful; the rest are zero.
type Inst struct {
	Kind   Kind
	Op     Opcode // raw opcode, zero for labels
	Offset int    // bytecode offset, -1 when synthesized

	Var    VarOp
	Field  FieldOp
	Array  ArrayOp
	Object ObjectOp
	Switch SwitchOp
	Call   CallOp
	Term   TermOp

	Slot  int     // local variable slot
	Label LabelID // label id, or jump target

	Owner string // field/method owner class (internal name) or type operand
	Name  string
	Desc  string
}

// ZeroOperand reports whether the JVM encodes the instruction without
// operands. Array loads and stores are zero-operand opcodes even though
// they are modelled as array accesses.
func (in Inst) ZeroOperand() bool {
	switch in.Kind {
	case KindTerminal:
		return true
	case KindArray:
		return in.Array == ArrayRead || in.Array == ArrayWrite
	}
	return false
}

// IsReturn reports whether in is one of the method-return opcodes.
func (in Inst) IsReturn() bool {
	return in.Kind == KindTerminal && in.Term == Return
}

// String renders the instruction in a javap-like form.
func (in Inst) String() string {
	switch in.Kind {
	case KindLabel:
		return fmt.Sprintf("L%d:", in.Label)
	case KindLocalVar:
		return fmt.Sprintf("%s %d", in.Op, in.Slot)
	case KindField:
		return fmt.Sprintf("%s %s.%s:%s", in.Op, in.Owner, in.Name, in.Desc)
	case KindCall:
		return fmt.Sprintf("%s %s.%s%s", in.Op, in.Owner, in.Name, in.Desc)
	case KindJump:
		return fmt.Sprintf("%s L%d", in.Op, in.Label)
	case KindObject:
		return fmt.Sprintf("%s %s", in.Op, in.Owner)
	case KindArray:
		if in.Owner != "" {
			return fmt.Sprintf("%s %s", in.Op, in.Owner)
		}
	}
	return in.Op.String()
}

// Stream is a linear sequence of instructions in source order.
type Stream []Inst

// Len returns the number of entries, labels included.
func (s Stream) Len() int { return len(s) }

// Mark returns a label marker.
func Mark(id LabelID) Inst {
	return Inst{Kind: KindLabel, Label: id, Offset: -1}
}

// LoadVar returns a local variable load of slot (aload for the opcode).
func LoadVar(slot int) Inst {
	return Inst{Kind: KindLocalVar, Op: ALOAD, Var: Load, Slot: slot, Offset: -1}
}

// StoreVar returns a local variable store to slot.
func StoreVar(slot int) Inst {
	return Inst{Kind: KindLocalVar, Op: ASTORE, Var: Store, Slot: slot, Offset: -1}
}

// RetVar returns a ret through the return address in slot.
func RetVar(slot int) Inst {
	return Inst{Kind: KindLocalVar, Op: RET, Var: Ret, Slot: slot, Offset: -1}
}

// FieldAccess returns a field instruction of the given kind.
func FieldAccess(op FieldOp, owner, name, desc string) Inst {
	codes := map[FieldOp]Opcode{
		GetInstance: GETFIELD,
		PutInstance: PUTFIELD,
		GetStatic:   GETSTATIC,
		PutStatic:   PUTSTATIC,
	}
	return Inst{Kind: KindField, Op: codes[op], Field: op, Owner: owner, Name: name, Desc: desc, Offset: -1}
}

// ArrayAccess returns an array instruction of the given kind.
func ArrayAccess(op ArrayOp) Inst {
	codes := map[ArrayOp]Opcode{
		ArrayCreate: NEWARRAY,
		ArrayRead:   IALOAD,
		ArrayWrite:  IASTORE,
	}
	return Inst{Kind: KindArray, Op: codes[op], Array: op, Offset: -1}
}

// ObjectInst returns an object instruction operating on typ.
func ObjectInst(op ObjectOp, typ string) Inst {
	codes := map[ObjectOp]Opcode{
		New:        NEW,
		CheckCast:  CHECKCAST,
		InstanceOf: INSTANCEOF,
	}
	return Inst{Kind: KindObject, Op: codes[op], Object: op, Owner: typ, Offset: -1}
}

// JumpTo returns an unconditional jump to target.
func JumpTo(target LabelID) Inst {
	return Inst{Kind: KindJump, Op: GOTO, Label: target, Offset: -1}
}

// SwitchInst returns a switch of the given kind.
func SwitchInst(op SwitchOp) Inst {
	code := TABLESWITCH
	if op == LookupSwitch {
		code = LOOKUPSWITCH
	}
	return Inst{Kind: KindSwitch, Op: code, Switch: op, Offset: -1}
}

// Invoke returns a method call.
func Invoke(op CallOp, owner, name, desc string) Inst {
	codes := map[CallOp]Opcode{
		Virtual:   INVOKEVIRTUAL,
		Interface: INVOKEINTERFACE,
		Static:    INVOKESTATIC,
		Special:   INVOKESPECIAL,
	}
	return Inst{Kind: KindCall, Op: codes[op], Call: op, Owner: owner, Name: name, Desc: desc, Offset: -1}
}

// ReturnInst returns a void return.
func ReturnInst() Inst {
	return Inst{Kind: KindTerminal, Op: RETURN, Term: Return, Offset: -1}
}

// SimpleInst returns a zero-operand, non-return instruction for op.
func SimpleInst(op Opcode) Inst {
	return Inst{Kind: KindTerminal, Op: op, Term: Simple, Offset: -1}
}

// OtherInst returns an instruction no scanner inspects.
func OtherInst(op Opcode) Inst {
	return Inst{Kind: KindOther, Op: op, Offset: -1}
}
