package analysis

import "nanopatterns/internal/bytecode"

// objectAccessScanner separates field accesses through the receiver from
// accesses through other references without simulating the operand stack.
// A getfield one instruction after loading slot 0, or a putfield two
// instructions after it, counts as an access to the method's own object;
// anything else is "other".
//
// Only field, local variable and zero-operand instructions advance the
// distance. Jumps, labels, switches, calls, object and other operand-carrying
// instructions do not, so e.g. "aload_0; invokevirtual; getfield" still
// counts as an own-field read. This matches the classic nanopattern tool
// and is kept on purpose.
type objectAccessScanner struct {
	distance int

	createsObjects    bool
	readsOwnFields    bool
	writesOwnFields   bool
	readsOtherFields  bool
	writesOtherFields bool
	readsStatic       bool
	writesStatic      bool
}

func newObjectAccessScanner() *objectAccessScanner {
	return &objectAccessScanner{distance: farDistance}
}

func (s *objectAccessScanner) advance() {
	if s.distance < farDistance {
		s.distance++
	}
}

func (s *objectAccessScanner) observe(in bytecode.Inst) {
	switch {
	case in.Kind == bytecode.KindField:
		s.advance()
		switch in.Field {
		case bytecode.GetInstance:
			if s.distance == ownFieldReadDistance {
				s.readsOwnFields = true
			} else {
				s.readsOtherFields = true
			}
		case bytecode.PutInstance:
			if s.distance == ownFieldWriteDistance {
				s.writesOwnFields = true
			} else {
				s.writesOtherFields = true
			}
		case bytecode.GetStatic:
			s.readsStatic = true
		case bytecode.PutStatic:
			s.writesStatic = true
		}
	case in.Kind == bytecode.KindLocalVar:
		s.advance()
		if in.Var == bytecode.Load && in.Slot == receiverSlot {
			s.distance = 0
		}
	case in.ZeroOperand():
		s.advance()
	case in.Kind == bytecode.KindObject && in.Object == bytecode.New:
		s.createsObjects = true
	}
}

func (s *objectAccessScanner) IsObjectCreator() bool            { return s.createsObjects }
func (s *objectAccessScanner) IsThisInstanceFieldReader() bool  { return s.readsOwnFields }
func (s *objectAccessScanner) IsThisInstanceFieldWriter() bool  { return s.writesOwnFields }
func (s *objectAccessScanner) IsOtherInstanceFieldReader() bool { return s.readsOtherFields }
func (s *objectAccessScanner) IsOtherInstanceFieldWriter() bool { return s.writesOtherFields }
func (s *objectAccessScanner) IsStaticFieldReader() bool        { return s.readsStatic }
func (s *objectAccessScanner) IsStaticFieldWriter() bool        { return s.writesStatic }
