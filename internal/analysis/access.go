package analysis

import "nanopatterns/internal/bytecode"

// localArrayScanner records local variable and array traffic.
type localArrayScanner struct {
	readsLocalVar  bool
	writesLocalVar bool
	createsArray   bool
	readsArray     bool
	writesArray    bool
}

func (s *localArrayScanner) observe(in bytecode.Inst) {
	switch in.Kind {
	case bytecode.KindLocalVar:
		switch in.Var {
		case bytecode.Load:
			s.readsLocalVar = true
		case bytecode.Store:
			s.writesLocalVar = true
		}
	case bytecode.KindArray:
		switch in.Array {
		case bytecode.ArrayCreate:
			s.createsArray = true
		case bytecode.ArrayRead:
			s.readsArray = true
		case bytecode.ArrayWrite:
			s.writesArray = true
		}
	}
}

func (s *localArrayScanner) IsLocalVarReader() bool { return s.readsLocalVar }
func (s *localArrayScanner) IsLocalVarWriter() bool { return s.writesLocalVar }
func (s *localArrayScanner) IsArrayCreator() bool   { return s.createsArray }
func (s *localArrayScanner) IsArrayReader() bool    { return s.readsArray }
func (s *localArrayScanner) IsArrayWriter() bool    { return s.writesArray }

// typeScanner spots checkcast and instanceof.
type typeScanner struct {
	checkCast  bool
	instanceOf bool
}

func (s *typeScanner) observe(in bytecode.Inst) {
	if in.Kind != bytecode.KindObject {
		return
	}
	switch in.Object {
	case bytecode.CheckCast:
		s.checkCast = true
	case bytecode.InstanceOf:
		s.instanceOf = true
	}
}

func (s *typeScanner) IsTypeManipulator() bool {
	return s.checkCast || s.instanceOf
}
