package analysis

import "nanopatterns/internal/bytecode"

// returnScanner counts return instructions.
type returnScanner struct {
	returns int
}

func (s *returnScanner) observe(in bytecode.Inst) {
	if in.IsReturn() {
		s.returns++
	}
}

func (s *returnScanner) IsSingleReturner() bool   { return s.returns == 1 }
func (s *returnScanner) IsMultipleReturner() bool { return s.returns > 1 }
