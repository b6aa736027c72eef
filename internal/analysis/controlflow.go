package analysis

import "nanopatterns/internal/bytecode"

// controlFlowScanner counts branches and detects loops lexically: a jump
// to a label already passed in the linear scan is taken as a back edge.
// No flow graph is built.
type controlFlowScanner struct {
	seen          map[bytecode.LabelID]struct{}
	jumps         int
	switches      int
	backwardsJump bool
}

func newControlFlowScanner() *controlFlowScanner {
	return &controlFlowScanner{seen: make(map[bytecode.LabelID]struct{})}
}

func (s *controlFlowScanner) observe(in bytecode.Inst) {
	switch in.Kind {
	case bytecode.KindLabel:
		s.seen[in.Label] = struct{}{}
	case bytecode.KindJump:
		s.jumps++
		if _, ok := s.seen[in.Label]; ok {
			s.backwardsJump = true
		}
	case bytecode.KindSwitch:
		s.switches++
	}
}

func (s *controlFlowScanner) IsStraightLineCode() bool {
	return s.jumps == 0 && s.switches == 0
}

func (s *controlFlowScanner) IsLoopingCode() bool { return s.backwardsJump }

func (s *controlFlowScanner) IsSwitcher() bool { return s.switches > 0 }
