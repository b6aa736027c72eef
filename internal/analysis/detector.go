package analysis

import "nanopatterns/internal/bytecode"

// observer consumes instructions one at a time, in stream order.
type observer interface {
	observe(in bytecode.Inst)
}

// observerChain feeds every instruction to each observer in turn.
type observerChain struct {
	observers []observer
}

func newObserverChain(observers ...observer) *observerChain {
	return &observerChain{observers: observers}
}

// run feeds the whole stream once. Each observer sees every instruction
// exactly once, in order.
func (oc *observerChain) run(stream bytecode.Stream) {
	for _, in := range stream {
		for _, o := range oc.observers {
			o.observe(in)
		}
	}
}
