package vm

import "github.com/ethereum/go-ethereum/common"

// Observer receives advisory notifications as the interpreter runs. It
// replaces the global "step event" hook the spec describes as broadcasting
// to arbitrary listeners: here a single Observer is injected into the Host
// at construction time, and a NopObserver absorbs every call when nobody is
// listening. Observer methods must not mutate RunState or Stack; they exist
// for tracing and reporting only.
type Observer interface {
	// BeforeMessage fires once per Call/Create, before the message runs.
	BeforeMessage(msg *Message)

	// AfterMessage fires once per Call/Create, after the message's Result
	// is known.
	AfterMessage(msg *Message, result *Result)

	// NewContract fires when a CREATE/CREATE2 message is about to deploy
	// code to addr.
	NewContract(addr common.Address, code []byte)

	// Step fires before each opcode executes.
	Step(pc uint64, op OpCode, gasLeft uint64, depth int)
}

// NopObserver discards every notification. It is the default Observer when
// a Capabilities value is constructed without one.
type NopObserver struct{}

func (NopObserver) BeforeMessage(*Message)                        {}
func (NopObserver) AfterMessage(*Message, *Result)                {}
func (NopObserver) NewContract(common.Address, []byte)            {}
func (NopObserver) Step(uint64, OpCode, uint64, int)               {}

var _ Observer = NopObserver{}

// MultiObserver fans a single notification out to several Observers, in
// order. Used when both a trace collector and a logger need the same
// events.
type MultiObserver []Observer

func (m MultiObserver) BeforeMessage(msg *Message) {
	for _, o := range m {
		o.BeforeMessage(msg)
	}
}

func (m MultiObserver) AfterMessage(msg *Message, result *Result) {
	for _, o := range m {
		o.AfterMessage(msg, result)
	}
}

func (m MultiObserver) NewContract(addr common.Address, code []byte) {
	for _, o := range m {
		o.NewContract(addr, code)
	}
}

func (m MultiObserver) Step(pc uint64, op OpCode, gasLeft uint64, depth int) {
	for _, o := range m {
		o.Step(pc, op, gasLeft, depth)
	}
}

var _ Observer = MultiObserver(nil)
