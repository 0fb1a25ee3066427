package ovm

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/ovmtrace/pkg/log"
	"github.com/eth2030/ovmtrace/pkg/vm"
)

// LoggingObserver logs message and step boundaries through pkg/log. It is
// the Observer the CLI wires in at -verbosity=debug; step events are
// advisory and high-frequency, so they go out at Debug level only.
type LoggingObserver struct {
	log *log.Logger
}

// NewLoggingObserver returns an Observer that logs under the "ovm.trace"
// module tag.
func NewLoggingObserver() *LoggingObserver {
	return &LoggingObserver{log: log.Module("ovm.trace")}
}

func (o *LoggingObserver) BeforeMessage(msg *vm.Message) {
	o.log.Debug("before message", "depth", msg.Depth, "to", msg.To, "kind", msg.Kind)
}

func (o *LoggingObserver) AfterMessage(msg *vm.Message, result *vm.Result) {
	o.log.Debug("after message", "depth", msg.Depth, "to", msg.To, "failed", result.Failed())
}

func (o *LoggingObserver) NewContract(addr common.Address, code []byte) {
	o.log.Debug("new contract", "address", addr, "codeLen", len(code))
}

func (o *LoggingObserver) Step(pc uint64, op vm.OpCode, gasLeft uint64, depth int) {
	o.log.Debug("step", "pc", pc, "op", op, "gasLeft", gasLeft, "depth", depth)
}

var _ vm.Observer = (*LoggingObserver)(nil)

// StepCountingObserver wraps another Observer and counts the total number
// of Step calls across the whole trace, for TraceReport.StepCount.
type StepCountingObserver struct {
	Inner vm.Observer
	Count uint64
}

func (o *StepCountingObserver) BeforeMessage(msg *vm.Message) { o.Inner.BeforeMessage(msg) }
func (o *StepCountingObserver) AfterMessage(msg *vm.Message, result *vm.Result) {
	o.Inner.AfterMessage(msg, result)
}
func (o *StepCountingObserver) NewContract(addr common.Address, code []byte) {
	o.Inner.NewContract(addr, code)
}
func (o *StepCountingObserver) Step(pc uint64, op vm.OpCode, gasLeft uint64, depth int) {
	o.Count++
	o.Inner.Step(pc, op, gasLeft, depth)
}

var _ vm.Observer = (*StepCountingObserver)(nil)
