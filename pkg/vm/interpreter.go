package vm

import (
	"context"

	"github.com/eth2030/ovmtrace/pkg/log"
)

var interpLog = log.Module("vm.interpreter")

// Interpreter runs a single contract's bytecode to completion against a
// fixed jump table, reporting its outcome as (returnData, error). The
// caller (the executor) is responsible for everything outside a single
// frame: snapshotting, value transfer, and recursing into child messages
// that EEI.Call raises.
type Interpreter struct {
	table *JumpTable
}

// NewInterpreter builds an Interpreter bound to fork's jump table.
func NewInterpreter(fork ForkConfig) *Interpreter {
	return &Interpreter{table: NewJumpTable(fork)}
}

// Run executes rs.Code from PC 0 until a halting opcode, an error, or
// falling off the end of the code (an implicit STOP). ctx is checked once
// per step so a top-level timeout can abort a long-running trace; nothing
// is committed outside checkpoints, so cancellation mid-trace discards
// partial state the same way any other typed error does.
func (in *Interpreter) Run(ctx context.Context, rs *RunState, ee *EEI, observer Observer) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, NewExecError(ErrKindInternal, "trace canceled: %v", err)
		}

		op := rs.GetOp(rs.PC)
		rs.Op = op

		operation := in.table[op]
		if operation == nil || operation.execute == nil {
			interpLog.Debug("invalid opcode", "op", op, "pc", rs.PC)
			return nil, ErrInvalidOpcode
		}

		if ee.Env.IsStatic && operation.writes {
			return nil, ErrStaticStateChange
		}

		if rs.Stack.Len() < operation.minStack {
			return nil, ErrStackUnderflow
		}
		if operation.maxStackInc > 0 && rs.Stack.Len()+operation.maxStackInc > stackLimit {
			return nil, ErrStackOverflow
		}

		observer.Step(rs.PC, op, ee.GasLeft.Uint64(), ee.Env.Depth)

		if operation.constantGas > 0 {
			if err := ee.UseGas(operation.constantGas); err != nil {
				return nil, err
			}
		}
		var newMemSize uint64
		if operation.memorySize != nil {
			size, overflow := operation.memorySize(rs.Stack)
			if overflow {
				return nil, ErrOutOfGas
			}
			newMemSize = size
		}
		if operation.dynamicGas != nil {
			// dynamicGas reads rs.Memory's current (pre-expansion) length to
			// compute the expansion surcharge, so gas is always charged
			// before the resize below takes effect.
			cost, err := operation.dynamicGas(rs, ee)
			if err != nil {
				return nil, err
			}
			if err := ee.UseGas(cost); err != nil {
				return nil, err
			}
		}
		if newMemSize > 0 {
			rs.Memory.Resize(newMemSize)
		}

		ret, err := operation.execute(rs, ee)
		if err == errJumped {
			continue
		}
		if err != nil {
			return ret, err
		}
		if operation.halts {
			return ret, nil
		}

		rs.PC++
	}
}

