package vm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/ovmtrace/pkg/state"
)

// Env is the read-only environment view an opcode handler consults for
// ADDRESS/CALLER/CALLVALUE/ORIGIN/block-context style opcodes. It is
// derived once per message from the Message and the Host's BlockContext.
type Env struct {
	Address  common.Address // the executing contract (Message.To)
	Caller   common.Address
	CallValue *big.Int
	CallData []byte
	Origin   common.Address
	GasPrice *big.Int
	Block    BlockContext
	IsStatic bool
	Depth    int
}

// EEI is the Execution Environment Interface: the single surface every
// opcode handler uses to touch gas, storage, accounts, logs, and recursive
// calls. Handlers never reach past it into the Host or state.View directly,
// which is what keeps an opcode handler a pure function of (RunState, EEI).
type EEI struct {
	GasLeft *big.Int
	Result  *Result
	Env     Env

	host  Host
	msg   *Message
}

// NewEEI builds the EEI for a single message's execution.
func NewEEI(host Host, msg *Message) *EEI {
	gasPrice := msg.GasPrice
	if gasPrice == nil {
		gasPrice = new(big.Int)
	}
	return &EEI{
		GasLeft: new(big.Int).Set(msg.GasLimit),
		host:    host,
		msg:     msg,
		Env: Env{
			Address:   msg.To,
			Caller:    msg.Caller,
			CallValue: new(big.Int).Set(msg.Value),
			CallData:  msg.Data,
			Origin:    msg.Origin,
			GasPrice:  gasPrice,
			Block:     host.BlockContext(),
			IsStatic:  msg.IsStatic,
			Depth:     msg.Depth,
		},
	}
}

// UseGas deducts amount from the remaining gas, returning ErrOutOfGas
// (without mutating GasLeft) if insufficient.
func (e *EEI) UseGas(amount uint64) error {
	cost := new(big.Int).SetUint64(amount)
	if e.GasLeft.Cmp(cost) < 0 {
		return ErrOutOfGas
	}
	e.GasLeft.Sub(e.GasLeft, cost)
	return nil
}

// RefundGas adds amount back to the remaining gas, used for the EIP-150
// call-stipend and for returning unused gas from a sub-call.
func (e *EEI) RefundGas(amount *big.Int) {
	e.GasLeft.Add(e.GasLeft, amount)
}

// AddRefund records a gas refund (e.g. SSTORE clearing a slot) against the
// transaction-wide refund counter.
func (e *EEI) AddRefund(amount *big.Int) {
	e.host.StateView().AddRefund(amount)
}

// SubRefund reduces the refund counter, e.g. when a slot that was
// previously cleared is reset to a nonzero value within the same message.
func (e *EEI) SubRefund(amount *big.Int) {
	e.host.StateView().SubRefund(amount)
}

// state exposes the underlying state.View for storage/account accessors.
func (e *EEI) state() state.View { return e.host.StateView() }

func (e *EEI) GetStorage(addr common.Address, key common.Hash) common.Hash {
	return e.state().GetState(addr, key)
}

func (e *EEI) SetStorage(addr common.Address, key, value common.Hash) error {
	if e.Env.IsStatic {
		return ErrStaticStateChange
	}
	e.state().SetState(addr, key, value)
	return nil
}

func (e *EEI) GetCommittedStorage(addr common.Address, key common.Hash) common.Hash {
	return e.state().GetCommittedState(addr, key)
}

func (e *EEI) GetBalance(addr common.Address) *big.Int {
	return e.state().GetBalance(addr)
}

func (e *EEI) GetCodeSize(addr common.Address) int {
	return e.state().GetCodeSize(addr)
}

func (e *EEI) GetCode(addr common.Address) []byte {
	return e.state().GetCode(addr)
}

func (e *EEI) GetCodeHash(addr common.Address) common.Hash {
	return e.state().GetCodeHash(addr)
}

func (e *EEI) Exist(addr common.Address) bool {
	return e.state().Exist(addr)
}

// SelfDestruct marks the executing contract as destroyed in the state view
// and transfers its balance to beneficiary. Its storage and code are left
// in place; nothing clears them later in the transaction either.
func (e *EEI) SelfDestruct(beneficiary common.Address) error {
	if e.Env.IsStatic {
		return ErrStaticStateChange
	}
	v := e.state()
	balance := v.GetBalance(e.Env.Address)
	if beneficiary != e.Env.Address {
		v.AddBalance(beneficiary, balance)
	}
	v.SubBalance(e.Env.Address, balance)
	v.SelfDestruct(e.Env.Address)
	return nil
}

// Log appends a log entry for the executing contract.
func (e *EEI) Log(topics []common.Hash, data []byte) error {
	if e.Env.IsStatic {
		return ErrStaticStateChange
	}
	e.state().AddLog(&state.Log{
		Address: e.Env.Address,
		Topics:  topics,
		Data:    data,
	})
	return nil
}

// Call dispatches a recursive message through the Host and folds the
// child's leftover gas back into GasLeft.
func (e *EEI) Call(msg *Message) *Result {
	msg.Depth = e.Env.Depth + 1
	if msg.GasLimit != nil {
		// The forwarded gas leaves this frame's budget for the duration of
		// the child call; callGas/doCreate already cap it at what remains,
		// so this never drives GasLeft negative.
		e.GasLeft.Sub(e.GasLeft, msg.GasLimit)
	}
	res := e.host.Call(msg)
	if res.GasLeft != nil {
		e.RefundGas(res.GasLeft)
	}
	return res
}

func (e *EEI) GetHash(number uint64) common.Hash {
	return e.host.GetHash(number)
}
