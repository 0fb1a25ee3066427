package vm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/ovmtrace/pkg/state"
)

// CallKind distinguishes the six ways a message can enter a contract: the
// four call opcodes and the two create opcodes.
type CallKind int

const (
	CallKindCall CallKind = iota
	CallKindDelegateCall
	CallKindCallCode
	CallKindStaticCall
	CallKindCreate
	CallKindCreate2
)

// Message is a single call or create request, either the top-level entry
// message handed to the executor or a recursive message an opcode handler
// raises against the Host.
type Message struct {
	Caller   common.Address
	To       common.Address // zero for CREATE/CREATE2
	Value    *big.Int
	Data     []byte
	Code     []byte // init code for CREATE/CREATE2, empty otherwise
	GasLimit *big.Int
	Depth    int

	// Origin and GasPrice are fixed by the top-level transaction and carried
	// unchanged through every recursive child message; only Caller/Value
	// change from frame to frame.
	Origin   common.Address
	GasPrice *big.Int

	Kind CallKind

	// Salt is set for CREATE2 messages.
	Salt *big.Int

	// CodeAddress is the address whose code actually executes: equal to To
	// for CALL/STATICCALL, equal to the delegate target for
	// DELEGATECALL/CALLCODE.
	CodeAddress common.Address

	// OriginalTargetAddress records the address the caller asked for before
	// any OVM retargeting toward the Execution Manager took place.
	OriginalTargetAddress common.Address

	IsStatic bool
}

// IsCreate reports whether this message deploys a new contract.
func (m *Message) IsCreate() bool {
	return m.Kind == CallKindCreate || m.Kind == CallKindCreate2
}

// IsTargetMessage reports whether this message is the OVM-unwrapped,
// user-visible call the depth-0 entry rewrite exists to expose. By
// convention the Execution Manager relay always re-enters one level
// deeper than the message it received, so the first depth-1 message is
// the target; this sentinel replaces re-deriving that fact ad hoc at
// every call site that cares about it.
func (m *Message) IsTargetMessage() bool {
	return m.Depth == 1
}

// Result is the outcome of executing a Message to completion.
type Result struct {
	ReturnData     []byte
	GasLeft        *big.Int
	GasRefund      *big.Int
	ExceptionError error // nil on success; an *ExecError on STOP/REVERT/failure
	CreatedAddress common.Address
}

// Failed reports whether execution ended in anything other than a clean
// STOP or RETURN.
func (r *Result) Failed() bool {
	if r.ExceptionError == nil {
		return false
	}
	return !IsKind(r.ExceptionError, ErrKindStop)
}

// Reverted reports whether execution ended in an explicit REVERT, as opposed
// to an exceptional halt.
func (r *Result) Reverted() bool {
	return IsKind(r.ExceptionError, ErrKindRevert)
}

// Host is the capability surface an EEI uses to recurse into further
// messages and to reach environment data that lives above the interpreter
// (block context, fork rules, observers). It plays the role the spec
// describes as a "cyclic reference" between the executor and the contract
// object; here the dependency only runs one way, from vm down into an
// interface the ovm package implements.
type Host interface {
	// Call dispatches a recursive message and returns its result. The Host
	// is responsible for snapshotting and reverting state around the call.
	Call(msg *Message) *Result

	StateView() state.View
	ForkConfig() ForkConfig
	Observer() Observer

	// BlockContext exposes the handful of block-level values opcode
	// handlers need (COINBASE, TIMESTAMP, NUMBER, ...).
	BlockContext() BlockContext

	// GetHash returns the hash of the ancestor block at number, or the zero
	// hash if number is out of the last-256-blocks window.
	GetHash(number uint64) common.Hash

	// Context returns the context bound to the current top-level trace. The
	// interpreter checks Err() at the top of its step loop so a CLI timeout
	// aborts mid-trace without committing any partial state.
	Context() context.Context
}

// BlockContext carries the environment values visible to opcode handlers
// via EEI.Env.
type BlockContext struct {
	Coinbase    common.Address
	GasLimit    uint64
	BlockNumber *big.Int
	Time        uint64
	Difficulty  *big.Int
	BaseFee     *big.Int
	Random      common.Hash // EIP-4399 PREVRANDAO value, post-Paris
	ChainID     *big.Int
}
